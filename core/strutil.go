package core

// utoa converts an unsigned integer to a string without the fmt package
func utoa(n uint32) string {
	var buf [10]byte
	return string(appendUint(buf[:0], n))
}

// appendUint appends the decimal form of n to dst
func appendUint(dst []byte, n uint32) []byte {
	if n == 0 {
		return append(dst, '0')
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return append(dst, buf[pos:]...)
}

// decimalWidth returns the number of decimal digits in n
func decimalWidth(n uint32) uint8 {
	w := uint8(1)
	for n >= 10 {
		n /= 10
		w++
	}
	return w
}

package protocol

import "errors"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

var (
	ErrFrameLength   = errors.New("frame length out of range")
	ErrFrameSequence = errors.New("frame sequence byte invalid")
	ErrFrameSync     = errors.New("frame missing trailing sync")
	ErrFrameCRC      = errors.New("frame CRC mismatch")
	ErrFrameTooLong  = errors.New("payload too long for one frame")
)

// checkFrame validates the frame at the start of data. It returns the
// frame length, 0 if more bytes are needed, or an error if the stream has
// lost synchronisation.
func checkFrame(data []byte) (int, error) {
	if len(data) < MessageLengthMin {
		return 0, nil
	}

	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return 0, ErrFrameLength
	}
	if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return 0, ErrFrameSequence
	}
	if len(data) < msgLen {
		return 0, nil
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return 0, ErrFrameSync
	}

	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 | uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return 0, ErrFrameCRC
	}
	return msgLen, nil
}

// AppendFrame appends a complete frame carrying payload to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return dst, ErrFrameTooLong
	}

	start := len(dst)
	dst = append(dst, uint8(msgLen), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// nextSeq returns the sequence byte following seq
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// skipToSync drops bytes up to and including the next sync byte. It
// reports false when no sync byte is present.
func skipToSync(data []byte) ([]byte, bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return data[i+1:], true
		}
	}
	return nil, false
}

package core

// PrescalerTable is the ordered list of clock dividers the timer supports
type PrescalerTable []uint16

// DefaultPrescalers are the 16-bit timer's clock-select dividers
var DefaultPrescalers = PrescalerTable{1, 8, 64, 256, 1024}

// Last returns the highest valid index
func (p PrescalerTable) Last() uint8 {
	return uint8(len(p) - 1)
}

// Clamp limits a signed index to the table
func (p PrescalerTable) Clamp(index int) uint8 {
	if index < 0 {
		return 0
	}
	if index > int(p.Last()) {
		return p.Last()
	}
	return uint8(index)
}

// Divider returns the divider at index, clamping out-of-range indexes
func (p PrescalerTable) Divider(index uint8) uint16 {
	return p[p.Clamp(int(index))]
}

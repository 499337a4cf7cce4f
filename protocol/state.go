package protocol

// StateReport is the payload of a state response
type StateReport struct {
	Reload         uint16
	PrescalerIndex uint8
	Divider        uint16
	StepMagnitude  uint16
	Hz             uint32
	Centi          uint8
}

// EncodeStateReport writes the report arguments (without the response ID)
func EncodeStateReport(output OutputBuffer, r StateReport) {
	EncodeVLQUint(output, uint32(r.Reload))
	EncodeVLQUint(output, uint32(r.PrescalerIndex))
	EncodeVLQUint(output, uint32(r.Divider))
	EncodeVLQUint(output, uint32(r.StepMagnitude))
	EncodeVLQUint(output, r.Hz)
	EncodeVLQUint(output, uint32(r.Centi))
}

// DecodeStateReport reads the report arguments and advances data
func DecodeStateReport(data *[]byte) (StateReport, error) {
	var fields [6]uint32
	for i := range fields {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return StateReport{}, err
		}
		fields[i] = v
	}

	return StateReport{
		Reload:         uint16(fields[0]),
		PrescalerIndex: uint8(fields[1]),
		Divider:        uint16(fields[2]),
		StepMagnitude:  uint16(fields[3]),
		Hz:             fields[4],
		Centi:          uint8(fields[5]),
	}, nil
}

// Package protocol implements the panel link: a framed serial protocol
// (length, sequence, VLQ payload, CRC16, sync byte) in the format used by
// Klipper, carrying remote front-panel commands and state reports.
package protocol

// Version represents the frekvensgen firmware version
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax = 512 // Output scratch buffer size

	// Message sequence masks
	MessageSeqMask = 0x0F
)

// Command and response IDs. Both ends are built from this table, so the
// link needs no dictionary exchange.
const (
	CmdGetState      uint16 = 1 // get_state
	CmdCoarseStep    uint16 = 2 // coarse_step dir=%c
	CmdCycleStepMode uint16 = 3 // cycle_step_mode
	CmdFineStep      uint16 = 4 // fine_step delta=%c
	CmdDumpEvents    uint16 = 5 // dump_events

	RspState uint16 = 16 // state reload=%u prescaler_index=%c divider=%u step=%u hz=%u centi=%c
)

// Command argument values
const (
	DirDown = 0
	DirUp   = 1

	DeltaIncrement = 0
	DeltaReset     = 1
	DeltaDecrement = 2
)

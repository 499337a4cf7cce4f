package core

// OverflowTimer is the free-running 16-bit counter behind the output signal.
// Platform-specific implementations program the actual hardware; the
// platform calls Emitter.OnOverflow from the overflow notification.
type OverflowTimer interface {
	// SetDivider selects the prescaler. index is the position in the
	// prescaler table, divider the value at that position.
	// Returns an error if the hardware cannot produce that divider.
	SetDivider(index uint8, divider uint16) error

	// SetCounter loads the live counter with a reload value. The next
	// overflow fires after 65536-reload prescaled ticks.
	SetCounter(reload uint16)

	// ArmOverflow enables the overflow notification
	ArmOverflow()
}

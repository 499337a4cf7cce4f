package core

// InputLine identifies a UI input whose level is sampled by a handler
type InputLine uint8

const (
	LineEncoderDir InputLine = iota // high = clockwise = Up
	LineFineUp                      // active low
	LineFineReset                   // active low
	LineFineDown                    // active low
)

// InputDriver is the UI input capability: level reads plus masking of the
// encoder, mode-button and fine-step notifications.
type InputDriver interface {
	// ReadLine returns the electrical level of a line (true = high)
	ReadLine(line InputLine) bool

	// SuspendNotifications masks all UI notifications. The timer overflow
	// is not affected.
	SuspendNotifications()

	// ArmNotifications enables the edge notifications of the encoder and
	// the mode button, and the level notification of the fine-step group.
	ArmNotifications()
}

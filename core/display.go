package core

// Screen layout of the 20x4 readout
const (
	rowFreq      = 0
	rowPrescaler = 1
	rowCount     = 2
	rowPark      = 3

	colValue    = 6  // integer hertz, right-aligned up to colSep
	colSep      = 14 // decimal separator
	colCenti    = 15
	colUnit     = 17
	colDivider  = 12
	colCount    = 12
	colPark     = 1
	widthHz     = colSep - colValue
	widthDiv    = 4
	widthCount  = 5
	decimalMark = ','
)

const blanks = "        "

// Refresher renders the tuner state and pushes it back to the hardware
type Refresher struct {
	tuner  *Tuner
	model  *FrequencyModel
	lcd    Display
	timer  OverflowTimer
	inputs InputDriver
}

// NewRefresher creates the display refresh stage
func NewRefresher(tuner *Tuner, model *FrequencyModel, lcd Display, timer OverflowTimer, inputs InputDriver) *Refresher {
	return &Refresher{
		tuner:  tuner,
		model:  model,
		lcd:    lcd,
		timer:  timer,
		inputs: inputs,
	}
}

// Refresh recomputes the frequency, redraws the readout and re-applies the
// timer and notification configuration. The re-arm is how a prescaler
// change reaches the hardware. A divider error is returned after the
// remaining configuration has been applied.
func (r *Refresher) Refresh() error {
	r.inputs.SuspendNotifications()

	st := r.tuner.Snapshot()
	f := r.model.Compute(st.Reload, st.PrescalerIndex)
	r.render(st, f)
	RecordEvent(EvtRefresh, f.Hz, uint32(f.Centi))

	return r.Rearm(st)
}

// Rearm programs the divider and counter and enables all notifications.
// The counter push shares timer state with the overflow handler, so it runs
// with the overflow masked.
func (r *Refresher) Rearm(st TuningState) error {
	err := r.timer.SetDivider(st.PrescalerIndex, st.Divider)

	state := enterCritical()
	r.timer.SetCounter(st.Reload)
	leaveCritical(state)

	r.timer.ArmOverflow()
	r.inputs.ArmNotifications()
	return err
}

// ParkCursor moves the cursor to its resting place on the last row
func (r *Refresher) ParkCursor() {
	r.lcd.MoveCursor(rowPark, colPark)
}

func (r *Refresher) render(st TuningState, f Frequency) {
	d := r.lcd

	// Line 1: "Freq.:     200,00 Hz"
	d.MoveCursor(rowFreq, 0)
	d.WriteText("Freq.:")
	d.MoveCursor(rowFreq, colValue)
	r.writeRight(f.Hz, widthHz)
	d.WriteChar(decimalMark)
	if f.Centi < 10 {
		d.WriteChar('0')
	}
	d.WriteInteger(uint32(f.Centi))
	d.MoveCursor(rowFreq, colUnit)
	d.WriteText(" Hz")

	// Line 2
	d.MoveCursor(rowPrescaler, 0)
	d.WriteText("Prescaler:")
	d.MoveCursor(rowPrescaler, colDivider)
	r.writeLeft(uint32(st.Divider), widthDiv)

	// Line 3
	d.MoveCursor(rowCount, 0)
	d.WriteText("Count:")
	d.MoveCursor(rowCount, colCount)
	r.writeLeft(uint32(st.Reload), widthCount)

	r.ParkCursor()
}

// writeRight writes v right-aligned in a blank-filled field
func (r *Refresher) writeRight(v uint32, width uint8) {
	if w := decimalWidth(v); w < width {
		r.lcd.WriteText(blanks[:width-w])
	}
	r.lcd.WriteInteger(v)
}

// writeLeft writes v and blanks out the rest of the field
func (r *Refresher) writeLeft(v uint32, width uint8) {
	r.lcd.WriteInteger(v)
	if w := decimalWidth(v); w < width {
		r.lcd.WriteText(blanks[:width-w])
	}
}

package core

// Dispatcher turns UI notifications into tuner transitions followed by a
// display refresh. The platform registers CoarseStep, ModeCycle and
// FineStep as the handlers of the encoder edge, the mode-button edge and
// the fine-step level group. Each handler suspends the UI notifications
// on entry; the refresh (or, for ModeCycle, the handler itself) re-arms
// them.
type Dispatcher struct {
	tuner     *Tuner
	refresher *Refresher
	inputs    InputDriver
	debounce  Debouncer

	refreshOnModeCycle bool
	refreshFn          func()
}

// NewDispatcher creates a dispatcher
func NewDispatcher(tuner *Tuner, refresher *Refresher, inputs InputDriver, debounce Debouncer, refreshOnModeCycle bool) *Dispatcher {
	d := &Dispatcher{
		tuner:              tuner,
		refresher:          refresher,
		inputs:             inputs,
		debounce:           debounce,
		refreshOnModeCycle: refreshOnModeCycle,
	}
	d.refreshFn = d.refresh
	return d
}

// CoarseStep handles the encoder clock edge. The direction is the level of
// the companion line at the moment of the edge.
func (d *Dispatcher) CoarseStep() {
	d.inputs.SuspendNotifications()

	dir := Down
	if d.inputs.ReadLine(LineEncoderDir) {
		dir = Up
	}
	d.adjustReload(dir)
}

// Coarse applies a coarse step in a known direction
func (d *Dispatcher) Coarse(dir Direction) {
	d.inputs.SuspendNotifications()
	d.adjustReload(dir)
}

func (d *Dispatcher) adjustReload(dir Direction) {
	reload := d.tuner.AdjustReload(dir)
	RecordEvent(EvtCoarseStep, uint32(dir), uint32(reload))
	d.debounce.Settle(d.refreshFn)
}

// ModeCycle handles the step-size button edge. It parks the cursor and
// re-arms notifications without redrawing, unless configured to refresh.
// Inside an open debounce window it leaves both to the pending refresh.
func (d *Dispatcher) ModeCycle() {
	d.inputs.SuspendNotifications()

	mode, magnitude := d.tuner.CycleStepMode()
	RecordEvent(EvtModeCycle, uint32(mode), uint32(magnitude))

	if d.debounce.Pending() {
		return
	}
	if d.refreshOnModeCycle {
		d.refresh()
		return
	}
	d.refresher.ParkCursor()
	d.inputs.ArmNotifications()
}

// FineStep handles the fine-step button group. Buttons are active low and
// tested in the order increment, reset, decrement, so the first asserted
// one wins. With no button asserted the prescaler is left alone but the
// display is still refreshed.
func (d *Dispatcher) FineStep() {
	d.inputs.SuspendNotifications()

	switch {
	case !d.inputs.ReadLine(LineFineUp):
		d.adjustPrescaler(Increment)
	case !d.inputs.ReadLine(LineFineReset):
		d.adjustPrescaler(Reset)
	case !d.inputs.ReadLine(LineFineDown):
		d.adjustPrescaler(Decrement)
	default:
		d.debounce.Settle(d.refreshFn)
	}
}

// Fine applies a fine step with a known delta
func (d *Dispatcher) Fine(delta PrescalerDelta) {
	d.inputs.SuspendNotifications()
	d.adjustPrescaler(delta)
}

func (d *Dispatcher) adjustPrescaler(delta PrescalerDelta) {
	index := d.tuner.AdjustPrescaler(delta)
	RecordEvent(EvtFineStep, uint32(delta), uint32(index))
	d.debounce.Settle(d.refreshFn)
}

// Start draws the boot readout and arms the hardware
func (d *Dispatcher) Start() {
	d.refresh()
}

func (d *Dispatcher) refresh() {
	if err := d.refresher.Refresh(); err != nil {
		RecordEvent(EvtRefreshError, uint32(d.tuner.Snapshot().PrescalerIndex), 0)
		DebugAsync("refresh: " + err.Error())
	}
}

package core

import "sync/atomic"

// Emitter turns timer overflows into the square-wave output.
// OnOverflow runs in the overflow interrupt: it only toggles the pin and
// reloads the counter.
type Emitter struct {
	tuner *Tuner
	timer OverflowTimer
	pin   SignalPin

	edges uint32 // atomic; the output is high after an odd count
}

// NewEmitter creates an emitter with the output low
func NewEmitter(tuner *Tuner, timer OverflowTimer, pin SignalPin) *Emitter {
	e := &Emitter{
		tuner: tuner,
		timer: timer,
		pin:   pin,
	}
	pin.Set(false)
	return e
}

// OnOverflow is the overflow notification handler
func (e *Emitter) OnOverflow() {
	edges := atomic.AddUint32(&e.edges, 1)
	e.pin.Set(edges&1 == 1)
	e.timer.SetCounter(e.tuner.Reload())
}

// Edges returns the number of output edges produced so far
func (e *Emitter) Edges() uint32 {
	return atomic.LoadUint32(&e.edges)
}

// Level returns the current output level. Safe from any goroutine.
func (e *Emitter) Level() bool {
	return e.Edges()&1 == 1
}

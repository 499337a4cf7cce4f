package core

import (
	"sync/atomic"

	"frekvensgen/config"
)

// Direction of a coarse reload adjustment
type Direction uint8

const (
	Down Direction = iota // smaller reload, lower frequency
	Up                    // larger reload, higher frequency
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// PrescalerDelta is a fine-step prescaler adjustment
type PrescalerDelta uint8

const (
	Increment PrescalerDelta = iota
	Reset
	Decrement
)

func (d PrescalerDelta) String() string {
	switch d {
	case Increment:
		return "increment"
	case Reset:
		return "reset"
	case Decrement:
		return "decrement"
	default:
		return "unknown"
	}
}

// TuningState is a consistent copy of the tuner's parameters
type TuningState struct {
	Reload         uint16
	PrescalerIndex uint8
	StepMode       uint8
	StepMagnitude  uint16
	Divider        uint16
}

// Tuner owns the reload value, prescaler index and step mode. Every
// transition runs inside the critical section; the reload value is also
// published atomically for the overflow handler.
type Tuner struct {
	reload    uint32 // atomic, read by the emitter
	prescaler uint8
	mode      uint8

	prescalers PrescalerTable
	steps      []uint16

	resetIndex uint8
	reloadMin  uint16
	reloadMax  uint16
	wrap       bool
}

// NewTuner creates a tuner in the configured boot state
func NewTuner(cfg *config.Config) *Tuner {
	t := &Tuner{
		prescalers: PrescalerTable(cfg.Prescalers),
		steps:      cfg.StepMagnitudes,
		resetIndex: cfg.ResetPrescalerIndex,
		reloadMin:  cfg.ReloadMin,
		reloadMax:  cfg.ReloadMax,
		wrap:       cfg.ReloadWrap,
	}
	t.prescaler = t.prescalers.Clamp(int(cfg.DefaultPrescalerIndex))
	t.mode = uint8(int(cfg.DefaultStepMode) % len(t.steps))
	atomic.StoreUint32(&t.reload, uint32(cfg.DefaultReload))
	return t
}

// Reload returns the current reload value without entering the critical
// section. Safe from the overflow handler.
func (t *Tuner) Reload() uint16 {
	return uint16(atomic.LoadUint32(&t.reload))
}

// AdjustReload moves the reload value by the current step magnitude
func (t *Tuner) AdjustReload(dir Direction) uint16 {
	state := enterCritical()
	defer leaveCritical(state)

	cur := uint16(atomic.LoadUint32(&t.reload))
	step := t.steps[t.mode]

	var next uint16
	switch {
	case t.wrap && dir == Up:
		next = cur + step
	case t.wrap:
		next = cur - step
	case dir == Up:
		if uint32(cur)+uint32(step) > uint32(t.reloadMax) {
			next = t.reloadMax
		} else {
			next = cur + step
		}
	default:
		if int32(cur)-int32(step) < int32(t.reloadMin) {
			next = t.reloadMin
		} else {
			next = cur - step
		}
	}

	atomic.StoreUint32(&t.reload, uint32(next))
	return next
}

// CycleStepMode advances to the next step magnitude, wrapping after the last
func (t *Tuner) CycleStepMode() (mode uint8, magnitude uint16) {
	state := enterCritical()
	defer leaveCritical(state)

	t.mode++
	if int(t.mode) >= len(t.steps) {
		t.mode = 0
	}
	return t.mode, t.steps[t.mode]
}

// AdjustPrescaler applies a fine step and clamps the index to the table
func (t *Tuner) AdjustPrescaler(delta PrescalerDelta) uint8 {
	state := enterCritical()
	defer leaveCritical(state)

	index := int(t.prescaler)
	switch delta {
	case Increment:
		index++
	case Reset:
		index = int(t.resetIndex)
	case Decrement:
		index--
	}
	t.prescaler = t.prescalers.Clamp(index)
	return t.prescaler
}

// Snapshot returns all parameters read under one critical section
func (t *Tuner) Snapshot() TuningState {
	state := enterCritical()
	defer leaveCritical(state)

	return TuningState{
		Reload:         uint16(atomic.LoadUint32(&t.reload)),
		PrescalerIndex: t.prescaler,
		StepMode:       t.mode,
		StepMagnitude:  t.steps[t.mode],
		Divider:        t.prescalers[t.prescaler],
	}
}

//go:build rp2040 || rp2350

package main

import (
	"machine"
	"sync/atomic"

	"frekvensgen/config"
	"frekvensgen/core"
)

// Pending notification bits
const (
	pendingCoarse uint32 = 1 << iota
	pendingMode
	pendingFine
)

// PinInputs implements core.InputDriver on GPIO edge interrupts. The
// interrupt only latches the line levels and flags the notification; the
// main loop runs the dispatcher from Poll, so LCD writes never happen in
// interrupt context.
type PinInputs struct {
	encClock, encDir, mode machine.Pin
	fine                   [3]machine.Pin // up, reset, down

	armed   uint32 // atomic bool
	pending uint32 // atomic
	latched uint32 // atomic, level bit per core.InputLine
}

// NewPinInputs configures the encoder and buttons with pull-ups and
// falling-edge interrupts
func NewPinInputs(p config.Pins) (*PinInputs, error) {
	in := &PinInputs{
		encClock: machine.Pin(p.EncoderClock),
		encDir:   machine.Pin(p.EncoderDir),
		mode:     machine.Pin(p.ModeButton),
		fine: [3]machine.Pin{
			machine.Pin(p.FineUp),
			machine.Pin(p.FineReset),
			machine.Pin(p.FineDown),
		},
	}

	pins := []machine.Pin{in.encClock, in.encDir, in.mode, in.fine[0], in.fine[1], in.fine[2]}
	for _, pin := range pins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	if err := in.encClock.SetInterrupt(machine.PinFalling, in.edge(pendingCoarse)); err != nil {
		return nil, err
	}
	if err := in.mode.SetInterrupt(machine.PinFalling, in.edge(pendingMode)); err != nil {
		return nil, err
	}
	for _, pin := range in.fine {
		if err := pin.SetInterrupt(machine.PinFalling, in.edge(pendingFine)); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// edge returns the interrupt callback for one notification
func (in *PinInputs) edge(bit uint32) func(machine.Pin) {
	return func(machine.Pin) {
		if atomic.LoadUint32(&in.armed) == 0 {
			return
		}
		in.latch()
		for {
			old := atomic.LoadUint32(&in.pending)
			if atomic.CompareAndSwapUint32(&in.pending, old, old|bit) {
				return
			}
		}
	}
}

func (in *PinInputs) latch() {
	var levels uint32
	if in.encDir.Get() {
		levels |= 1 << core.LineEncoderDir
	}
	if in.fine[0].Get() {
		levels |= 1 << core.LineFineUp
	}
	if in.fine[1].Get() {
		levels |= 1 << core.LineFineReset
	}
	if in.fine[2].Get() {
		levels |= 1 << core.LineFineDown
	}
	atomic.StoreUint32(&in.latched, levels)
}

// ReadLine returns the level latched at the last notification
func (in *PinInputs) ReadLine(line core.InputLine) bool {
	return atomic.LoadUint32(&in.latched)&(1<<line) != 0
}

func (in *PinInputs) SuspendNotifications() {
	atomic.StoreUint32(&in.armed, 0)
}

func (in *PinInputs) ArmNotifications() {
	atomic.StoreUint32(&in.pending, 0)
	atomic.StoreUint32(&in.armed, 1)
}

// Poll runs the dispatcher handler of every flagged notification
func (in *PinInputs) Poll(d *core.Dispatcher) {
	pending := atomic.SwapUint32(&in.pending, 0)
	if pending == 0 {
		return
	}

	if pending&pendingCoarse != 0 {
		d.CoarseStep()
	}
	if pending&pendingMode != 0 {
		d.ModeCycle()
	}
	if pending&pendingFine != 0 {
		d.FineStep()
	}
}

// SignalPin drives the square-wave output
type SignalPin struct {
	pin machine.Pin
}

// NewSignalPin configures pin as an output
func NewSignalPin(pin machine.Pin) *SignalPin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &SignalPin{pin: pin}
}

func (s *SignalPin) Set(high bool) {
	s.pin.Set(high)
}

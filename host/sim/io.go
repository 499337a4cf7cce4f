package sim

import (
	"sync"

	"frekvensgen/core"
)

// Inputs is the encoder, the step-size button and the fine-step button
// group. Notifications raised while suspended are lost, like an edge
// arriving with the interrupt masked and its flag cleared on re-arm.
type Inputs struct {
	mu     sync.Mutex
	levels map[core.InputLine]bool
	armed  bool
	missed int

	onCoarse func()
	onMode   func()
	onFine   func()
}

// NewInputs creates the inputs with every button released
func NewInputs() *Inputs {
	return &Inputs{
		levels: map[core.InputLine]bool{
			core.LineEncoderDir: false,
			core.LineFineUp:     true,
			core.LineFineReset:  true,
			core.LineFineDown:   true,
		},
	}
}

// Handle registers the notification handlers
func (in *Inputs) Handle(coarse, mode, fine func()) {
	in.mu.Lock()
	in.onCoarse, in.onMode, in.onFine = coarse, mode, fine
	in.mu.Unlock()
}

func (in *Inputs) ReadLine(line core.InputLine) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.levels[line]
}

func (in *Inputs) SuspendNotifications() {
	in.mu.Lock()
	in.armed = false
	in.mu.Unlock()
}

func (in *Inputs) ArmNotifications() {
	in.mu.Lock()
	in.armed = true
	in.mu.Unlock()
}

// Armed reports whether notifications are enabled
func (in *Inputs) Armed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.armed
}

// Missed returns the number of notifications dropped while suspended
func (in *Inputs) Missed() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.missed
}

// TurnEncoder produces one encoder detent. Clockwise holds the direction
// line high at the clock edge.
func (in *Inputs) TurnEncoder(clockwise bool) bool {
	in.mu.Lock()
	in.levels[core.LineEncoderDir] = clockwise
	in.mu.Unlock()
	return in.notify(func() func() { return in.onCoarse })
}

// PressMode produces one step-size button edge
func (in *Inputs) PressMode() bool {
	return in.notify(func() func() { return in.onMode })
}

// PressFine holds one fine-step button low for the notification
func (in *Inputs) PressFine(line core.InputLine) bool {
	in.mu.Lock()
	in.levels[line] = false
	in.mu.Unlock()

	handled := in.notify(func() func() { return in.onFine })

	in.mu.Lock()
	in.levels[line] = true
	in.mu.Unlock()
	return handled
}

// notify runs a handler if notifications are armed. It reports whether
// the handler ran.
func (in *Inputs) notify(pick func() func()) bool {
	in.mu.Lock()
	handler := pick()
	if !in.armed || handler == nil {
		in.missed++
		in.mu.Unlock()
		return false
	}
	in.mu.Unlock()

	handler()
	return true
}

// Pin is the output signal pin
type Pin struct {
	mu    sync.Mutex
	level bool
	edges uint64
}

func (p *Pin) Set(high bool) {
	p.mu.Lock()
	if high != p.level {
		p.edges++
	}
	p.level = high
	p.mu.Unlock()
}

// Level returns the pin level
func (p *Pin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Edges returns the number of level changes
func (p *Pin) Edges() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.edges
}

package sim

import (
	"errors"
	"sync"
	"time"
)

var ErrUnsupportedDivider = errors.New("divider not supported by the timer")

// MaxOverflowsPerAdvance bounds the work done by one Advance call. At high
// output frequencies the rest of the interval is dropped.
const MaxOverflowsPerAdvance = 1 << 16

// Timer is a 16-bit up-counter clocked through a prescaler. Passing 65535
// raises the overflow notification.
type Timer struct {
	mu sync.Mutex

	clockRate uint32
	dividers  map[uint16]bool

	divider uint16
	counter uint16
	armed   bool

	cycles     uint64 // clock cycles not yet divided into ticks
	overflows  uint64
	onOverflow func()
}

// NewTimer creates a timer clocked at clockRate that supports the given
// dividers
func NewTimer(clockRate uint32, dividers []uint16) *Timer {
	t := &Timer{
		clockRate: clockRate,
		dividers:  make(map[uint16]bool, len(dividers)),
		divider:   1,
	}
	for _, d := range dividers {
		t.dividers[d] = true
	}
	return t
}

// OnOverflow sets the overflow notification handler
func (t *Timer) OnOverflow(handler func()) {
	t.mu.Lock()
	t.onOverflow = handler
	t.mu.Unlock()
}

func (t *Timer) SetDivider(index uint8, divider uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dividers[divider] {
		return ErrUnsupportedDivider
	}
	t.divider = divider
	return nil
}

func (t *Timer) SetCounter(reload uint16) {
	t.mu.Lock()
	t.counter = reload
	t.mu.Unlock()
}

func (t *Timer) ArmOverflow() {
	t.mu.Lock()
	t.armed = true
	t.mu.Unlock()
}

// Divider returns the active divider
func (t *Timer) Divider() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.divider
}

// Counter returns the live counter value
func (t *Timer) Counter() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counter
}

// Overflows returns the number of overflows since creation
func (t *Timer) Overflows() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overflows
}

// Advance runs the counter for d and returns the number of overflows. The
// handler runs without the timer lock held so it can reload the counter.
// truncated reports that MaxOverflowsPerAdvance cut the interval short.
func (t *Timer) Advance(d time.Duration) (overflows int, truncated bool) {
	if d <= 0 {
		return 0, false
	}

	t.mu.Lock()
	t.cycles += uint64(d) * uint64(t.clockRate) / uint64(time.Second)
	t.mu.Unlock()

	for {
		t.mu.Lock()
		if !t.armed {
			// Counter stopped; drop the elapsed cycles
			t.cycles = 0
			t.mu.Unlock()
			return overflows, false
		}

		ticks := t.cycles / uint64(t.divider)
		toOverflow := uint64(1<<16) - uint64(t.counter)
		if ticks < toOverflow {
			t.counter += uint16(ticks)
			t.cycles -= ticks * uint64(t.divider)
			t.mu.Unlock()
			return overflows, false
		}

		if overflows == MaxOverflowsPerAdvance {
			t.cycles = 0
			t.mu.Unlock()
			return overflows, true
		}

		t.cycles -= toOverflow * uint64(t.divider)
		t.counter = 0
		t.overflows++
		handler := t.onOverflow
		t.mu.Unlock()

		overflows++
		if handler != nil {
			handler()
		}
	}
}

package core

import "time"

// Debouncer decides when the work following a UI event runs. UI
// notifications stay suspended until that work re-arms them, so contact
// bounce inside the window is ignored.
type Debouncer interface {
	Settle(then func())
	Pending() bool
}

// BlockingDebounce stalls the handler for the whole window. This is the
// behaviour of a bare interrupt handler with a busy-wait delay.
type BlockingDebounce struct {
	Delay time.Duration
	sleep func(time.Duration)
}

// NewBlockingDebounce creates a blocking debounce of the given window
func NewBlockingDebounce(delay time.Duration) *BlockingDebounce {
	return &BlockingDebounce{
		Delay: delay,
		sleep: time.Sleep,
	}
}

// Settle waits out the window, then runs then
func (b *BlockingDebounce) Settle(then func()) {
	if b.Delay > 0 {
		b.sleep(b.Delay)
	}
	then()
}

// Pending is always false: the window has passed when Settle returns
func (b *BlockingDebounce) Pending() bool {
	return false
}

// ScheduledDebounce returns from the handler immediately and runs the
// follow-up work from the main loop's ProcessTimers once the window has
// passed. A second Settle inside the window replaces the pending work
// without extending the window.
type ScheduledDebounce struct {
	delayTicks uint32
	timer      Timer
	pending    bool
	then       func()
}

// NewScheduledDebounce creates a scheduled debounce of the given window
func NewScheduledDebounce(delay time.Duration) *ScheduledDebounce {
	return &ScheduledDebounce{
		delayTicks: TimerFromUS(uint32(delay / time.Microsecond)),
	}
}

// Settle schedules then at the end of the window
func (s *ScheduledDebounce) Settle(then func()) {
	state := enterCritical()
	defer leaveCritical(state)

	s.then = then
	if s.pending {
		return
	}
	s.pending = true
	s.timer.Next = nil
	s.timer.WakeTime = GetTime() + s.delayTicks
	s.timer.Handler = s.fire
	insertTimer(&s.timer)
}

// Pending reports whether follow-up work is waiting for the window to end
func (s *ScheduledDebounce) Pending() bool {
	state := enterCritical()
	defer leaveCritical(state)
	return s.pending
}

func (s *ScheduledDebounce) fire(t *Timer) uint8 {
	state := enterCritical()
	then := s.then
	s.then = nil
	s.pending = false
	leaveCritical(state)

	if then != nil {
		then()
	}
	return SF_DONE
}

package core

// Timer is a one-shot or repeating entry on the deferred-work list
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var timerList *Timer

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	state := enterCritical()
	defer leaveCritical(state)

	insertTimer(t)
}

// timeBefore reports whether a comes before b, tolerating counter wrap
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// insertTimer inserts a timer in sorted order by WakeTime.
// Must be called inside the critical section.
func insertTimer(t *Timer) {
	if timerList == nil || timeBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && !timeBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// popDue unlinks the first timer due at now, or returns nil
func popDue(now uint32) *Timer {
	state := enterCritical()
	defer leaveCritical(state)

	if timerList == nil || timeBefore(now, timerList.WakeTime) {
		return nil
	}
	timer := timerList
	timerList = timer.Next
	timer.Next = nil
	return timer
}

// TimerDispatch runs every timer due at now. Handlers run outside the
// critical section so they may call the tuner and the display refresh.
func TimerDispatch(now uint32) {
	for {
		timer := popDue(now)
		if timer == nil {
			return
		}

		if timer.Handler(timer) == SF_RESCHEDULE {
			ScheduleTimer(timer)
		}
	}
}

// PendingTimers returns the number of scheduled entries
func PendingTimers() int {
	state := enterCritical()
	defer leaveCritical(state)

	n := 0
	for t := timerList; t != nil; t = t.Next {
		n++
	}
	return n
}

// ResetTimers drops every scheduled entry
func ResetTimers() {
	state := enterCritical()
	defer leaveCritical(state)

	for t := timerList; t != nil; {
		next := t.Next
		t.Next = nil
		t = next
	}
	timerList = nil
}

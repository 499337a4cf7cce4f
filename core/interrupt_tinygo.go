//go:build tinygo

package core

import "runtime/interrupt"

// State is the interrupt mask saved on entry to a critical section
type State = interrupt.State

// enterCritical masks all interrupts, including the timer overflow
func enterCritical() State {
	return interrupt.Disable()
}

// leaveCritical restores the mask saved by enterCritical
func leaveCritical(state State) {
	interrupt.Restore(state)
}

//go:build !tinygo

package core

import "sync"

// State is the saved critical-section state. Host builds have no
// interrupt mask to save.
type State uintptr

// criticalMu stands in for the interrupt mask so the simulator's
// goroutines are serialised the same way firmware handlers are.
// Not reentrant: code holding the section must not call back into
// another guarded operation.
var criticalMu sync.Mutex

func enterCritical() State {
	criticalMu.Lock()
	return 0
}

func leaveCritical(State) {
	criticalMu.Unlock()
}

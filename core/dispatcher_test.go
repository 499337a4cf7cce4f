package core

import (
	"errors"
	"testing"
	"time"

	"frekvensgen/config"
)

func TestCoarseStepDirection(t *testing.T) {
	tests := []struct {
		name   string
		dirHigh bool
		expect uint16
	}{
		{"companion low steps down", false, 49286},
		{"companion high steps up", true, 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, nil)
			r.inputs.levels[LineEncoderDir] = tt.dirHigh

			r.dispatcher.CoarseStep()

			if got := r.tuner.Reload(); got != tt.expect {
				t.Errorf("Expected reload %d, got %d", tt.expect, got)
			}
			if r.timer.counter != tt.expect {
				t.Errorf("Expected refresh to reload counter %d, got %d", tt.expect, r.timer.counter)
			}
			if len(*r.slept) != 1 || (*r.slept)[0] != 100*time.Millisecond {
				t.Errorf("Expected one 100ms debounce, got %v", *r.slept)
			}
			if !r.inputs.armed {
				t.Error("Expected notifications re-armed")
			}
		})
	}
}

func TestCoarseStepScenario(t *testing.T) {
	r := newRig(t, nil)

	// 200.00 Hz boot readout, then one coarse step down
	r.dispatcher.Start()
	if got := r.lcd.Line(0); got != "Freq.:     200,00 Hz" {
		t.Fatalf("Expected boot readout, got %q", got)
	}

	r.dispatcher.Coarse(Down)
	// 20e6 / 16 / 16250 = 76.92
	if got := r.lcd.Line(0); got != "Freq.:      76,92 Hz" {
		t.Errorf("Expected 76,92 Hz, got %q", got)
	}
	if got := trimLine(r.lcd.Line(2)); got != "Count:      49286" {
		t.Errorf("Expected count 49286, got %q", got)
	}
}

func TestModeCycleDoesNotRefresh(t *testing.T) {
	r := newRig(t, nil)

	r.dispatcher.ModeCycle()

	if st := r.tuner.Snapshot(); st.StepMagnitude != 1000 {
		t.Errorf("Expected magnitude 1000, got %d", st.StepMagnitude)
	}
	if r.lcd.writes != 0 {
		t.Errorf("Expected no display writes, got %d", r.lcd.writes)
	}
	if r.lcd.row != 3 || r.lcd.col != 1 {
		t.Errorf("Expected cursor parked at row 3 col 1, got row %d col %d", r.lcd.row, r.lcd.col)
	}
	if len(r.timer.calls) != 0 {
		t.Errorf("Expected no timer programming, got %v", r.timer.calls)
	}
	if !r.inputs.armed || r.inputs.suspends != 1 {
		t.Errorf("Expected suspend then re-arm, got suspends=%d armed=%v", r.inputs.suspends, r.inputs.armed)
	}
	if len(*r.slept) != 0 {
		t.Errorf("Expected no debounce delay, got %v", *r.slept)
	}
}

func TestModeCycleRefreshOption(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RefreshOnModeCycle = true
	r := newRig(t, cfg)

	r.dispatcher.ModeCycle()

	if got := r.lcd.Line(0); got != "Freq.:     200,00 Hz" {
		t.Errorf("Expected a redraw, got %q", got)
	}
	if r.timer.armed != 1 {
		t.Errorf("Expected timer re-armed once, got %d", r.timer.armed)
	}
}

func TestFineStepPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		up    bool
		reset bool
		down  bool
		index uint8
	}{
		{"increment alone", false, true, true, 2},
		{"reset alone", true, false, true, 2},
		{"decrement alone", true, true, false, 0},
		{"increment beats decrement", false, true, false, 2},
		{"increment beats reset", false, false, true, 2},
		{"reset beats decrement", true, false, false, 2},
		{"none pressed", true, true, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, nil)
			r.inputs.levels[LineFineUp] = tt.up
			r.inputs.levels[LineFineReset] = tt.reset
			r.inputs.levels[LineFineDown] = tt.down

			r.dispatcher.FineStep()

			if st := r.tuner.Snapshot(); st.PrescalerIndex != tt.index {
				t.Errorf("Expected prescaler index %d, got %d", tt.index, st.PrescalerIndex)
			}
			if r.timer.armed != 1 || !r.inputs.armed {
				t.Error("Expected a refresh and re-arm")
			}
		})
	}
}

func TestFineStepResetFromTop(t *testing.T) {
	r := newRig(t, nil)
	for i := 0; i < 3; i++ {
		r.dispatcher.Fine(Increment)
	}
	if st := r.tuner.Snapshot(); st.PrescalerIndex != 4 {
		t.Fatalf("Expected index 4, got %d", st.PrescalerIndex)
	}

	r.dispatcher.Fine(Reset)
	if r.timer.divider != 64 {
		t.Errorf("Expected divider 64 programmed after reset, got %d", r.timer.divider)
	}
}

func TestDispatcherLogsRefreshError(t *testing.T) {
	r := newRig(t, nil)
	r.timer.dividerErr = errors.New("divider unsupported")

	r.dispatcher.Fine(Decrement)

	if !hasEvent(EvtRefreshError) {
		t.Error("Expected a refresh error event")
	}
	if !r.inputs.armed {
		t.Error("Expected notifications re-armed despite the error")
	}
}

func TestDispatcherEvents(t *testing.T) {
	r := newRig(t, nil)

	r.dispatcher.Coarse(Up)
	r.dispatcher.ModeCycle()
	r.dispatcher.Fine(Increment)

	var types []uint8
	for _, evt := range RecentEvents() {
		types = append(types, evt.Type)
	}
	want := []uint8{EvtCoarseStep, EvtRefresh, EvtModeCycle, EvtFineStep, EvtRefresh}
	if len(types) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, EventName(want[i]), EventName(types[i]))
		}
	}
}

func TestScheduledDebounceDispatch(t *testing.T) {
	r := newRig(t, nil)
	debounce := NewScheduledDebounce(100 * time.Millisecond)
	d := NewDispatcher(r.tuner, r.refresher, r.inputs, debounce, false)

	SetTime(1000)
	d.Coarse(Down)
	if r.inputs.armed {
		t.Fatal("Expected notifications masked during the window")
	}
	if r.timer.armed != 0 {
		t.Fatal("Expected no refresh before the window ends")
	}
	if !debounce.Pending() || PendingTimers() != 1 {
		t.Fatalf("Expected one pending refresh, pending=%v timers=%d", debounce.Pending(), PendingTimers())
	}

	// Bounce inside the window only mutates state
	SetTime(50000)
	d.Coarse(Down)
	if PendingTimers() != 1 {
		t.Errorf("Expected window not to be extended, got %d timers", PendingTimers())
	}

	SetTime(100999)
	ProcessTimers()
	if r.timer.armed != 0 {
		t.Error("Expected refresh to wait for the full window")
	}

	SetTime(101000)
	ProcessTimers()
	if r.timer.armed != 1 || !r.inputs.armed {
		t.Errorf("Expected one refresh at the end of the window, got %d", r.timer.armed)
	}
	if r.timer.counter != 39286 {
		t.Errorf("Expected both steps applied, got counter %d", r.timer.counter)
	}
	if debounce.Pending() {
		t.Error("Expected debounce idle after firing")
	}
}

func TestModeCycleInsideDebounceWindow(t *testing.T) {
	for _, refresh := range []bool{false, true} {
		r := newRig(t, nil)
		debounce := NewScheduledDebounce(100 * time.Millisecond)
		d := NewDispatcher(r.tuner, r.refresher, r.inputs, debounce, refresh)

		SetTime(1000)
		d.Coarse(Down)
		d.ModeCycle()

		if r.inputs.armed || r.inputs.arms != 0 {
			t.Errorf("refresh=%v: expected notifications masked for the window, got arms=%d", refresh, r.inputs.arms)
		}
		if r.timer.armed != 0 {
			t.Errorf("refresh=%v: expected no refresh inside the window, got %d", refresh, r.timer.armed)
		}
		if st := r.tuner.Snapshot(); st.StepMagnitude != 1000 {
			t.Errorf("refresh=%v: expected magnitude 1000, got %d", refresh, st.StepMagnitude)
		}

		SetTime(101000)
		ProcessTimers()
		if !r.inputs.armed || r.inputs.arms != 1 {
			t.Errorf("refresh=%v: expected one re-arm at the end of the window, got arms=%d", refresh, r.inputs.arms)
		}
		if r.timer.counter != 49286 {
			t.Errorf("refresh=%v: expected counter 49286, got %d", refresh, r.timer.counter)
		}
	}
}

func TestModeCycleAfterDebounceWindow(t *testing.T) {
	r := newRig(t, nil)
	debounce := NewScheduledDebounce(100 * time.Millisecond)
	d := NewDispatcher(r.tuner, r.refresher, r.inputs, debounce, false)

	d.ModeCycle()
	if !r.inputs.armed || r.inputs.arms != 1 {
		t.Errorf("Expected immediate re-arm with no window open, got arms=%d", r.inputs.arms)
	}
}

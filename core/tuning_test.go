package core

import (
	"sync"
	"testing"

	"frekvensgen/config"
)

func TestTunerBootState(t *testing.T) {
	tuner := NewTuner(config.DefaultConfig())
	st := tuner.Snapshot()

	if st.Reload != 59286 {
		t.Errorf("Expected reload 59286, got %d", st.Reload)
	}
	if st.PrescalerIndex != 1 || st.Divider != 8 {
		t.Errorf("Expected prescaler index 1 (divider 8), got %d (divider %d)", st.PrescalerIndex, st.Divider)
	}
	if st.StepMode != 0 || st.StepMagnitude != 10000 {
		t.Errorf("Expected step mode 0 (10000), got %d (%d)", st.StepMode, st.StepMagnitude)
	}
	if tuner.Reload() != st.Reload {
		t.Errorf("Expected atomic reload %d, got %d", st.Reload, tuner.Reload())
	}
}

func TestCycleStepModeSequence(t *testing.T) {
	tuner := NewTuner(config.DefaultConfig())

	want := []uint16{1000, 100, 10, 1, 10000}
	for i, w := range want {
		mode, magnitude := tuner.CycleStepMode()
		if magnitude != w {
			t.Errorf("Cycle %d: expected magnitude %d, got %d", i+1, w, magnitude)
		}
		if mode != uint8((i+1)%5) {
			t.Errorf("Cycle %d: expected mode %d, got %d", i+1, (i+1)%5, mode)
		}
	}
}

func TestCycleStepModeIdentity(t *testing.T) {
	tuner := NewTuner(config.DefaultConfig())

	for start := 0; start < 5; start++ {
		before := tuner.Snapshot()
		for i := 0; i < 5; i++ {
			tuner.CycleStepMode()
		}
		after := tuner.Snapshot()
		if before != after {
			t.Errorf("Expected five cycles to be the identity, %+v became %+v", before, after)
		}
		tuner.CycleStepMode()
	}
}

func TestAdjustPrescalerClamp(t *testing.T) {
	tuner := NewTuner(config.DefaultConfig())

	for i := 0; i < 10; i++ {
		tuner.AdjustPrescaler(Increment)
	}
	if st := tuner.Snapshot(); st.PrescalerIndex != 4 || st.Divider != 1024 {
		t.Errorf("Expected clamp at index 4 (1024), got %d (%d)", st.PrescalerIndex, st.Divider)
	}

	for i := 0; i < 10; i++ {
		tuner.AdjustPrescaler(Decrement)
	}
	if st := tuner.Snapshot(); st.PrescalerIndex != 0 || st.Divider != 1 {
		t.Errorf("Expected clamp at index 0 (1), got %d (%d)", st.PrescalerIndex, st.Divider)
	}

	if index := tuner.AdjustPrescaler(Reset); index != 2 {
		t.Errorf("Expected reset to index 2, got %d", index)
	}
	if st := tuner.Snapshot(); st.Divider != 64 {
		t.Errorf("Expected divider 64 after reset, got %d", st.Divider)
	}
}

func TestTunerFullTables(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Prescalers = make([]uint16, config.MaxTableLen)
	cfg.StepMagnitudes = make([]uint16, config.MaxTableLen)
	for i := range cfg.Prescalers {
		cfg.Prescalers[i] = uint16(i + 1)
		cfg.StepMagnitudes[i] = uint16(i + 1)
	}
	cfg.DefaultStepMode = 255
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config invalid: %v", err)
	}

	tuner := NewTuner(cfg)
	if st := tuner.Snapshot(); st.StepMode != 255 {
		t.Errorf("Expected boot step mode 255, got %d", st.StepMode)
	}
	if mode, magnitude := tuner.CycleStepMode(); mode != 0 || magnitude != 1 {
		t.Errorf("Expected wrap to mode 0 (1), got %d (%d)", mode, magnitude)
	}

	if got := tuner.AdjustPrescaler(Increment); got != 2 {
		t.Errorf("Expected increment from 1 to 2, got %d", got)
	}
	for i := 0; i < 300; i++ {
		tuner.AdjustPrescaler(Increment)
	}
	if got := tuner.Snapshot().PrescalerIndex; got != 255 {
		t.Errorf("Expected clamp at 255, got %d", got)
	}
}

func TestAdjustReload(t *testing.T) {
	tests := []struct {
		name   string
		wrap   bool
		start  uint16
		mode   int // number of CycleStepMode calls
		dir    Direction
		expect uint16
	}{
		{"down by 10000", false, 59286, 0, Down, 49286},
		{"up saturates", false, 59286, 0, Up, 65535},
		{"down saturates", false, 5000, 0, Down, 0},
		{"up by 1", false, 59286, 4, Up, 59287},
		{"down by 100", false, 59286, 2, Down, 59186},
		{"up wraps", true, 59286, 0, Up, 3750},
		{"down wraps", true, 5000, 0, Down, 60536},
		{"wrap in range", true, 59286, 1, Up, 60286},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.ReloadWrap = tt.wrap
			cfg.DefaultReload = tt.start
			tuner := NewTuner(cfg)
			for i := 0; i < tt.mode; i++ {
				tuner.CycleStepMode()
			}

			if got := tuner.AdjustReload(tt.dir); got != tt.expect {
				t.Errorf("Expected reload %d, got %d", tt.expect, got)
			}
			if got := tuner.Reload(); got != tt.expect {
				t.Errorf("Expected published reload %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestAdjustReloadCustomBounds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ReloadMin = 1000
	cfg.ReloadMax = 60000
	tuner := NewTuner(cfg)

	if got := tuner.AdjustReload(Up); got != 60000 {
		t.Errorf("Expected saturation at 60000, got %d", got)
	}
	for i := 0; i < 7; i++ {
		tuner.AdjustReload(Down)
	}
	if got := tuner.Reload(); got != 1000 {
		t.Errorf("Expected saturation at 1000, got %d", got)
	}
}

func TestTunerConcurrentTransitions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DefaultReload = 30000
	cfg.DefaultStepMode = 4 // magnitude 1
	tuner := NewTuner(cfg)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		dir := Up
		if g%2 == 0 {
			dir = Down
		}
		wg.Add(1)
		go func(dir Direction) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				tuner.AdjustReload(dir)
				tuner.Snapshot()
			}
		}(dir)
	}
	wg.Wait()

	if got := tuner.Reload(); got != 30000 {
		t.Errorf("Expected balanced steps to return to 30000, got %d", got)
	}
}

func TestDirectionAndDeltaNames(t *testing.T) {
	if Up.String() != "up" || Down.String() != "down" {
		t.Errorf("Unexpected direction names: %s, %s", Up, Down)
	}
	if Increment.String() != "increment" || Reset.String() != "reset" || Decrement.String() != "decrement" {
		t.Errorf("Unexpected delta names: %s, %s, %s", Increment, Reset, Decrement)
	}
	if PrescalerDelta(9).String() != "unknown" {
		t.Errorf("Expected 'unknown', got %s", PrescalerDelta(9))
	}
}

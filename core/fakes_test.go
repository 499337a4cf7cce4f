package core

import (
	"strings"
	"testing"
	"time"

	"frekvensgen/config"
)

// fakeDisplay renders into a character grid
type fakeDisplay struct {
	grid     [4][20]byte
	row, col uint8
	moves    int
	writes   int
}

func newFakeDisplay() *fakeDisplay {
	d := &fakeDisplay{}
	for r := range d.grid {
		for c := range d.grid[r] {
			d.grid[r][c] = ' '
		}
	}
	return d
}

func (d *fakeDisplay) MoveCursor(row, col uint8) {
	d.row, d.col = row, col
	d.moves++
}

func (d *fakeDisplay) WriteChar(c byte) {
	if int(d.row) < len(d.grid) && int(d.col) < len(d.grid[0]) {
		d.grid[d.row][d.col] = c
	}
	d.col++
	d.writes++
}

func (d *fakeDisplay) WriteText(s string) {
	for i := 0; i < len(s); i++ {
		d.WriteChar(s[i])
	}
}

func (d *fakeDisplay) WriteInteger(v uint32) {
	d.WriteText(utoa(v))
}

func (d *fakeDisplay) Line(row int) string {
	return string(d.grid[row][:])
}

// fakeTimer records the hardware configuration
type fakeTimer struct {
	divider      uint16
	dividerIndex uint8
	counter      uint16
	counterSets  int
	armed        int
	dividerErr   error
	calls        []string
	guarded      []bool // critical section held at each SetCounter
}

func (t *fakeTimer) SetDivider(index uint8, divider uint16) error {
	t.dividerIndex = index
	t.divider = divider
	t.calls = append(t.calls, "divider")
	return t.dividerErr
}

func (t *fakeTimer) SetCounter(reload uint16) {
	held := !criticalMu.TryLock()
	if !held {
		criticalMu.Unlock()
	}
	t.guarded = append(t.guarded, held)
	t.counter = reload
	t.counterSets++
	t.calls = append(t.calls, "counter")
}

func (t *fakeTimer) ArmOverflow() {
	t.armed++
	t.calls = append(t.calls, "overflow")
}

// fakeInputs holds line levels; buttons idle high
type fakeInputs struct {
	levels   map[InputLine]bool
	armed    bool
	suspends int
	arms     int
}

func newFakeInputs() *fakeInputs {
	return &fakeInputs{
		levels: map[InputLine]bool{
			LineEncoderDir: false,
			LineFineUp:     true,
			LineFineReset:  true,
			LineFineDown:   true,
		},
		armed: true,
	}
}

func (f *fakeInputs) ReadLine(line InputLine) bool { return f.levels[line] }

func (f *fakeInputs) SuspendNotifications() {
	f.armed = false
	f.suspends++
}

func (f *fakeInputs) ArmNotifications() {
	f.armed = true
	f.arms++
}

// fakePin records output levels
type fakePin struct {
	levels []bool
}

func (p *fakePin) Set(high bool) { p.levels = append(p.levels, high) }

// noSleep replaces the blocking debounce delay
func noSleep(b *BlockingDebounce) *[]time.Duration {
	var slept []time.Duration
	b.sleep = func(d time.Duration) { slept = append(slept, d) }
	return &slept
}

// rig wires the core the way a platform does
type rig struct {
	cfg        *config.Config
	tuner      *Tuner
	model      *FrequencyModel
	lcd        *fakeDisplay
	timer      *fakeTimer
	inputs     *fakeInputs
	refresher  *Refresher
	dispatcher *Dispatcher
	slept      *[]time.Duration
}

func newRig(t *testing.T, cfg *config.Config) *rig {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	resetCoreState(t)

	r := &rig{
		cfg:    cfg,
		tuner:  NewTuner(cfg),
		model:  NewFrequencyModel(cfg.ClockRate, PrescalerTable(cfg.Prescalers)),
		lcd:    newFakeDisplay(),
		timer:  &fakeTimer{},
		inputs: newFakeInputs(),
	}
	r.refresher = NewRefresher(r.tuner, r.model, r.lcd, r.timer, r.inputs)

	debounce := NewBlockingDebounce(time.Duration(cfg.DebounceMS) * time.Millisecond)
	r.slept = noSleep(debounce)
	r.dispatcher = NewDispatcher(r.tuner, r.refresher, r.inputs, debounce, cfg.RefreshOnModeCycle)
	return r
}

// resetCoreState clears the package-level scheduler, clock and event ring
func resetCoreState(t *testing.T) {
	t.Helper()
	ResetTimers()
	SetTime(0)
	ClearEventRing()
	t.Cleanup(func() {
		ResetTimers()
		SetTime(0)
		ClearEventRing()
	})
}

func hasEvent(eventType uint8) bool {
	for _, evt := range RecentEvents() {
		if evt.Type == eventType {
			return true
		}
	}
	return false
}

func trimLine(s string) string {
	return strings.TrimRight(s, " ")
}

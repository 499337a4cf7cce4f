package sim

import (
	"fmt"
	"io"
	"sync"
	"time"

	"frekvensgen/config"
	"frekvensgen/core"
	"frekvensgen/protocol"
)

// Board wires the core to virtual hardware the way the firmware target
// wires it to the real thing. The board owns the core's clock: only one
// Board should run per process.
type Board struct {
	mu sync.Mutex // one handler at a time, like a single-core MCU

	Config *config.Config
	LCD    *LCD
	Timer  *Timer
	Inputs *Inputs
	Pin    *Pin

	Tuner      *core.Tuner
	Model      *core.FrequencyModel
	Emitter    *core.Emitter
	Refresher  *core.Refresher
	Dispatcher *core.Dispatcher
	Panel      *core.Panel
	Debounce   *core.ScheduledDebounce

	elapsed time.Duration
}

// NewBoard validates cfg and builds a board in its boot state
func NewBoard(cfg *config.Config) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := &Board{
		Config: cfg,
		LCD:    NewLCD(cfg.Cols, cfg.Rows),
		Timer:  NewTimer(cfg.ClockRate, cfg.Prescalers),
		Inputs: NewInputs(),
		Pin:    &Pin{},
	}

	core.ResetTimers()
	core.SetTime(0)
	core.TimerInit()

	b.Tuner = core.NewTuner(cfg)
	b.Model = core.NewFrequencyModel(cfg.ClockRate, core.PrescalerTable(cfg.Prescalers))
	b.Emitter = core.NewEmitter(b.Tuner, b.Timer, b.Pin)
	b.Refresher = core.NewRefresher(b.Tuner, b.Model, b.LCD, b.Timer, b.Inputs)
	b.Debounce = core.NewScheduledDebounce(time.Duration(cfg.DebounceMS) * time.Millisecond)
	b.Dispatcher = core.NewDispatcher(b.Tuner, b.Refresher, b.Inputs, b.Debounce, cfg.RefreshOnModeCycle)
	b.Panel = core.NewPanel(b.Dispatcher, b.Tuner, b.Model)

	b.Timer.OnOverflow(b.Emitter.OnOverflow)
	b.Inputs.Handle(b.Dispatcher.CoarseStep, b.Dispatcher.ModeCycle, b.Dispatcher.FineStep)

	return b, nil
}

// Start draws the boot readout and starts the counter
func (b *Board) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Dispatcher.Start()
}

// Step advances virtual time: the counter runs, then due scheduler
// entries (the debounced refresh) run as the main loop would.
func (b *Board) Step(d time.Duration) (overflows int, truncated bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	overflows, truncated = b.Timer.Advance(d)
	b.elapsed += d
	core.SetTime(core.GetTime() + core.TimerFromUS(uint32(d/time.Microsecond)))
	core.ProcessTimers()
	return overflows, truncated
}

// Elapsed returns the virtual time since NewBoard
func (b *Board) Elapsed() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.elapsed
}

// Settle steps past the debounce window so a pending refresh runs
func (b *Board) Settle() {
	b.Step(time.Duration(b.Config.DebounceMS)*time.Millisecond + time.Millisecond)
}

// TurnEncoder turns the encoder one detent
func (b *Board) TurnEncoder(clockwise bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Inputs.TurnEncoder(clockwise)
}

// PressMode presses the step-size button
func (b *Board) PressMode() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Inputs.PressMode()
}

// PressFine presses one of the fine-step buttons
func (b *Board) PressFine(line core.InputLine) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Inputs.PressFine(line)
}

// MeasureFrequency runs the board for window and returns the output
// frequency counted from the emitted edges. ok is false if the timer had
// to drop part of the window.
func (b *Board) MeasureFrequency(window time.Duration) (hz float64, ok bool) {
	before := b.Emitter.Edges()

	ok = true
	const slice = 10 * time.Millisecond
	for left := window; left > 0; left -= slice {
		d := slice
		if left < d {
			d = left
		}
		if _, truncated := b.Step(d); truncated {
			ok = false
		}
	}

	edges := b.Emitter.Edges() - before
	return float64(edges) / 2 / window.Seconds(), ok
}

// Serve runs the device end of the panel link on conn until it fails
func (b *Board) Serve(conn io.ReadWriter) error {
	output := protocol.NewScratchOutput()
	transport := protocol.NewTransport(output, b.Panel.Handle)
	transport.SetErrorCallback(func(err error) {
		core.DebugAsync("panel: " + err.Error())
	})

	b.mu.Lock()
	b.Panel.SetResponder(transport)
	b.mu.Unlock()

	fifo := protocol.NewFifoBuffer(protocol.MessageMax)
	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		fifo.Write(buf[:n])

		b.mu.Lock()
		data := fifo.Data()
		input := protocol.NewSliceInputBuffer(data)
		transport.Receive(input)
		fifo.Pop(len(data) - input.Available())
		reply := append([]byte(nil), output.Result()...)
		output.Reset()
		b.mu.Unlock()

		if len(reply) > 0 {
			if _, err := conn.Write(reply); err != nil {
				return err
			}
		}
	}
}

//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"frekvensgen/config"
	"frekvensgen/core"
	"frekvensgen/protocol"
)

var (
	// Buffers for communication
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	// Debug counters
	messagesReceived uint32
	messagesSent     uint32
	msgerrors        uint32

	// USB connection state tracking
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Clear any watchdog state left over from a previous reset
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	if err := InitUSB(); err != nil {
		return
	}
	InitDebugUART()

	UpdateSystemTime()
	core.TimerInit()

	cfg := config.DefaultConfig()
	cfg.LimitReload(maxPIOReload)

	tuner := core.NewTuner(cfg)
	model := core.NewFrequencyModel(cfg.ClockRate, core.PrescalerTable(cfg.Prescalers))
	signal := NewSignalPin(machine.Pin(cfg.Pins.Signal))

	lcd, err := NewLCD(cfg)
	if err != nil {
		core.DebugPrintln("[INIT] lcd: " + err.Error())
		halt()
	}

	inputs, err := NewPinInputs(cfg.Pins)
	if err != nil {
		core.DebugPrintln("[INIT] inputs: " + err.Error())
		halt()
	}

	// The overflow IRQ needs the emitter and the emitter needs the timer
	var emitter *core.Emitter
	timer, err := NewPIOOverflowTimer(pio.PIO0, 0, cfg.ClockRate, func() {
		emitter.OnOverflow()
	})
	if err != nil {
		core.DebugPrintln("[INIT] pio: " + err.Error())
		halt()
	}
	emitter = core.NewEmitter(tuner, timer, signal)

	refresher := core.NewRefresher(tuner, model, lcd, timer, inputs)
	debounce := core.NewScheduledDebounce(time.Duration(cfg.DebounceMS) * time.Millisecond)
	dispatcher := core.NewDispatcher(tuner, refresher, inputs, debounce, cfg.RefreshOnModeCycle)
	panel := core.NewPanel(dispatcher, tuner, model)

	// Create buffers
	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, panel.Handle)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
	})
	// ACKs go out as soon as they are framed
	transport.SetFlushCallback(func() {
		writeUSB()
	})
	panel.SetResponder(transport)

	// Boot readout, then start counting
	dispatcher.Start()

	go usbReaderLoop()

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			UpdateSystemTime()

			// Process incoming panel commands
			if inputBuffer.Available() > 0 {
				data := inputBuffer.Data()
				originalLen := len(data)
				inputBuf := protocol.NewSliceInputBuffer(data)

				transport.Receive(inputBuf)
				messagesReceived++

				// Remove consumed bytes from FIFO
				consumed := originalLen - inputBuf.Available()
				if consumed > 0 {
					inputBuffer.Pop(consumed)
				}
			}

			if len(outputBuffer.Result()) > 0 {
				writeUSB()
				messagesSent++
			}

			// Front panel notifications latched by the pin interrupts
			inputs.Poll(dispatcher)

			// Debounced refreshes
			core.ProcessTimers()
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// halt parks the firmware after a fatal init error
func halt() {
	for {
		time.Sleep(time.Second)
	}
}

// usbReaderLoop runs in a goroutine to continuously read USB data
func usbReaderLoop() {
	// Recover from panics to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(1 * time.Millisecond)
				continue
			}

			// First byte after a disconnect starts a fresh session
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				messagesReceived = 0
				messagesSent = 0
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				// Buffer full
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB writes available data from output buffer to USB
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			// Likely a disconnect; after several failures drop stale data
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	if written > 0 {
		consecutiveWriteFailures = 0
		outputBuffer.Reset()
	}
}

//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

var ErrDividerRange = errors.New("prescaler outside the PIO clock divider range")

// Counting program. The state machine stands in for the 16-bit timer: each
// PIO cycle is one prescaled tick, and one pass through the program is one
// overflow period. pull noblock re-copies X when the FIFO is empty, so the
// period repeats until the CPU pushes a new count.
//
//	0: pull noblock    ; OSR <- FIFO, or X when empty
//	1: out x, 32       ; X <- count
//	2: mov y, x
//	3: jmp y--, 3      ; y+1 cycles
//	4: irq set 0       ; overflow notification
//	   .wrap 4 -> 0
const (
	overflowOrigin   = 0
	overflowOverhead = 5 // cycles outside the counting loop

	// maxPIOReload is the highest reload the program can time exactly.
	// Shorter periods than overflowOverhead ticks do not exist.
	maxPIOReload = 65536 - overflowOverhead
)

func buildOverflowProgram() []uint16 {
	asm := pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, false).Encode(),                      // 0: pull noblock
		asm.Out(pio.OutDestX, 32).Encode(),                   // 1: out x, 32
		asm.Mov(pio.MovDestY, pio.MovSrcX).Encode(),          // 2: mov y, x
		asm.Jmp(overflowOrigin+3, pio.JmpYNZeroDec).Encode(), // 3: jmp y--, 3
		asm.IRQSet(false, 0).Encode(),                        // 4: irq set 0
	}
}

// PIOOverflowTimer implements core.OverflowTimer on a PIO state machine
type PIOOverflowTimer struct {
	block  *pio.PIO
	sm     pio.StateMachine
	offset uint8
	cfg    pio.StateMachineConfig

	clockRate uint32 // timer input clock being emulated
	lastCount uint32
	pushed    bool
}

// NewPIOOverflowTimer loads the counting program and routes its IRQ to
// onOverflow. clockRate is the input clock of the emulated timer.
func NewPIOOverflowTimer(block *pio.PIO, smNum uint8, clockRate uint32, onOverflow func()) (*PIOOverflowTimer, error) {
	t := &PIOOverflowTimer{
		block:     block,
		sm:        block.StateMachine(smNum),
		clockRate: clockRate,
	}

	t.sm.TryClaim()

	program := buildOverflowProgram()
	offset, err := block.AddProgram(program, overflowOrigin)
	if err != nil {
		return nil, err
	}
	t.offset = offset

	t.cfg = pio.DefaultStateMachineConfig()
	t.cfg.SetWrap(offset+uint8(len(program))-1, offset)
	t.cfg.SetOutShift(true, false, 32)

	err = block.SetInterrupt(0, pio.IRQS0, func(block, irqNum uint8, source pio.IRQSource) {
		onOverflow()
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetDivider stops the state machine and reprograms its clock divider so
// one PIO cycle lasts divider input clocks. ArmOverflow restarts it.
func (t *PIOOverflowTimer) SetDivider(index uint8, divider uint16) error {
	// clkdiv = cpu / (clockRate / divider), in 8.8 fixed point
	div := uint64(machine.CPUFrequency()) * 256 * uint64(divider) / uint64(t.clockRate)
	whole := div >> 8
	if whole == 0 || whole > 0xFFFF {
		return ErrDividerRange
	}

	t.sm.SetEnabled(false)
	t.cfg.SetClkDivIntFrac(uint16(whole), uint8(div))
	t.sm.Init(t.offset, t.cfg)
	t.pushed = false
	return nil
}

// SetCounter queues the loop count for the next period. Only a changed
// count is pushed; an unchanged period repeats from X. Reloads above
// maxPIOReload run at the overflowOverhead floor; main limits the config
// so the tuner never asks for one.
func (t *PIOOverflowTimer) SetCounter(reload uint16) {
	ticks := 65536 - uint32(reload)
	count := uint32(0)
	if ticks > overflowOverhead {
		count = ticks - overflowOverhead
	}
	if t.pushed && count == t.lastCount {
		return
	}

	if t.sm.IsTxFIFOFull() {
		t.sm.ClearFIFOs()
	}
	t.sm.TxPut(count)
	t.lastCount = count
	t.pushed = true
}

// ArmOverflow starts counting
func (t *PIOOverflowTimer) ArmOverflow() {
	t.sm.SetEnabled(true)
}

package core

import (
	"errors"

	"frekvensgen/protocol"
)

// ErrBadArgument is returned for a command argument outside its range
var ErrBadArgument = errors.New("command argument out of range")

// Responder frames a response on the panel link
type Responder interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer))
}

// Panel exposes the front panel over the panel link. Remote commands go
// through the same dispatcher transitions as the physical inputs, and
// each one is answered with a state report.
type Panel struct {
	registry   *CommandRegistry
	dispatcher *Dispatcher
	tuner      *Tuner
	model      *FrequencyModel
	out        Responder
}

// NewPanel creates the remote panel and registers its commands
func NewPanel(dispatcher *Dispatcher, tuner *Tuner, model *FrequencyModel) *Panel {
	p := &Panel{
		registry:   NewCommandRegistry(),
		dispatcher: dispatcher,
		tuner:      tuner,
		model:      model,
	}

	p.registry.Register(protocol.CmdGetState, "get_state", "", p.handleGetState)
	p.registry.Register(protocol.CmdCoarseStep, "coarse_step", "dir=%c", p.handleCoarseStep)
	p.registry.Register(protocol.CmdCycleStepMode, "cycle_step_mode", "", p.handleCycleStepMode)
	p.registry.Register(protocol.CmdFineStep, "fine_step", "delta=%c", p.handleFineStep)
	p.registry.Register(protocol.CmdDumpEvents, "dump_events", "", p.handleDumpEvents)

	// Response
	p.registry.Register(protocol.RspState, "state",
		"reload=%u prescaler_index=%c divider=%u step=%u hz=%u centi=%c", nil)

	return p
}

// SetResponder sets where state reports are sent
func (p *Panel) SetResponder(out Responder) {
	p.out = out
}

// Registry returns the panel's command table
func (p *Panel) Registry() *CommandRegistry {
	return p.registry
}

// Handle dispatches one decoded command. It has the signature of
// protocol.CommandHandler.
func (p *Panel) Handle(cmdID uint16, data *[]byte) error {
	if err := p.registry.Dispatch(cmdID, data); err != nil {
		return err
	}
	RecordEvent(EvtRemote, uint32(cmdID), 0)
	return nil
}

// Report builds a state report from a tuner snapshot
func (p *Panel) Report() protocol.StateReport {
	st := p.tuner.Snapshot()
	f := p.model.Compute(st.Reload, st.PrescalerIndex)
	return protocol.StateReport{
		Reload:         st.Reload,
		PrescalerIndex: st.PrescalerIndex,
		Divider:        st.Divider,
		StepMagnitude:  st.StepMagnitude,
		Hz:             f.Hz,
		Centi:          f.Centi,
	}
}

func (p *Panel) sendState() {
	if p.out == nil {
		return
	}
	report := p.Report()
	p.out.SendCommand(protocol.RspState, func(output protocol.OutputBuffer) {
		protocol.EncodeStateReport(output, report)
	})
}

func (p *Panel) handleGetState(data *[]byte) error {
	p.sendState()
	return nil
}

func (p *Panel) handleCoarseStep(data *[]byte) error {
	dir, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if dir > protocol.DirUp {
		return ErrBadArgument
	}

	p.dispatcher.Coarse(Direction(dir))
	p.sendState()
	return nil
}

func (p *Panel) handleCycleStepMode(data *[]byte) error {
	p.dispatcher.ModeCycle()
	p.sendState()
	return nil
}

func (p *Panel) handleFineStep(data *[]byte) error {
	delta, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if delta > protocol.DeltaDecrement {
		return ErrBadArgument
	}

	p.dispatcher.Fine(PrescalerDelta(delta))
	p.sendState()
	return nil
}

func (p *Panel) handleDumpEvents(data *[]byte) error {
	DumpEventRing()
	p.sendState()
	return nil
}

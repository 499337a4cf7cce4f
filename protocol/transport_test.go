package protocol

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"
)

func buildFrame(t *testing.T, seq uint8, cmdID uint16, args ...int32) []byte {
	t.Helper()
	payload := AppendVLQInt(nil, int32(cmdID))
	for _, a := range args {
		payload = AppendVLQInt(payload, a)
	}
	frame, err := AppendFrame(nil, seq, payload)
	if err != nil {
		t.Fatalf("AppendFrame failed: %v", err)
	}
	return frame
}

type recordedCommand struct {
	id  uint16
	arg uint32
}

func newTestTransport() (*Transport, *ScratchOutput, *[]recordedCommand) {
	output := NewScratchOutput()
	var got []recordedCommand
	transport := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		cmd := recordedCommand{id: cmdID}
		if cmdID == CmdCoarseStep {
			v, err := DecodeVLQUint(data)
			if err != nil {
				return err
			}
			cmd.arg = v
		}
		got = append(got, cmd)
		return nil
	})
	return transport, output, &got
}

func TestTransportReceiveAndAck(t *testing.T) {
	transport, output, got := newTestTransport()

	data := append(buildFrame(t, 0x10, CmdGetState), buildFrame(t, 0x11, CmdCoarseStep, DirUp)...)
	input := NewSliceInputBuffer(data)
	transport.Receive(input)

	if input.Available() != 0 {
		t.Errorf("Expected all input consumed, %d bytes left", input.Available())
	}
	if len(*got) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(*got))
	}
	if (*got)[0].id != CmdGetState || (*got)[1].id != CmdCoarseStep || (*got)[1].arg != DirUp {
		t.Errorf("Unexpected commands: %+v", *got)
	}

	ack1, _ := AppendFrame(nil, 0x11, nil)
	ack2, _ := AppendFrame(nil, 0x12, nil)
	if !bytes.Equal(output.Result(), append(ack1, ack2...)) {
		t.Errorf("Expected two ACKs, got %X", output.Result())
	}
}

func TestTransportPartialFrame(t *testing.T) {
	transport, _, got := newTestTransport()

	frame := buildFrame(t, 0x10, CmdGetState)
	input := NewSliceInputBuffer(frame[:3])
	transport.Receive(input)

	if len(*got) != 0 {
		t.Error("Expected no dispatch for a partial frame")
	}
	if input.Available() != 3 {
		t.Errorf("Expected partial frame to stay buffered, %d bytes left", input.Available())
	}
}

func TestTransportResyncAfterCorruption(t *testing.T) {
	transport, _, got := newTestTransport()

	bad := buildFrame(t, 0x10, CmdGetState)
	bad[2] ^= 0xFF // corrupt payload, CRC no longer matches
	data := append(bad, buildFrame(t, 0x10, CmdCycleStepMode)...)

	transport.Receive(NewSliceInputBuffer(data))

	if len(*got) != 1 || (*got)[0].id != CmdCycleStepMode {
		t.Errorf("Expected only the intact frame to dispatch, got %+v", *got)
	}
}

func TestTransportOutOfOrderSequence(t *testing.T) {
	transport, output, got := newTestTransport()

	transport.Receive(NewSliceInputBuffer(buildFrame(t, 0x13, CmdGetState)))

	if len(*got) != 0 {
		t.Error("Expected out-of-order frame to be ignored")
	}
	nak, _ := AppendFrame(nil, 0x10, nil)
	if !bytes.Equal(output.Result(), nak) {
		t.Errorf("Expected NAK with sequence 0x10, got %X", output.Result())
	}
}

func TestTransportHostReset(t *testing.T) {
	transport, _, got := newTestTransport()
	resets := 0
	transport.SetResetCallback(func() { resets++ })

	transport.Receive(NewSliceInputBuffer(buildFrame(t, 0x10, CmdGetState)))
	transport.Receive(NewSliceInputBuffer(buildFrame(t, 0x10, CmdGetState)))

	if resets != 1 {
		t.Errorf("Expected 1 reset callback, got %d", resets)
	}
	if len(*got) != 2 {
		t.Errorf("Expected both frames dispatched, got %d", len(*got))
	}
}

func TestTransportHandlerError(t *testing.T) {
	output := NewScratchOutput()
	handlerErr := errors.New("rejected")
	transport := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		return handlerErr
	})
	var reported error
	transport.SetErrorCallback(func(err error) { reported = err })

	transport.Receive(NewSliceInputBuffer(buildFrame(t, 0x10, CmdGetState)))

	if !errors.Is(reported, handlerErr) {
		t.Errorf("Expected handler error to be reported, got %v", reported)
	}
}

func TestSendCommandFrame(t *testing.T) {
	output := NewScratchOutput()
	transport := NewTransport(output, nil)

	transport.SendCommand(RspState, func(out OutputBuffer) {
		EncodeVLQUint(out, 42)
	})

	frame := output.Result()
	msgLen, err := checkFrame(frame)
	if err != nil {
		t.Fatalf("Response frame invalid: %v", err)
	}
	if msgLen != len(frame) {
		t.Errorf("Expected frame length %d, got %d", len(frame), msgLen)
	}
	payload := frame[MessageHeaderSize : msgLen-MessageTrailerSize]
	id, _ := DecodeVLQUint(&payload)
	arg, _ := DecodeVLQUint(&payload)
	if id != uint32(RspState) || arg != 42 {
		t.Errorf("Expected id=%d arg=42, got id=%d arg=%d", RspState, id, arg)
	}
}

func TestAppendFrameTooLong(t *testing.T) {
	if _, err := AppendFrame(nil, MessageDest, make([]byte, MessageLengthMax)); !errors.Is(err, ErrFrameTooLong) {
		t.Errorf("Expected ErrFrameTooLong, got %v", err)
	}
}

// serveDevice runs a device Transport on one end of a pipe
func serveDevice(conn net.Conn, handler CommandHandler) {
	output := NewScratchOutput()
	transport := NewTransport(output, handler)

	fifo := NewFifoBuffer(256)
	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		fifo.Write(buf[:n])

		data := fifo.Data()
		input := NewSliceInputBuffer(data)
		transport.Receive(input)
		fifo.Pop(len(data) - input.Available())

		if out := output.Result(); len(out) > 0 {
			if _, err := conn.Write(out); err != nil {
				return
			}
			output.Reset()
		}
	}
}

func TestHostTransportExchange(t *testing.T) {
	hostEnd, deviceEnd := net.Pipe()

	go serveDevice(deviceEnd, func(cmdID uint16, data *[]byte) error {
		return nil
	})

	host := NewHostTransport(hostEnd)
	defer host.Close()

	for i := 0; i < 20; i++ {
		if err := host.SendCommandWithTimeout(CmdGetState, nil, time.Second); err != nil {
			t.Fatalf("Command %d failed: %v", i, err)
		}
	}
	// 20 commands wrap the 4-bit sequence once
	if host.Sequence() != nextSeq(MessageDest+3) {
		t.Errorf("Expected sequence 0x%02X, got 0x%02X", nextSeq(MessageDest+3), host.Sequence())
	}
}

func TestHostTransportClosed(t *testing.T) {
	hostEnd, deviceEnd := net.Pipe()
	defer deviceEnd.Close()

	host := NewHostTransport(hostEnd)
	if err := host.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := host.ReceiveResponse(time.Second); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Expected ErrTransportClosed, got %v", err)
	}
}

// Package panel is the host-side client of the generator's panel link.
package panel

import (
	"errors"
	"fmt"
	"io"
	"time"

	"frekvensgen/host/serial"
	"frekvensgen/protocol"
)

var ErrNotConnected = errors.New("not connected to generator")

// DefaultTimeout bounds the wait for an ACK and for the state report
const DefaultTimeout = 2 * time.Second

// Client drives a generator remotely. Every command returns the state
// report the generator answers with.
type Client struct {
	transport *protocol.HostTransport
	timeout   time.Duration
}

// Connect opens device and starts a client on it
func Connect(device string) (*Client, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a port with a custom serial config
func ConnectWithConfig(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush serial port: %w", err)
	}

	c := NewClient(port)

	// Give the generator time to enumerate if it just powered on
	time.Sleep(100 * time.Millisecond)

	return c, nil
}

// NewClient starts a client on an open port
func NewClient(port io.ReadWriteCloser) *Client {
	return &Client{
		transport: protocol.NewHostTransport(port),
		timeout:   DefaultTimeout,
	}
}

// SetTimeout changes the ACK and response timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Close closes the connection
func (c *Client) Close() error {
	if c.transport == nil {
		return nil
	}
	err := c.transport.Close()
	c.transport = nil
	return err
}

// State reads the generator state
func (c *Client) State() (protocol.StateReport, error) {
	return c.exchange(protocol.CmdGetState, nil)
}

// CoarseStep moves the reload value by one step in the given direction
func (c *Client) CoarseStep(up bool) (protocol.StateReport, error) {
	dir := uint32(protocol.DirDown)
	if up {
		dir = protocol.DirUp
	}
	return c.exchange(protocol.CmdCoarseStep, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, dir)
	})
}

// CycleStepMode selects the next step magnitude
func (c *Client) CycleStepMode() (protocol.StateReport, error) {
	return c.exchange(protocol.CmdCycleStepMode, nil)
}

// FineStep changes the prescaler; delta is one of protocol.DeltaIncrement,
// protocol.DeltaReset or protocol.DeltaDecrement.
func (c *Client) FineStep(delta uint8) (protocol.StateReport, error) {
	if delta > protocol.DeltaDecrement {
		return protocol.StateReport{}, fmt.Errorf("invalid fine step delta %d", delta)
	}
	return c.exchange(protocol.CmdFineStep, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(delta))
	})
}

// DumpEvents asks the generator to print its event ring on its debug
// output
func (c *Client) DumpEvents() (protocol.StateReport, error) {
	return c.exchange(protocol.CmdDumpEvents, nil)
}

// exchange sends one command and waits for the state report
func (c *Client) exchange(cmdID uint16, args func(output protocol.OutputBuffer)) (protocol.StateReport, error) {
	if c.transport == nil {
		return protocol.StateReport{}, ErrNotConnected
	}

	if err := c.transport.SendCommandWithTimeout(cmdID, args, c.timeout); err != nil {
		return protocol.StateReport{}, err
	}

	deadline := time.Now().Add(c.timeout)
	for {
		msg, err := c.transport.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return protocol.StateReport{}, fmt.Errorf("no state report for command %d: %w", cmdID, err)
		}

		rspID, data, err := DecodeResponse(msg.Payload)
		if err != nil {
			return protocol.StateReport{}, err
		}
		if rspID != protocol.RspState {
			continue
		}

		report, err := protocol.DecodeStateReport(&data)
		if err != nil {
			return protocol.StateReport{}, fmt.Errorf("failed to decode state report: %w", err)
		}
		return report, nil
	}
}

// DecodeResponse splits a response payload into its ID and arguments
func DecodeResponse(payload []byte) (rspID uint16, data []byte, err error) {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode response ID: %w", err)
	}
	return uint16(id), payload, nil
}

// Format renders a report the way the generator's LCD shows it
func Format(r protocol.StateReport) string {
	return fmt.Sprintf("%d,%02d Hz  prescaler %d (index %d)  count %d  step %d",
		r.Hz, r.Centi, r.Divider, r.PrescalerIndex, r.Reload, r.StepMagnitude)
}

// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uart implements the gt511.Transport interface over a serial
// port using go.bug.st/serial.
package uart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gt511 "github.com/ZaparooProject/go-gt511"
	"github.com/ZaparooProject/go-gt511/internal/frame"
	"github.com/ZaparooProject/go-gt511/internal/syncutil"
	"go.bug.st/serial"
)

// chunkReadTimeout is the per-Read timeout on the serial port. The
// overall response deadline is enforced by the receive loop, so chunk
// reads stay short to keep the loop responsive.
const chunkReadTimeout = 50 * time.Millisecond

// Transport implements the gt511.Transport interface for UART
// communication. The GT-511C3 runs 8 data bits, no parity, one stop bit
// at 9600 baud out of the box.
type Transport struct {
	port        serial.Port
	portName    string
	baudRate    int
	deviceID    uint16
	readTimeout time.Duration
	mu          syncutil.Mutex
}

// Option configures a Transport before the port is opened
type Option func(*Transport)

// WithBaudRate sets the initial line speed (default 9600)
func WithBaudRate(baud int) Option {
	return func(t *Transport) {
		t.baudRate = baud
	}
}

// WithDeviceID sets the device ID used for framing and validated against
// response echoes (default 0x0001)
func WithDeviceID(id uint16) Option {
	return func(t *Transport) {
		t.deviceID = id
	}
}

// New creates a new UART transport and opens the port.
func New(portName string, opts ...Option) (*Transport, error) {
	t := &Transport{
		portName:    portName,
		baudRate:    gt511.DefaultBaudRate,
		deviceID:    frame.DefaultDeviceID,
		readTimeout: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}

	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(chunkReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	t.port = port
	return t, nil
}

// SendCommand sends one command frame and waits for the 12-byte response.
func (t *Transport) SendCommand(code uint16, parameter uint32) (*gt511.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil, gt511.NewTransportClosedError("SendCommand", t.portName)
	}

	if err := t.sendFrame(code, parameter); err != nil {
		return nil, err
	}

	return t.receiveResponse()
}

// SendCommandWithContext sends a command with context support. The
// underlying serial reads are bounded by the transport timeout; the
// context is checked before the exchange starts.
func (t *Transport) SendCommandWithContext(ctx context.Context, code uint16, parameter uint32) (*gt511.Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return t.SendCommand(code, parameter)
}

// SetTimeout sets the response timeout for subsequent commands
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", gt511.ErrInvalidParameter, timeout)
	}
	t.readTimeout = timeout
	return nil
}

// SetBaudRate reconfigures the open port to a new line speed
func (t *Transport) SetBaudRate(baud int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return gt511.NewTransportClosedError("SetBaudRate", t.portName)
	}

	err := t.port.SetMode(&serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("UART set baud rate %d failed: %w", baud, err)
	}
	t.baudRate = baud
	return nil
}

// BaudRate returns the current line speed
func (t *Transport) BaudRate() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baudRate
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	port := t.port
	t.port = nil
	if err := port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() gt511.TransportType {
	return gt511.TransportUART
}

// sendFrame writes one command frame and flushes it to the wire.
func (t *Transport) sendFrame(code uint16, parameter uint32) error {
	buf := frame.Build(t.deviceID, code, parameter)

	n, err := t.port.Write(buf)
	if err != nil {
		return fmt.Errorf("UART frame write failed: %w", err)
	} else if n != len(buf) {
		return gt511.NewTransportWriteError("sendFrame", t.portName)
	}

	return t.drainWithRetry("send frame")
}

// isInterruptedSystemCall checks if an error is caused by an interrupted
// system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry flushes the port, retrying on interrupted system calls
func (t *Transport) drainWithRetry(operation string) error {
	const maxRetries = 3
	delay := 2 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := t.port.Drain()
		if err == nil {
			return nil
		}
		if isInterruptedSystemCall(err) && attempt < maxRetries-1 {
			time.Sleep(delay)
			delay *= 2
			continue
		}
		return fmt.Errorf("UART %s drain failed: %w", operation, err)
	}

	return fmt.Errorf("UART %s drain failed after %d retries", operation, maxRetries)
}

// receiveResponse accumulates one 12-byte response frame under the
// configured deadline and decodes it. Stray bytes before the start
// marker are discarded, which resynchronizes the stream after a baud
// switch or a power glitch.
func (t *Transport) receiveResponse() (*gt511.Response, error) {
	deadline := time.Now().Add(t.readTimeout)

	buf := make([]byte, frame.Length)
	if err := t.readHeader(buf, deadline); err != nil {
		return nil, err
	}
	if err := t.readFull(buf[2:], deadline); err != nil {
		return nil, err
	}

	frm, err := frame.Parse(buf)
	if err != nil {
		switch {
		case errors.Is(err, frame.ErrChecksum):
			return nil, gt511.NewChecksumMismatchError("receiveResponse", t.portName)
		default:
			return nil, gt511.NewFrameCorruptedError("receiveResponse", t.portName)
		}
	}

	if frm.DeviceID != t.deviceID {
		return nil, gt511.NewDeviceIDMismatchError("receiveResponse", t.portName)
	}

	switch frm.Code {
	case gt511.ResponseAck:
		return &gt511.Response{Ack: true, Parameter: frm.Parameter}, nil
	case gt511.ResponseNack:
		return &gt511.Response{Ack: false, Parameter: frm.Parameter}, nil
	default:
		return nil, gt511.NewInvalidResponseError("receiveResponse", t.portName)
	}
}

// readHeader scans the byte stream for the two-byte response start marker
// and stores it at buf[0:2].
func (t *Transport) readHeader(buf []byte, deadline time.Time) error {
	one := make([]byte, 1)
	sawFirst := false

	for {
		if time.Now().After(deadline) {
			return gt511.NewTimeoutError("readHeader", t.portName)
		}

		n, err := t.port.Read(one)
		if err != nil {
			return fmt.Errorf("UART header read failed: %w", err)
		}
		if n == 0 {
			continue
		}

		switch {
		case !sawFirst && one[0] == frame.CommandStart1:
			sawFirst = true
		case sawFirst && one[0] == frame.CommandStart2:
			buf[0] = frame.CommandStart1
			buf[1] = frame.CommandStart2
			return nil
		case one[0] == frame.CommandStart1:
			// 0x55 0x55: stay armed on the second byte
		default:
			sawFirst = false
		}
	}
}

// readFull fills buf from the port before the deadline.
func (t *Transport) readFull(buf []byte, deadline time.Time) error {
	got := 0
	for got < len(buf) {
		if time.Now().After(deadline) {
			return gt511.NewTimeoutError("readFull", t.portName)
		}

		n, err := t.port.Read(buf[got:])
		if err != nil {
			return fmt.Errorf("UART body read failed: %w", err)
		}
		got += n
	}
	return nil
}

// Ensure Transport implements gt511.Transport
var _ gt511.Transport = (*Transport)(nil)

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

package gt511

import (
	"context"
	"time"

	"github.com/ZaparooProject/go-gt511/internal/syncutil"
)

// Transport defines the interface for communication with a GT-511C3
// sensor. The production implementation is transport/uart; MockTransport
// serves tests.
//
// A transport carries exactly one request/response exchange at a time.
// SendCommand blocks until the response frame arrives or the configured
// timeout elapses.
type Transport interface {
	// SendCommand sends one command frame and waits for the response
	SendCommand(code uint16, parameter uint32) (*Response, error)

	// SendCommandWithContext sends a command with context support
	SendCommandWithContext(ctx context.Context, code uint16, parameter uint32) (*Response, error)

	// Close closes the transport connection
	Close() error

	// SetTimeout sets the response timeout for the transport
	SetTimeout(timeout time.Duration) error

	// SetBaudRate reconfigures the line speed. Called after the device
	// acknowledges a ChangeBaudrate command, since the device switches
	// immediately after its ACK.
	SetBaudRate(baud int) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// Response is a decoded, checksum-verified response packet.
type Response struct {
	// Parameter is the 4-byte parameter field: a return value on ACK,
	// a device error code on NACK.
	Parameter uint32
	// Ack is true for an ACK response, false for a NACK.
	Ack bool
}

// ErrorCode returns the device error code of a NACK response.
func (r *Response) ErrorCode() uint32 {
	if r.Ack {
		return 0
	}
	return r.Parameter
}

// AckResponse builds an ACK response carrying parameter. Test helper.
func AckResponse(parameter uint32) *Response {
	return &Response{Ack: true, Parameter: parameter}
}

// NackResponse builds a NACK response carrying a device error code.
// Test helper.
func NackResponse(code uint32) *Response {
	return &Response{Ack: false, Parameter: code}
}

// MockTransport provides a mock implementation of Transport for testing.
// Responses are queued per command code so multi-step sequences (capture
// polling, enrollment) can be scripted; the last queued response for a
// code is sticky.
type MockTransport struct {
	responses  map[uint16][]*Response
	errorMap   map[uint16]error
	callCount  map[uint16]int
	sentParams map[uint16][]uint32
	timeout    time.Duration
	delay      time.Duration
	baudRate   int
	mu         syncutil.RWMutex
	connected  bool
	baudErr    error
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		connected:  true,
		timeout:    time.Second,
		baudRate:   DefaultBaudRate,
		responses:  make(map[uint16][]*Response),
		errorMap:   make(map[uint16]error),
		callCount:  make(map[uint16]int),
		sentParams: make(map[uint16][]uint32),
	}
}

// SendCommand implements Transport
func (m *MockTransport) SendCommand(code uint16, parameter uint32) (*Response, error) {
	m.mu.RLock()
	connected := m.connected
	delay := m.delay
	m.mu.RUnlock()

	if !connected {
		return nil, NewTransportClosedError("SendCommand", "mock")
	}

	// Simulate hardware delay if configured
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount[code]++
	m.sentParams[code] = append(m.sentParams[code], parameter)

	if err, exists := m.errorMap[code]; exists {
		return nil, err
	}

	if queue, exists := m.responses[code]; exists && len(queue) > 0 {
		resp := queue[0]
		if len(queue) > 1 {
			m.responses[code] = queue[1:]
		}
		return resp, nil
	}

	// Unscripted commands default to a plain ACK
	return AckResponse(0), nil
}

// SendCommandWithContext implements Transport with context support
func (m *MockTransport) SendCommandWithContext(ctx context.Context, code uint16, parameter uint32) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	delay := m.delay
	m.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		// Delay already applied; avoid sleeping twice
		m.mu.Lock()
		m.delay = 0
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			m.delay = delay
			m.mu.Unlock()
		}()
	}

	return m.SendCommand(code, parameter)
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return nil
}

// SetTimeout implements Transport
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	m.timeout = timeout
	m.mu.Unlock()
	return nil
}

// SetBaudRate implements Transport
func (m *MockTransport) SetBaudRate(baud int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baudErr != nil {
		return m.baudErr
	}
	m.baudRate = baud
	return nil
}

// IsConnected implements Transport
func (m *MockTransport) IsConnected() bool {
	m.mu.RLock()
	connected := m.connected
	m.mu.RUnlock()
	return connected
}

// Type implements Transport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Test helper methods

// SetResponse configures a single sticky response for a command code
func (m *MockTransport) SetResponse(code uint16, resp *Response) {
	m.mu.Lock()
	m.responses[code] = []*Response{resp}
	m.mu.Unlock()
}

// QueueResponses configures a sequence of responses for a command code.
// The final response remains sticky once the queue drains.
func (m *MockTransport) QueueResponses(code uint16, resps ...*Response) {
	m.mu.Lock()
	m.responses[code] = append([]*Response{}, resps...)
	m.mu.Unlock()
}

// SetError configures an error to be returned for a command code
func (m *MockTransport) SetError(code uint16, err error) {
	m.mu.Lock()
	m.errorMap[code] = err
	m.mu.Unlock()
}

// ClearError removes error injection for a command code
func (m *MockTransport) ClearError(code uint16) {
	m.mu.Lock()
	delete(m.errorMap, code)
	m.mu.Unlock()
}

// SetBaudRateError makes SetBaudRate fail, simulating a port that cannot
// be reconfigured after the device has already switched speed
func (m *MockTransport) SetBaudRateError(err error) {
	m.mu.Lock()
	m.baudErr = err
	m.mu.Unlock()
}

// SetDelay configures a delay to simulate hardware response time
func (m *MockTransport) SetDelay(delay time.Duration) {
	m.mu.Lock()
	m.delay = delay
	m.mu.Unlock()
}

// GetCallCount returns how many times a command was sent
func (m *MockTransport) GetCallCount(code uint16) int {
	m.mu.RLock()
	count := m.callCount[code]
	m.mu.RUnlock()
	return count
}

// SentParameters returns the parameters sent with each invocation of a
// command, in order
func (m *MockTransport) SentParameters(code uint16) []uint32 {
	m.mu.RLock()
	params := append([]uint32{}, m.sentParams[code]...)
	m.mu.RUnlock()
	return params
}

// BaudRate returns the current mock line speed
func (m *MockTransport) BaudRate() int {
	m.mu.RLock()
	baud := m.baudRate
	m.mu.RUnlock()
	return baud
}

// Reset clears all scripted responses, counters and state
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.responses = make(map[uint16][]*Response)
	m.errorMap = make(map[uint16]error)
	m.callCount = make(map[uint16]int)
	m.sentParams = make(map[uint16][]uint32)
	m.connected = true
	m.baudErr = nil
	m.mu.Unlock()
}

// Ensure MockTransport implements Transport
var _ Transport = (*MockTransport)(nil)

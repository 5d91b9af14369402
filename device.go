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
	"errors"
	"fmt"
	"time"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures capture polling and connection retries
	RetryConfig *RetryConfig
	// Timeout is the response timeout for each transaction
	Timeout time.Duration
	// BaudRate is the line speed the sensor is expected to run at
	BaudRate int
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     1 * time.Second,
		BaudRate:    DefaultBaudRate,
	}
}

// Device represents a GT-511C3 fingerprint sensor session.
//
// Thread Safety: Device is NOT thread-safe. The protocol is a single
// request/response channel, so all methods must be called from a single
// goroutine or protected with external synchronization. A Close racing an
// in-flight transaction is outside the safety contract: the transport's
// own lock keeps the port handle consistent, but the interrupted
// transaction may report an arbitrary transport error.
type Device struct {
	transport Transport
	config    *DeviceConfig
	opened    bool
	degraded  bool
}

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithTimeout sets the per-transaction response timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout %v", ErrInvalidParameter, timeout)
		}
		d.config.Timeout = timeout
		return nil
	}
}

// WithBaudRate sets the line speed the sensor is expected to run at
func WithBaudRate(baud int) Option {
	return func(d *Device) error {
		if baud < MinBaudRate || baud > MaxBaudRate {
			return fmt.Errorf("%w: %d", ErrInvalidBaudRate, baud)
		}
		d.config.BaudRate = baud
		return nil
	}
}

// WithRetryConfig sets the retry configuration used for capture polling
func WithRetryConfig(config *RetryConfig) Option {
	return func(d *Device) error {
		d.config.RetryConfig = config
		return nil
	}
}

// New creates a new GT-511C3 device over the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the response timeout for subsequent transactions
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// IsOpen returns true once Init or Open has succeeded and Close has not
// been called since
func (d *Device) IsOpen() bool {
	return d.opened && !d.degraded
}

// Init opens a session with the sensor and confirms it answers.
//
// The sensor remembers its last configured baud rate across power cycles,
// so a handshake failure at the configured rate is retried at the other
// common rate (9600 vs 115200); when the sensor answers there, it is
// switched over to the configured rate.
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext is Init with context support
func (d *Device) InitContext(ctx context.Context) error {
	if d.transport == nil || !d.transport.IsConnected() {
		return NewTransportClosedError("Init", "")
	}
	d.degraded = false

	if err := d.transport.SetTimeout(d.config.Timeout); err != nil {
		return fmt.Errorf("failed to set transport timeout: %w", err)
	}

	err := d.openSession(ctx)
	if err == nil {
		return nil
	}
	if !IsRetryable(err) && !errors.Is(err, ErrTransportTimeout) {
		return err
	}

	// No answer at the configured rate. Try the alternate rate and, if
	// the sensor is there, move it to the configured one.
	return d.recoverBaudRate(ctx, err)
}

// openSession performs the Open handshake and marks the session open.
func (d *Device) openSession(ctx context.Context) error {
	resp, err := d.transport.SendCommandWithContext(ctx, cmdOpen, 0)
	if err != nil {
		return fmt.Errorf("open handshake failed: %w", err)
	}
	if !resp.Ack {
		return NewDeviceError("Open", resp.ErrorCode())
	}
	d.opened = true
	return nil
}

// recoverBaudRate retries the handshake at the alternate line speed and
// switches the sensor back to the configured rate.
func (d *Device) recoverBaudRate(ctx context.Context, handshakeErr error) error {
	alternate := MaxBaudRate
	if d.config.BaudRate == MaxBaudRate {
		alternate = DefaultBaudRate
	}
	Debugf("no answer at %d baud, probing %d", d.config.BaudRate, alternate)

	if err := d.transport.SetBaudRate(alternate); err != nil {
		return fmt.Errorf("baud probe failed: %w", errors.Join(handshakeErr, err))
	}
	if err := d.openSession(ctx); err != nil {
		return fmt.Errorf("device not answering at %d or %d baud: %w",
			d.config.BaudRate, alternate, errors.Join(handshakeErr, err))
	}

	if err := d.ChangeBaudRate(d.config.BaudRate); err != nil {
		return fmt.Errorf("failed to restore %d baud: %w", d.config.BaudRate, err)
	}
	Debugf("sensor moved from %d to %d baud", alternate, d.config.BaudRate)
	return nil
}

// Close terminates the session and releases the transport. It is
// idempotent: closing an already-closed device is a no-op success. The
// Close command is sent best-effort; the port is released regardless.
func (d *Device) Close() error {
	if d.transport == nil || !d.transport.IsConnected() {
		d.opened = false
		return nil
	}

	if d.opened && !d.degraded {
		if _, err := d.transport.SendCommand(cmdClose, 0); err != nil {
			Debugf("close command failed: %v", err)
		}
	}
	d.opened = false
	d.degraded = false

	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// transact performs one request/response exchange. It enforces the
// session preconditions and converts a NACK into a DeviceError. No
// retries happen at this layer.
func (d *Device) transact(command string, code uint16, parameter uint32) (*Response, error) {
	return d.transactContext(context.Background(), command, code, parameter)
}

func (d *Device) transactContext(ctx context.Context, command string, code uint16, parameter uint32) (*Response, error) {
	if d.degraded {
		return nil, ErrSessionDegraded
	}
	if !d.opened {
		return nil, ErrNotOpen
	}

	resp, err := d.transport.SendCommandWithContext(ctx, code, parameter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	if !resp.Ack {
		return resp, NewDeviceError(command, resp.ErrorCode())
	}
	return resp, nil
}

// TransportFactory is a function type for creating transports
type TransportFactory func(path string, baud int) (Transport, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

type connectConfig struct {
	transportFactory  TransportFactory
	deviceOptions     []Option
	baudRate          int
	timeout           time.Duration
	connectionRetries int
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectTimeout sets the per-transaction timeout for the connection
func WithConnectTimeout(timeout time.Duration) ConnectOption {
	return func(c *connectConfig) error {
		c.timeout = timeout
		return nil
	}
}

// WithConnectBaudRate sets the line speed for the connection
func WithConnectBaudRate(baud int) ConnectOption {
	return func(c *connectConfig) error {
		if baud < MinBaudRate || baud > MaxBaudRate {
			return fmt.Errorf("%w: %d", ErrInvalidBaudRate, baud)
		}
		c.baudRate = baud
		return nil
	}
}

// WithTransportFactory sets the transport factory function. ConnectDevice
// has no default factory; wire in transport/uart:
//
//	gt511.ConnectDevice("/dev/ttyUSB0", gt511.WithTransportFactory(
//	    func(path string, baud int) (gt511.Transport, error) {
//	        return uart.New(path, uart.WithBaudRate(baud))
//	    }))
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithConnectionRetries sets the number of connection attempts
func WithConnectionRetries(maxAttempts int) ConnectOption {
	return func(c *connectConfig) error {
		if maxAttempts < 1 {
			return fmt.Errorf("%w: connection retries must be at least 1, got %d",
				ErrInvalidParameter, maxAttempts)
		}
		c.connectionRetries = maxAttempts
		return nil
	}
}

// ConnectDevice creates a transport for path, builds a Device on it and
// runs Init, retrying the whole sequence with backoff on transient
// failures.
func ConnectDevice(path string, opts ...ConnectOption) (*Device, error) {
	config := &connectConfig{
		baudRate:          DefaultBaudRate,
		timeout:           0,
		connectionRetries: DefaultConnectionRetries,
	}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}
	if config.transportFactory == nil {
		return nil, errors.New("transport factory not provided")
	}

	retryConfig := &RetryConfig{
		MaxAttempts:       config.connectionRetries,
		InitialBackoff:    ConnectionInitialBackoff,
		MaxBackoff:        ConnectionMaxBackoff,
		BackoffMultiplier: ConnectionBackoffMultiplier,
		Jitter:            ConnectionJitter,
		RetryTimeout:      ConnectionRetryTimeout,
	}

	var device *Device
	err := RetryWithConfig(context.Background(), retryConfig, func() error {
		transport, err := config.transportFactory(path, config.baudRate)
		if err != nil {
			return fmt.Errorf("failed to create transport for %s: %w", path, err)
		}

		opts := append([]Option{WithBaudRate(config.baudRate)}, config.deviceOptions...)
		device, err = New(transport, opts...)
		if err != nil {
			_ = transport.Close()
			return err
		}
		if config.timeout > 0 {
			if err := device.SetTimeout(config.timeout); err != nil {
				_ = transport.Close()
				return err
			}
		}
		if err := device.Init(); err != nil {
			_ = transport.Close()
			return fmt.Errorf("failed to initialize device: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d attempts: %w",
			config.connectionRetries, err)
	}

	return device, nil
}

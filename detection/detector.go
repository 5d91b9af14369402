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

// Package detection discovers GT-511C3 sensors on serial ports by
// probing candidate ports with an Open command and checking for a
// well-formed response frame.
package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/go-gt511/internal/frame"
	"go.bug.st/serial"
)

// Commands and rates used while probing. The sensor answers Open at
// whichever of the two factory rates it was left on.
const (
	openCommand uint16 = 0x01

	probeBaudLow  = 9600
	probeBaudHigh = 115200
)

// DeviceInfo represents a detected GT-511C3 sensor
type DeviceInfo struct {
	// Connection path (e.g., "/dev/ttyUSB0", "COM3")
	Path string
	// Baud rate the sensor answered at
	BaudRate int
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	return fmt.Sprintf("GT-511C3 at %s (%d baud)", d.Path, d.BaudRate)
}

// Options configures the detection behavior
type Options struct {
	// Ports to probe (empty = enumerate system serial ports)
	Paths []string
	// Device paths to explicitly ignore (e.g., ["/dev/ttyS0", "COM2"])
	IgnorePaths []string
	// Baud rates to try per port (empty = both factory rates)
	BaudRates []int
	// Per-port probe timeout
	ProbeTimeout time.Duration
}

// DefaultOptions returns sensible default detection options
func DefaultOptions() Options {
	return Options{
		BaudRates:    []int{probeBaudLow, probeBaudHigh},
		ProbeTimeout: 500 * time.Millisecond,
	}
}

// Errors
var (
	// ErrNoDevicesFound indicates no GT-511C3 sensors were detected
	ErrNoDevicesFound = errors.New("no GT-511C3 devices found")
	// ErrDetectionTimeout indicates detection timed out
	ErrDetectionTimeout = errors.New("detection timeout")
)

// IsPathIgnored reports whether path matches an ignore entry. Matching
// is case-insensitive because Windows COM names come back in mixed case.
func IsPathIgnored(path string, ignorePaths []string) bool {
	for _, ignored := range ignorePaths {
		if strings.EqualFold(path, ignored) {
			return true
		}
	}
	return false
}

// candidatePaths resolves the ports to probe from options or the system
func candidatePaths(opts *Options) ([]string, error) {
	paths := opts.Paths
	if len(paths) == 0 {
		listed, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
		}
		paths = listed
	}

	var filtered []string
	for _, path := range paths {
		if !IsPathIgnored(path, opts.IgnorePaths) {
			filtered = append(filtered, path)
		}
	}
	return filtered, nil
}

type probeResult struct {
	device DeviceInfo
	found  bool
}

// DetectAll probes candidate serial ports in parallel and returns every
// port where a GT-511C3 answered.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	paths, err := candidatePaths(opts)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoDevicesFound
	}

	rates := opts.BaudRates
	if len(rates) == 0 {
		rates = []int{probeBaudLow, probeBaudHigh}
	}
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultOptions().ProbeTimeout
	}

	results := make(chan probeResult, len(paths))
	for _, path := range paths {
		go func(p string) {
			results <- probePort(p, rates, timeout)
		}(path)
	}

	var devices []DeviceInfo
	for range paths {
		select {
		case res := <-results:
			if res.found {
				devices = append(devices, res.device)
			}
		case <-ctx.Done():
			return nil, ErrDetectionTimeout
		}
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

// Detect returns the first sensor found, for callers that only care
// about a single device.
func Detect(ctx context.Context, opts *Options) (*DeviceInfo, error) {
	devices, err := DetectAll(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &devices[0], nil
}

// probePort tries each baud rate on one port
func probePort(path string, rates []int, timeout time.Duration) probeResult {
	for _, baud := range rates {
		if probeAtBaud(path, baud, timeout) {
			return probeResult{device: DeviceInfo{Path: path, BaudRate: baud}, found: true}
		}
	}
	return probeResult{}
}

// probeAtBaud sends an Open frame and accepts any well-formed response
// frame as proof a sensor is listening. A NACK still proves the protocol.
func probeAtBaud(path string, baud int, timeout time.Duration) bool {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return false
	}
	defer func() { _ = port.Close() }()

	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		return false
	}
	_ = port.ResetInputBuffer()

	if _, err := port.Write(frame.Build(frame.DefaultDeviceID, openCommand, 0)); err != nil {
		return false
	}

	return readResponseFrame(port, timeout)
}

// readResponseFrame scans the port for one valid 12-byte frame before
// the deadline.
func readResponseFrame(port serial.Port, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, frame.Length)
	one := make([]byte, 1)
	sawFirst := false

	for time.Now().Before(deadline) {
		n, err := port.Read(one)
		if err != nil {
			return false
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
			if !readBody(port, buf[2:], deadline) {
				return false
			}
			_, err := frame.Parse(buf)
			return err == nil
		case one[0] == frame.CommandStart1:
			// consecutive 0x55 bytes, stay armed
		default:
			sawFirst = false
		}
	}
	return false
}

func readBody(port serial.Port, buf []byte, deadline time.Time) bool {
	got := 0
	for got < len(buf) {
		if time.Now().After(deadline) {
			return false
		}
		n, err := port.Read(buf[got:])
		if err != nil {
			return false
		}
		got += n
	}
	return true
}

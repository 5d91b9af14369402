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

package main

import (
	"context"
	"fmt"
	"time"

	gt511 "github.com/ZaparooProject/go-gt511"
	"github.com/ZaparooProject/go-gt511/detection"
	"github.com/ZaparooProject/go-gt511/transport/uart"
	"github.com/spf13/cobra"
)

var (
	portName string
	baudRate int
	timeout  time.Duration
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:   "gt511ctl",
	Short: "GT-511C3 fingerprint sensor tool",
	Long: `gt511ctl - A CLI tool for GT-511C3 optical fingerprint sensors.

Provides commands for device discovery, fingerprint enrollment,
identification, verification and template management.

Without --port the first detected sensor is used:
  gt511ctl detect
  gt511ctl --port /dev/ttyUSB0 enroll 0
  gt511ctl identify`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (empty = autodetect)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", gt511.DefaultBaudRate, "Baud rate")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", time.Second, "Per-command response timeout")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable protocol debug output")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if debug {
			gt511.SetDebugEnabled(true)
		}
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// connect opens the configured (or first detected) sensor and brings up
// a session.
func connect(ctx context.Context) (*gt511.Device, error) {
	path := portName
	if path == "" {
		info, err := detection.Detect(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("no sensor found, specify --port: %w", err)
		}
		path = info.Path
		baudRate = info.BaudRate
		fmt.Printf("using %s\n", info)
	}

	transport, err := uart.New(path, uart.WithBaudRate(baudRate))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	device, err := gt511.New(transport,
		gt511.WithTimeout(timeout),
		gt511.WithBaudRate(baudRate),
	)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	if err := device.InitContext(ctx); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("sensor did not respond on %s: %w", path, err)
	}

	return device, nil
}

// withDevice wraps a command body with connect/close handling
func withDevice(fn func(ctx context.Context, device *gt511.Device, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		device, err := connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = device.Close() }()
		return fn(ctx, device, args)
	}
}

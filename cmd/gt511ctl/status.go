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

	gt511 "github.com/ZaparooProject/go-gt511"
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the number of enrolled fingerprints",
	RunE: withDevice(func(_ context.Context, device *gt511.Device, _ []string) error {
		count, err := device.GetEnrollCount()
		if err != nil {
			return fmt.Errorf("enroll count failed: %w", err)
		}
		fmt.Printf("%d fingerprints enrolled\n", count)
		return nil
	}),
}

var ledCmd = &cobra.Command{
	Use:       "led on|off",
	Short:     "Switch the sensor backlight",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: withDevice(func(_ context.Context, device *gt511.Device, args []string) error {
		on := args[0] == "on"
		if err := device.SetLED(on); err != nil {
			return fmt.Errorf("set LED failed: %w", err)
		}
		return nil
	}),
}

var pressedCmd = &cobra.Command{
	Use:   "pressed",
	Short: "Check whether a finger is on the window",
	RunE: withDevice(func(_ context.Context, device *gt511.Device, _ []string) error {
		if err := device.SetLED(true); err != nil {
			return fmt.Errorf("set LED failed: %w", err)
		}
		defer func() { _ = device.SetLED(false) }()

		pressed, err := device.IsFingerPressed()
		if err != nil {
			return fmt.Errorf("finger check failed: %w", err)
		}
		if pressed {
			fmt.Println("finger pressed")
		} else {
			fmt.Println("no finger")
		}
		return nil
	}),
}

var baudCmd = &cobra.Command{
	Use:   "baud <rate>",
	Short: "Change the sensor baud rate",
	Long: `Change the sensor baud rate for the current session.

The sensor reverts to its stored rate on power cycle. Valid rates are
9600 to 115200.`,
	Args: cobra.ExactArgs(1),
	RunE: withDevice(func(_ context.Context, device *gt511.Device, args []string) error {
		rate, err := parseIntArg(args[0], "rate")
		if err != nil {
			return err
		}
		if err := device.ChangeBaudRate(rate); err != nil {
			return fmt.Errorf("baud change failed: %w", err)
		}
		fmt.Printf("sensor now at %d baud\n", rate)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(ledCmd)
	rootCmd.AddCommand(pressedCmd)
	rootCmd.AddCommand(baudCmd)
}

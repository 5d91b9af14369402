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
	"errors"
	"fmt"
	"strconv"

	gt511 "github.com/ZaparooProject/go-gt511"
	"github.com/spf13/cobra"
)

// parseIntArg parses a positional integer argument with a labeled error
func parseIntArg(arg, label string) (int, error) {
	value, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", label, arg, err)
	}
	return value, nil
}

var enrollCmd = &cobra.Command{
	Use:   "enroll <id>",
	Short: "Enroll a fingerprint at a template ID",
	Long: `Enroll a fingerprint at a template ID (0-199).

Enrollment captures the finger three times. Lift the finger off the
window between captures when prompted.`,
	Args: cobra.ExactArgs(1),
	RunE: withDevice(func(ctx context.Context, device *gt511.Device, args []string) error {
		id, err := parseIntArg(args[0], "template ID")
		if err != nil {
			return err
		}

		fmt.Printf("place finger on the sensor to enroll ID %d\n", id)
		fmt.Println("lift and replace the finger between the three captures")

		if err := device.EnrollWithContext(ctx, id); err != nil {
			var deviceErr *gt511.DeviceError
			if errors.As(err, &deviceErr) {
				if dup, ok := deviceErr.EnrolledID(); ok {
					return fmt.Errorf("finger already enrolled as ID %d", dup)
				}
			}
			return fmt.Errorf("enrollment failed: %w", err)
		}

		fmt.Printf("enrolled ID %d\n", id)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

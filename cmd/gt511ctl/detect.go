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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-gt511/detection"
	"github.com/spf13/cobra"
)

var detectTimeout time.Duration

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan serial ports for GT-511C3 sensors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		opts := detection.DefaultOptions()
		if portName != "" {
			opts.Paths = []string{portName}
		}
		opts.ProbeTimeout = detectTimeout

		devices, err := detection.DetectAll(ctx, &opts)
		if errors.Is(err, detection.ErrNoDevicesFound) {
			fmt.Println("no sensors found")
			return nil
		}
		if err != nil {
			return fmt.Errorf("detection failed: %w", err)
		}

		for _, device := range devices {
			fmt.Println(device)
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().DurationVar(&detectTimeout, "probe-timeout", 500*time.Millisecond, "Per-port probe timeout")
	rootCmd.AddCommand(detectCmd)
}

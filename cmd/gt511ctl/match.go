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

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Match the presented finger against all templates",
	RunE: withDevice(func(ctx context.Context, device *gt511.Device, _ []string) error {
		fmt.Println("place finger on the sensor")

		id, err := identifyWithPolling(ctx, device)
		if gt511.IsNoMatch(err) {
			fmt.Println("no match")
			return nil
		}
		if err != nil {
			return fmt.Errorf("identify failed: %w", err)
		}

		fmt.Printf("matched ID %d\n", id)
		return nil
	}),
}

// identifyWithPolling retries while no finger is on the window
func identifyWithPolling(ctx context.Context, device *gt511.Device) (int, error) {
	var id int
	err := gt511.RetryWithConfig(ctx, gt511.DefaultRetryConfig(), func() error {
		var err error
		id, err = device.IdentifyContext(ctx)
		return err
	})
	return id, err
}

var verifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Match the presented finger against one template ID",
	Args:  cobra.ExactArgs(1),
	RunE: withDevice(func(ctx context.Context, device *gt511.Device, args []string) error {
		id, err := parseIntArg(args[0], "template ID")
		if err != nil {
			return err
		}

		fmt.Println("place finger on the sensor")

		err = gt511.RetryWithConfig(ctx, gt511.DefaultRetryConfig(), func() error {
			return device.Verify(id)
		})
		if gt511.IsNoMatch(err) {
			fmt.Printf("finger does not match ID %d\n", id)
			return nil
		}
		if err != nil {
			return fmt.Errorf("verify failed: %w", err)
		}

		fmt.Printf("finger matches ID %d\n", id)
		return nil
	}),
}

var deleteAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one template, or all with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: withDevice(func(_ context.Context, device *gt511.Device, args []string) error {
		if deleteAll {
			if err := device.DeleteAll(); err != nil {
				return fmt.Errorf("delete all failed: %w", err)
			}
			fmt.Println("all templates deleted")
			return nil
		}

		if len(args) != 1 {
			return fmt.Errorf("template ID required unless --all is given")
		}
		id, err := parseIntArg(args[0], "template ID")
		if err != nil {
			return err
		}
		if err := device.Delete(id); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Printf("deleted ID %d\n", id)
		return nil
	}),
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete every stored template")

	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(deleteCmd)
}

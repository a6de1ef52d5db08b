// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package main

import (
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("busguard %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}

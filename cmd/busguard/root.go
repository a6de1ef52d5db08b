// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/busguard/busguard/internal/logging"
)

// Global flags available to all subcommands.
var logFormat string

// NewRootCmd creates the root command for the busguard CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "busguard",
		Short: "busguard - an inter-process messaging access control engine",
		Long: `busguard parses and evaluates D-Bus-style access control policy
text: a sequence of rules matching caller credentials and requested
actions to allow or deny verdicts.`,
	}

	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: json or text")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func rootLogger() *slog.Logger {
	return logging.Setup("busguard", version, logFormat, nil)
}

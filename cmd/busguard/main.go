// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

// Command busguard validates policy DSL text and evaluates access
// decisions against it from the command line.
package main

import (
	"errors"
	"log/slog"
	"os"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	err := NewRootCmd().Execute()
	switch {
	case err == nil:
		return
	case errors.Is(err, errDenied):
		os.Exit(1)
	default:
		slog.Error("busguard failed", "error", err)
		os.Exit(1)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/busguard/busguard/internal/policy"
	"github.com/busguard/busguard/internal/registryconfig"
	"github.com/busguard/busguard/internal/xdg"
	"github.com/busguard/busguard/pkg/errutil"
)

// defaultRegistryPath is where a registry is looked for when --registry is
// not given: $XDG_CONFIG_HOME/busguard/registry.yaml.
func defaultRegistryPath() string {
	return filepath.Join(xdg.ConfigDir(), "registry.yaml")
}

// validateConfig holds configuration for the validate command.
type validateConfig struct {
	registryPath string
}

// newValidateCmd creates the validate subcommand with all flags configured.
func newValidateCmd() *cobra.Command {
	cfg := &validateConfig{}

	cmd := &cobra.Command{
		Use:   "validate <policy-file>",
		Short: "Parse a policy file and report whether it is well-formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&cfg.registryPath, "registry", "", "action registry YAML (defaults to "+defaultRegistryPath()+" if present, else rejects action_name(...) predicates)")

	return cmd
}

func runValidate(cmd *cobra.Command, cfg *validateConfig, policyPath string) error {
	logger := rootLogger()

	if cfg.registryPath == "" {
		if _, err := os.Stat(defaultRegistryPath()); err == nil {
			cfg.registryPath = defaultRegistryPath()
		}
	}

	text, err := os.ReadFile(policyPath)
	if err != nil {
		return fmt.Errorf("reading policy file: %w", err)
	}

	var p *policy.Policy
	if cfg.registryPath != "" {
		registry, err := registryconfig.LoadRegistry(cfg.registryPath, cmd.Flags())
		if err != nil {
			return fmt.Errorf("loading action registry: %w", err)
		}
		p, err = policy.NewFull(string(text), registry)
		if err != nil {
			errutil.LogError(logger, "policy invalid", err)
			return err
		}
	} else {
		p, err = policy.New(string(text))
		if err != nil {
			errutil.LogError(logger, "policy invalid", err)
			return err
		}
	}
	defer p.Unref()

	cmd.Println("OK")
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/busguard/busguard/internal/dsl"
	"github.com/busguard/busguard/internal/policy"
	"github.com/busguard/busguard/internal/registryconfig"
	"github.com/busguard/busguard/pkg/errutil"
)

// errDenied signals a clean "deny" verdict, not a command failure — main
// still exits non-zero for it, but without logging it as an error.
var errDenied = errors.New("denied")

// checkConfig holds configuration for the check command.
type checkConfig struct {
	policyPath     string
	registryPath   string
	uid            uint32
	gid            uint32
	supplementary  string
	actionName     string
	argument       string
	hasArgument    bool
	defaultVerdict string
}

// newCheckCmd creates the check subcommand with all flags configured.
func newCheckCmd() *cobra.Command {
	cfg := &checkConfig{}

	cmd := &cobra.Command{
		Use:          "check",
		Short:        "Evaluate a credential and action against a policy file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.policyPath, "policy", "", "policy file (required)")
	cmd.Flags().StringVar(&cfg.registryPath, "registry", "", "action registry YAML (defaults to "+defaultRegistryPath()+" if present; required if the policy references action_name(...))")
	cmd.Flags().Uint32Var(&cfg.uid, "uid", 0, "caller uid")
	cmd.Flags().Uint32Var(&cfg.gid, "gid", 0, "caller primary gid")
	cmd.Flags().StringVar(&cfg.supplementary, "sup", "", "comma-separated supplementary gids")
	cmd.Flags().StringVar(&cfg.actionName, "action", "", "action name (required)")
	cmd.Flags().StringVar(&cfg.argument, "arg", "", "action argument, if the action takes one")
	cmd.Flags().BoolVar(&cfg.hasArgument, "has-arg", false, "treat --arg as present even when empty")
	cmd.Flags().StringVar(&cfg.defaultVerdict, "default", "deny", "verdict when no rule matches: allow or deny")

	_ = cmd.MarkFlagRequired("policy")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func runCheck(cmd *cobra.Command, cfg *checkConfig) error {
	requestID := ulid.Make().String()
	logger := rootLogger().With("request_id", requestID)

	if cfg.registryPath == "" {
		if _, err := os.Stat(defaultRegistryPath()); err == nil {
			cfg.registryPath = defaultRegistryPath()
		}
	}

	text, err := os.ReadFile(cfg.policyPath)
	if err != nil {
		return fmt.Errorf("reading policy file: %w", err)
	}

	var registry *dsl.ActionRegistry
	if cfg.registryPath != "" {
		registry, err = registryconfig.LoadRegistry(cfg.registryPath, cmd.Flags())
		if err != nil {
			return fmt.Errorf("loading action registry: %w", err)
		}
	}

	p, err := policy.NewFull(string(text), registry)
	if err != nil {
		errutil.LogError(logger, "policy invalid", err)
		return err
	}
	defer p.Unref()

	var actionID uint32
	if registry != nil {
		action, ok := registry.Lookup(cfg.actionName)
		if !ok {
			return fmt.Errorf("unknown action %q: not present in registry", cfg.actionName)
		}
		actionID = action.ID
	}

	sup, err := parseGIDList(cfg.supplementary)
	if err != nil {
		return fmt.Errorf("parsing --sup: %w", err)
	}

	defaultVerdict, err := parseVerdict(cfg.defaultVerdict)
	if err != nil {
		return err
	}

	var argument *string
	if cfg.hasArgument || cfg.argument != "" {
		arg := cfg.argument
		argument = &arg
	}

	opts := policy.EvalOptions{
		Credential: &policy.Credential{
			UID:               cfg.uid,
			GID:               cfg.gid,
			SupplementaryGIDs: sup,
		},
		ActionID:       actionID,
		Argument:       argument,
		DefaultVerdict: defaultVerdict,
	}

	verdict := policy.CheckInstrumented(p, opts)
	logger.Info("check complete",
		"uid", cfg.uid,
		"action", cfg.actionName,
		"verdict", verdict.String(),
	)
	cmd.Println(verdict.String())

	if verdict == policy.Deny {
		return errDenied
	}
	return nil
}

func parseGIDList(raw string) ([]uint32, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	gids := make([]uint32, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid gid %q: %w", part, err)
		}
		gids = append(gids, uint32(n))
	}
	return gids, nil
}

func parseVerdict(raw string) (policy.Verdict, error) {
	switch strings.ToLower(raw) {
	case "allow":
		return policy.Allow, nil
	case "deny":
		return policy.Deny, nil
	default:
		return policy.Deny, fmt.Errorf("invalid --default %q: must be allow or deny", raw)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckCommand_Allow(t *testing.T) {
	path := writePolicyFile(t, `user(1000) = allow`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", "--policy", path, "--uid", "1000", "--action", "noop"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "allow") {
		t.Errorf("expected allow verdict, got %q", buf.String())
	}
}

func TestCheckCommand_Deny(t *testing.T) {
	path := writePolicyFile(t, `user(1000) = allow`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", "--policy", path, "--uid", "2000", "--action", "noop"})

	err := cmd.Execute()
	if !errors.Is(err, errDenied) {
		t.Fatalf("Execute() error = %v, want errDenied", err)
	}
	if !strings.Contains(buf.String(), "deny") {
		t.Errorf("expected deny verdict printed, got %q", buf.String())
	}
}

func TestCheckCommand_RootBypass(t *testing.T) {
	path := writePolicyFile(t, `user(1000) = deny`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", "--policy", path, "--uid", "0", "--action", "noop"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "allow") {
		t.Errorf("root should bypass policy, got %q", buf.String())
	}
}

func TestCheckCommand_SupplementaryGroup(t *testing.T) {
	path := writePolicyFile(t, `group(100) = allow`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{
		"check", "--policy", path,
		"--uid", "2000", "--gid", "200", "--sup", "100,300",
		"--action", "noop",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "allow") {
		t.Errorf("expected allow via supplementary gid, got %q", buf.String())
	}
}

func TestCheckCommand_DefaultVerdictAllow(t *testing.T) {
	path := writePolicyFile(t, `user(9999) = deny`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{
		"check", "--policy", path,
		"--uid", "1000", "--action", "noop", "--default", "allow",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "allow") {
		t.Errorf("expected default allow verdict, got %q", buf.String())
	}
}

func TestCheckCommand_WithRegistryAndArgument(t *testing.T) {
	policyPath := writePolicyFile(t, `send_signal(SIGTERM) = allow`)
	registryPath := filepath.Join(t.TempDir(), "registry.yaml")
	registryYAML := `
actions:
  - name: send_signal
    id: 1
    takes_argument: true
`
	if err := os.WriteFile(registryPath, []byte(registryYAML), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{
		"check", "--policy", policyPath, "--registry", registryPath,
		"--uid", "1000", "--action", "send_signal", "--arg", "SIGTERM",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "allow") {
		t.Errorf("expected allow for matching signal argument, got %q", buf.String())
	}
}

func TestCheckCommand_UnknownActionInRegistry(t *testing.T) {
	policyPath := writePolicyFile(t, `user(1000) = allow`)
	registryPath := filepath.Join(t.TempDir(), "registry.yaml")
	registryYAML := `
actions:
  - name: connect
    id: 1
`
	if err := os.WriteFile(registryPath, []byte(registryYAML), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{
		"check", "--policy", policyPath, "--registry", registryPath,
		"--uid", "1000", "--action", "nonexistent",
	})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for action absent from registry")
	}
}

func TestCheckCommand_InvalidSupplementaryList(t *testing.T) {
	path := writePolicyFile(t, `user(1000) = allow`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"check", "--policy", path, "--uid", "1000", "--action", "noop", "--sup", "not-a-number"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for malformed --sup")
	}
}

func TestCheckCommand_InvalidDefaultVerdict(t *testing.T) {
	path := writePolicyFile(t, `user(1000) = allow`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"check", "--policy", path, "--uid", "1000", "--action", "noop", "--default", "maybe"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid --default value")
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busguard/busguard/internal/dsl"
	"github.com/busguard/busguard/internal/policy"
)

func TestNew_ValidText(t *testing.T) {
	p, err := policy.New("user(0) = allow")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestNew_BareVersionIsValidEmptyPolicy(t *testing.T) {
	p, err := policy.New("1")
	require.NoError(t, err)
	require.NotNil(t, p)
	defer p.Unref()

	verdict := policy.Check(p, policy.EvalOptions{
		Credential:     &policy.Credential{UID: 1000},
		DefaultVerdict: policy.Deny,
	})
	assert.Equal(t, policy.Deny, verdict, "an empty policy never matches, so the default verdict applies")
}

func TestNew_InvalidText(t *testing.T) {
	p, err := policy.New("user(")
	require.Error(t, err)
	assert.Nil(t, p)
}

func TestNewFull_CompilesActionPatterns(t *testing.T) {
	registry, err := dsl.NewActionRegistry([]dsl.Action{
		{Name: "send_signal", ID: 1, TakesArgument: true},
	})
	require.NoError(t, err)

	p, err := policy.NewFull("send_signal(SIG*) = allow", registry)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestRefAndUnref(t *testing.T) {
	p, err := policy.New("user(0) = allow")
	require.NoError(t, err)

	shared := p.Ref()
	assert.Same(t, p, shared)

	assert.False(t, p.Unref(), "first Unref of two refs should not report zero")
	assert.True(t, p.Unref(), "second Unref should report the count reached zero")
}

func TestRefUnref_NilSafe(t *testing.T) {
	var p *policy.Policy
	assert.Nil(t, p.Ref())
	assert.False(t, p.Unref())
}

func TestEqual_SameText(t *testing.T) {
	a, err := policy.New("user(1) & group(2) = allow")
	require.NoError(t, err)
	b, err := policy.New("group(2) & user(1) = allow")
	require.NoError(t, err)
	assert.True(t, policy.Equal(a, b))
}

func TestEqual_DifferentText(t *testing.T) {
	a, err := policy.New("user(1) = allow")
	require.NoError(t, err)
	b, err := policy.New("user(2) = allow")
	require.NoError(t, err)
	assert.False(t, policy.Equal(a, b))
}

func TestEqual_NilHandling(t *testing.T) {
	assert.True(t, policy.Equal(nil, nil))

	a, err := policy.New("user(1) = allow")
	require.NoError(t, err)
	assert.False(t, policy.Equal(a, nil))
	assert.False(t, policy.Equal(nil, a))
}

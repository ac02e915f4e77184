package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := domain.NewError(domain.ErrNoSuchPort, "src", "number", "")
	wrapped := fmt.Errorf("connect: %w", err)

	assert.ErrorIs(t, wrapped, domain.ErrNoSuchPort)
	assert.NotErrorIs(t, wrapped, domain.ErrNoSuchProcess)

	var pe *domain.Error
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, "src", pe.Process)
	assert.Equal(t, "number", pe.Port)
	assert.Equal(t, domain.ErrNoSuchPort, domain.KindOf(wrapped))
}

func TestError_CauseIsReachable(t *testing.T) {
	cause := errors.New("bad value")
	err := &domain.Error{Kind: domain.ErrInvalidConfiguration, Process: "snk", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Equal(t, "invalid configuration: snk: bad value", err.Error())
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *domain.Error
		want string
	}{
		{"kind only", domain.NewError(domain.ErrCyclicGraph, "", "", ""), "cyclic graph"},
		{"process", domain.NewError(domain.ErrNoSuchProcess, "src", "", ""), "no such process: src"},
		{"port with reason", domain.NewError(domain.ErrMissingRequiredConnection, "snk", "number", "required input"), "missing required connection: snk.number (required input)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Nil(t, domain.KindOf(errors.New("plain")))
	assert.Nil(t, domain.KindOf(nil))
}

func TestParseAddress(t *testing.T) {
	addr, err := domain.ParseAddress("mult.factor1")
	require.NoError(t, err)
	assert.Equal(t, domain.Address{Process: "mult", Port: "factor1"}, addr)

	addr, err = domain.ParseAddress("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "b.c", addr.Port)

	for _, bad := range []string{"", "noport", ".port", "proc."} {
		_, err := domain.ParseAddress(bad)
		assert.Error(t, err, bad)
	}
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnLifecycle: func(context.Context, *domain.LifecycleEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnLifecycle:   func(context.Context, *domain.LifecycleEvent) { calls = append(calls, "b") },
		OnGraphChange: func(context.Context, *domain.GraphEvent) { calls = append(calls, "graph") },
	}

	merged := a.Merge(b)
	merged.OnLifecycle(context.Background(), &domain.LifecycleEvent{})
	merged.OnGraphChange(context.Background(), &domain.GraphEvent{})
	merged.OnConnectionChange(context.Background(), &domain.ConnectionEvent{})

	assert.Equal(t, []string{"a", "b", "graph"}, calls)
}

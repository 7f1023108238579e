// Package testutil provides testing utilities for tap-typo
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// ObservedLogger returns a logger whose entries can be inspected by the test.
func ObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// NoSleep is a retry sleep function that returns immediately and records
// the requested delays.
type NoSleep struct {
	Delays []time.Duration
}

// Sleep records d and returns the context error, if any.
func (s *NoSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.Delays = append(s.Delays, d)
	return ctx.Err()
}

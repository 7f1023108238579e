// Package base provides the BaseConnector that tap-typo connectors embed.
// It holds the pieces every connector needs regardless of the remote it
// talks to: identity, the shared configuration section, a child logger,
// the retry policy derived from the reliability settings, a tracer and
// per-stream progress reporting.
//
// # Usage
//
// Connectors embed BaseConnector and call Initialize from their own
// Initialize:
//
//	type MySource struct {
//	    *base.BaseConnector
//	    // connector-specific fields
//	}
//
//	func NewMySource(cfg *config.MySourceConfig) *MySource {
//	    return &MySource{
//	        BaseConnector: base.NewBaseConnector("my-source", core.ConnectorTypeSource, "1.0.0"),
//	    }
//	}
//
// # Lifecycle
//
// 1. Create with NewBaseConnector
// 2. Initialize with Initialize()
// 3. Use throughout connector operations
// 4. Close with Close()
package base

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-typo/pkg/config"
	"github.com/ajitpratap0/tap-typo/pkg/connector/core"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/logger"
	"github.com/ajitpratap0/tap-typo/pkg/observability"
)

// BaseConnector provides common functionality for all connectors.
type BaseConnector struct {
	// Core fields
	name          string             // Unique connector identifier
	connectorType core.ConnectorType // Source
	version       string             // Connector version
	config        *config.BaseConfig // Shared configuration
	logger        *zap.Logger        // Structured logger

	tracer      *observability.ConnectorTracer
	retryPolicy *RetryPolicy

	// Counters across all streams of this run
	recordsProcessed int64
	streamsCompleted int64
	startedAt        time.Time

	closed     bool       // Shutdown flag
	closeMutex sync.Mutex // Protects close operation
}

// NewBaseConnector creates a new base connector with the specified name, type, and version.
// This should be called by connector implementations during construction.
func NewBaseConnector(name string, connectorType core.ConnectorType, version string) *BaseConnector {
	return &BaseConnector{
		name:          name,
		connectorType: connectorType,
		version:       version,
		logger:        logger.Get().With(zap.String("connector", name)),
		tracer:        observability.NewConnectorTracer(string(connectorType), name),
		retryPolicy:   DefaultRetryPolicy(),
	}
}

// Initialize validates the shared configuration and derives the retry
// policy from its reliability section. It must be called before use.
func (bc *BaseConnector) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if cfg == nil {
		return errors.New(errors.ErrorTypeConfig, "connector configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid connector configuration")
	}

	bc.config = cfg
	bc.startedAt = time.Now()

	policy := NewRetryPolicy(cfg.Reliability.RetryAttempts, cfg.Reliability.RetryDelay)
	if cfg.Reliability.RetryMultiplier > 0 {
		policy.Multiplier = cfg.Reliability.RetryMultiplier
	}
	if cfg.Reliability.MaxRetryDelay > 0 {
		policy.MaxDelay = cfg.Reliability.MaxRetryDelay
	}
	policy.RandomizeFactor = cfg.Reliability.RetryJitter
	bc.retryPolicy = policy

	bc.logger.Info("connector initialized",
		zap.String("type", string(bc.connectorType)),
		zap.String("version", bc.version),
		zap.Int("retry_attempts", policy.MaxAttempts),
		zap.Duration("retry_delay", policy.InitialDelay))

	return nil
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// Version returns the connector version
func (bc *BaseConnector) Version() string {
	return bc.version
}

// Metrics returns a snapshot of run counters.
func (bc *BaseConnector) Metrics() map[string]interface{} {
	m := map[string]interface{}{
		"name":              bc.name,
		"type":              string(bc.connectorType),
		"version":           bc.version,
		"records_processed": atomic.LoadInt64(&bc.recordsProcessed),
		"streams_completed": atomic.LoadInt64(&bc.streamsCompleted),
	}
	if !bc.startedAt.IsZero() {
		m["uptime_seconds"] = time.Since(bc.startedAt).Seconds()
	}
	return m
}

// Close marks the connector closed. Calling it twice is a no-op.
func (bc *BaseConnector) Close(_ context.Context) error {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()

	if bc.closed {
		return nil
	}
	bc.closed = true

	bc.logger.Info("connector closed",
		zap.Int64("records_processed", atomic.LoadInt64(&bc.recordsProcessed)),
		zap.Int64("streams_completed", atomic.LoadInt64(&bc.streamsCompleted)))
	return nil
}

// IsClosed reports whether Close has been called.
func (bc *BaseConnector) IsClosed() bool {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()
	return bc.closed
}

// NewProgressReporter starts progress tracking for one stream. The reporter
// feeds the connector's run counters.
func (bc *BaseConnector) NewProgressReporter(stream string) *ProgressReporter {
	pr := NewProgressReporter(bc.logger.With(zap.String("stream", stream)))
	pr.onProcessed = func(n int64) { atomic.AddInt64(&bc.recordsProcessed, n) }
	pr.onFinish = func() { atomic.AddInt64(&bc.streamsCompleted, 1) }
	return pr
}

// GetLogger returns the connector logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// GetConfig returns the shared configuration
func (bc *BaseConnector) GetConfig() *config.BaseConfig {
	return bc.config
}

// GetRetryPolicy returns the retry policy derived from the configuration
func (bc *BaseConnector) GetRetryPolicy() *RetryPolicy {
	return bc.retryPolicy
}

// GetTracer returns the connector tracer
func (bc *BaseConnector) GetTracer() *observability.ConnectorTracer {
	return bc.tracer
}

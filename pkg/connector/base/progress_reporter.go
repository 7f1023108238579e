package base

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ProgressReporter tracks and reports progress of a single stream sync.
// Reports are emitted inline, at most once per interval, so no goroutine
// is involved.
type ProgressReporter struct {
	logger *zap.Logger

	// Progress tracking
	totalRecords     int64
	processedRecords int64
	pages            int64
	startTime        time.Time
	lastReportTime   time.Time
	reportInterval   time.Duration

	now         func() time.Time
	onProcessed func(n int64)
	onFinish    func()
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(logger *zap.Logger) *ProgressReporter {
	now := time.Now()
	return &ProgressReporter{
		logger:         logger,
		startTime:      now,
		lastReportTime: now,
		reportInterval: 10 * time.Second,
		now:            time.Now,
	}
}

// SetTotal sets the total number of records the remote reports as available
func (pr *ProgressReporter) SetTotal(total int64) {
	atomic.StoreInt64(&pr.totalRecords, total)
}

// SetInterval changes how often progress is logged
func (pr *ProgressReporter) SetInterval(d time.Duration) {
	pr.reportInterval = d
}

// RecordPage counts one fetched page
func (pr *ProgressReporter) RecordPage() {
	atomic.AddInt64(&pr.pages, 1)
}

// IncrementProcessed increments the processed count and logs progress when
// the report interval has elapsed.
func (pr *ProgressReporter) IncrementProcessed(count int64) {
	atomic.AddInt64(&pr.processedRecords, count)
	if pr.onProcessed != nil {
		pr.onProcessed(count)
	}

	now := pr.now()
	if now.Sub(pr.lastReportTime) < pr.reportInterval {
		return
	}
	pr.lastReportTime = now
	pr.reportCurrentProgress()
}

// GetProgress returns current progress
func (pr *ProgressReporter) GetProgress() (processed int64, total int64) {
	return atomic.LoadInt64(&pr.processedRecords), atomic.LoadInt64(&pr.totalRecords)
}

// Pages returns the number of pages recorded
func (pr *ProgressReporter) Pages() int64 {
	return atomic.LoadInt64(&pr.pages)
}

// Throughput returns records per second since the reporter was created
func (pr *ProgressReporter) Throughput() float64 {
	elapsed := pr.now().Sub(pr.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&pr.processedRecords)) / elapsed
}

// Finish logs the final summary for the stream.
func (pr *ProgressReporter) Finish(phase string) time.Duration {
	elapsed := pr.now().Sub(pr.startTime)
	processed, total := pr.GetProgress()

	pr.logger.Info("stream sync completed",
		zap.String("phase", phase),
		zap.Int64("records", processed),
		zap.Int64("total_available", total),
		zap.Int64("pages", pr.Pages()),
		zap.Duration("duration", elapsed),
		zap.Float64("records_per_second", pr.Throughput()))

	if pr.onFinish != nil {
		pr.onFinish()
	}
	return elapsed
}

func (pr *ProgressReporter) reportCurrentProgress() {
	processed, total := pr.GetProgress()

	fields := []zap.Field{
		zap.Int64("processed", processed),
		zap.Int64("pages", pr.Pages()),
		zap.Float64("records_per_second", pr.Throughput()),
	}
	if total > 0 {
		fields = append(fields,
			zap.Int64("total", total),
			zap.Float64("percent", float64(processed)/float64(total)*100))
	}

	pr.logger.Info("sync progress", fields...)
}

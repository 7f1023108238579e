package typo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-typo/pkg/connector/base"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/metrics"
	"github.com/ajitpratap0/tap-typo/pkg/observability"
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

// Phase is the position of a stream sync in its state machine:
// INIT -> PAGING -> DONE | LIMIT_REACHED.
type Phase string

const (
	PhaseInit         Phase = "INIT"
	PhasePaging       Phase = "PAGING"
	PhaseDone         Phase = "DONE"
	PhaseLimitReached Phase = "LIMIT_REACHED"
)

// SyncOptions controls paging and record handling.
type SyncOptions struct {
	RecordsPerPage int
	// RecordLimit stops a stream after this many records; <= 0 is unlimited.
	RecordLimit int
	RFC3339     bool
}

// StreamResult summarizes one stream sync.
type StreamResult struct {
	StreamID string
	Phase    Phase
	Records  int64
	Pages    int
	Duration time.Duration
}

// Syncer drives the page-by-page sync of single streams.
type Syncer struct {
	api      *APIClient
	writer   protocol.Writer
	opts     SyncOptions
	logger   *zap.Logger
	tracer   *observability.ConnectorTracer
	progress func(stream string) *base.ProgressReporter
}

// SyncerOption customizes a Syncer.
type SyncerOption func(*Syncer)

// WithTracer traces each stream sync.
func WithTracer(tracer *observability.ConnectorTracer) SyncerOption {
	return func(s *Syncer) {
		s.tracer = tracer
	}
}

// WithProgress supplies the progress reporter used for each stream.
func WithProgress(factory func(stream string) *base.ProgressReporter) SyncerOption {
	return func(s *Syncer) {
		s.progress = factory
	}
}

// NewSyncer creates a syncer writing to w.
func NewSyncer(api *APIClient, w protocol.Writer, opts SyncOptions, logger *zap.Logger, options ...SyncerOption) *Syncer {
	s := &Syncer{
		api:    api,
		writer: w,
		opts:   opts,
		logger: logger.With(zap.String("component", "syncer")),
		tracer: observability.NewConnectorTracer("source", "typo"),
	}
	s.progress = func(stream string) *base.ProgressReporter {
		return base.NewProgressReporter(s.logger.With(zap.String("stream", stream)))
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// streamRun is the working state of one stream sync.
type streamRun struct {
	stream          *protocol.Stream
	entity          Entity
	state           *protocol.State
	cursor          *int64
	datetimeFormats map[string]string
	phase           Phase
	page            int
	emitted         int64
	progress        *base.ProgressReporter
}

// SyncStream emits stream to the writer, resuming after the bookmark held
// in state. It returns the updated state, which on error holds the last
// bookmark that was emitted.
func (s *Syncer) SyncStream(ctx context.Context, stream *protocol.Stream, state *protocol.State) (*protocol.State, *StreamResult, error) {
	run, err := s.newRun(stream, state)
	if err != nil {
		return state.Clone(), nil, err
	}

	err = s.tracer.Trace(ctx, "sync_stream", func(ctx context.Context) error {
		return s.run(ctx, run)
	})

	result := &StreamResult{
		StreamID: stream.TapStreamID,
		Phase:    run.phase,
		Records:  run.emitted,
		Pages:    run.page,
	}
	if err != nil {
		metrics.StreamsSynced.WithLabelValues("error").Inc()
		s.logger.Error("stream sync failed",
			zap.String("stream", stream.TapStreamID),
			zap.String("phase", string(run.phase)),
			zap.Int64("records", run.emitted),
			zap.Error(err))
		return run.state, result, errors.Wrap(err, errors.TypeOf(err), "stream sync failed").
			WithDetail(errors.DetailStream, stream.TapStreamID)
	}

	result.Duration = run.progress.Finish(string(run.phase))
	metrics.StreamsSynced.WithLabelValues(string(run.phase)).Inc()
	return run.state, result, nil
}

// newRun resets the per-stream working state and resolves the resume cursor.
func (s *Syncer) newRun(stream *protocol.Stream, state *protocol.State) (*streamRun, error) {
	entity, err := entityOf(stream)
	if err != nil {
		return nil, err
	}

	run := &streamRun{
		stream:          stream,
		entity:          entity,
		state:           state.Clone(),
		datetimeFormats: make(map[string]string),
		phase:           PhaseInit,
		progress:        s.progress(stream.TapStreamID),
	}

	if cursor, ok := run.state.Bookmark(stream.TapStreamID, RecordIDProperty); ok {
		run.cursor = &cursor
	}

	if s.opts.RFC3339 {
		for _, field := range stream.Schema.PropertyNames() {
			if format, ok := protocol.MetadataString(stream.FieldMetadata(field), MetadataDatetimeFormat); ok && format != "" {
				run.datetimeFormats[field] = format
			}
		}
	}

	return run, nil
}

func (s *Syncer) run(ctx context.Context, run *streamRun) error {
	stream := run.stream
	log := s.logger.With(zap.String("stream", stream.TapStreamID))

	if run.cursor != nil {
		log.Info("resuming stream", zap.Int64("after_record_id", *run.cursor))
	} else {
		log.Info("starting stream from the beginning")
	}

	if err := s.writer.WriteState(run.state); err != nil {
		return err
	}
	bookmarks := stream.BookmarkProperties
	if len(bookmarks) == 0 {
		bookmarks = []string{RecordIDProperty}
	}
	if err := s.writer.WriteSchema(stream.TapStreamID, stream.Schema, stream.KeyProperties, bookmarks); err != nil {
		return err
	}

	run.phase = PhasePaging
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeTimeout, "sync interrupted")
		}

		run.page++
		page, err := s.api.FetchPage(ctx, PageRequest{
			Entity:  run.entity,
			PerPage: s.opts.RecordsPerPage,
			Page:    run.page,
			After:   run.cursor,
		})
		if err != nil {
			return err
		}
		metrics.PagesFetched.WithLabelValues(stream.TapStreamID).Inc()
		run.progress.RecordPage()
		run.progress.SetTotal(page.TotalRecords)

		log.Debug("page fetched",
			zap.Int("page", run.page),
			zap.Int("records", len(page.Records)),
			zap.Bool("eof", page.EOF))

		for _, remote := range page.Records {
			record, err := EnrichRecord(remote, run.datetimeFormats)
			if err != nil {
				return err
			}
			if err := s.writer.WriteRecord(stream.TapStreamID, record); err != nil {
				return err
			}
			run.state.SetBookmark(stream.TapStreamID, RecordIDProperty, remote.ID)
			if err := s.writer.WriteState(run.state); err != nil {
				return err
			}

			run.emitted++
			metrics.RecordsEmitted.WithLabelValues(stream.TapStreamID).Inc()
			run.progress.IncrementProcessed(1)

			if s.opts.RecordLimit > 0 && run.emitted >= int64(s.opts.RecordLimit) {
				run.phase = PhaseLimitReached
				log.Info("record limit reached", zap.Int("limit", s.opts.RecordLimit))
				return nil
			}
		}

		if page.EOF {
			run.phase = PhaseDone
			return nil
		}
	}
}

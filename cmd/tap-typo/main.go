package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-typo/pkg/compression"
	"github.com/ajitpratap0/tap-typo/pkg/config"
	"github.com/ajitpratap0/tap-typo/pkg/connector/core"
	"github.com/ajitpratap0/tap-typo/pkg/connector/registry"
	"github.com/ajitpratap0/tap-typo/pkg/connector/sources/typo"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
	"github.com/ajitpratap0/tap-typo/pkg/logger"
	"github.com/ajitpratap0/tap-typo/pkg/metrics"
	"github.com/ajitpratap0/tap-typo/pkg/observability"
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

// runOptions holds the command line flags of the root command.
type runOptions struct {
	configFile  string
	stateFile   string
	catalogFile string
	discover    bool
	outputFile  string
	compression string
	logLevel    string
	metricsFile string
	trace       bool
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		logFailure(err)
		_ = logger.Sync()
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	root := &cobra.Command{
		Use:   "tap-typo",
		Short: "Extract Typo dataset and audit records as a SCHEMA/RECORD/STATE stream",
		Long: `tap-typo discovers the datasets and audits of a Typo account and syncs their
records to stdout, one JSON message per line, resuming from a saved state.

Example:
  tap-typo --config config.json --discover > catalog.json
  tap-typo --config config.json --catalog catalog.json --state state.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}

	root.Flags().StringVarP(&opts.configFile, "config", "c", "", "Path to the JSON or YAML configuration file (required)")
	root.Flags().StringVarP(&opts.stateFile, "state", "s", "", "Path to a state file to resume from")
	root.Flags().StringVar(&opts.catalogFile, "catalog", "", "Path to a catalog file selecting the streams to sync")
	root.Flags().BoolVarP(&opts.discover, "discover", "d", false, "Print the catalog of available streams and exit")
	root.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Write messages to this file instead of stdout")
	root.Flags().StringVar(&opts.compression, "compression", "", "Output compression (none, gzip, snappy, lz4, zstd, s2, deflate)")
	root.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the configuration")
	root.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write a Prometheus textfile snapshot here on exit")
	root.Flags().BoolVar(&opts.trace, "trace", false, "Export OpenTelemetry spans to stderr")
	_ = root.MarkFlagRequired("config")

	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := registry.GetConnectorInfo(typo.SourceName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tap-typo v%s\n", info.Version)
			fmt.Fprintf(out, "Connector: %s (%s)\n", info.Name, info.Description)
			fmt.Fprintf(out, "Capabilities: %v\n", info.Capabilities)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

// run executes discovery or a sync with the given options.
func run(ctx context.Context, opts *runOptions, stdout io.Writer) (err error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "configuration error").
			WithDetail("path", opts.configFile)
	}
	applyFlags(cfg, opts)

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	ctx = context.WithValue(ctx, logger.ConnectorKey, typo.SourceName)
	log := logger.WithContext(ctx).With(zap.String("component", "tap-typo-cli"))

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.Initialize(observability.TracingConfig{
			ServiceName:    "tap-typo",
			ServiceVersion: typo.Version,
			SamplingRate:   cfg.Observability.TracingSampleRate,
			Writer:         os.Stderr,
		})
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize tracing")
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		}()
	}

	if cfg.Observability.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.Observability.MetricsFile); err != nil {
				log.Warn("failed to write metrics file",
					zap.String("path", cfg.Observability.MetricsFile),
					zap.Error(err))
			}
		}()
	}

	source, err := registry.CreateSource(typo.SourceName, cfg)
	if err != nil {
		return err
	}
	if err := source.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := source.Close(context.Background()); cerr != nil {
			log.Warn("failed to close source", zap.Error(cerr))
		}
	}()

	out, err := openOutput(opts.outputFile, stdout, &cfg.Advanced)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to finalize output")
		}
	}()

	if opts.discover {
		return runDiscover(ctx, source, out)
	}
	return runSync(ctx, source, opts, out, log)
}

// applyFlags lets command line flags override the configuration file.
func applyFlags(cfg *config.TypoSourceConfig, opts *runOptions) {
	if opts.logLevel != "" {
		cfg.Observability.LogLevel = opts.logLevel
	}
	if opts.compression != "" {
		cfg.Advanced.CompressionAlgorithm = opts.compression
	}
	if opts.metricsFile != "" {
		cfg.Observability.MetricsFile = opts.metricsFile
	}
	if opts.trace {
		cfg.Observability.EnableTracing = true
	}
}

func runDiscover(ctx context.Context, source core.Source, out io.Writer) error {
	catalog, err := source.Discover(ctx)
	if err != nil {
		return err
	}
	data, err := jsonpool.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode catalog")
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write catalog")
	}
	logger.Info("discovery completed", zap.Int("streams", len(catalog.Streams)))
	return nil
}

func runSync(ctx context.Context, source core.Source, opts *runOptions, out io.Writer, log *zap.Logger) error {
	state, err := protocol.ReadState(opts.stateFile)
	if err != nil {
		return err
	}

	var catalog *protocol.Catalog
	if opts.catalogFile != "" {
		if catalog, err = protocol.ReadCatalog(opts.catalogFile); err != nil {
			return err
		}
	}

	start := time.Now()
	writer := protocol.NewJSONWriter(out)
	final, err := source.Sync(ctx, catalog, state, writer)
	if err != nil {
		return err
	}

	log.Info("sync completed",
		zap.Int64("messages", writer.Messages()),
		zap.Int("bookmarked_streams", len(final.Bookmarks)),
		zap.Duration("duration", time.Since(start)),
		zap.Any("source_metrics", source.Metrics()))
	return nil
}

// openOutput returns the message sink: stdout or a file, wrapped in the
// configured compression. Closing it never closes stdout. Compressing sinks
// expose Flush so every message reaches the destination when it is written.
func openOutput(path string, stdout io.Writer, adv *config.AdvancedConfig) (io.WriteCloser, error) {
	algorithm := compression.None
	if adv.IsCompressionEnabled() {
		var err error
		algorithm, err = compression.ParseAlgorithm(adv.CompressionAlgorithm)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
		}
	}

	if path == "" {
		return compression.NewWriter(stdout, algorithm, compression.LevelFromInt(adv.CompressionLevel))
	}

	file, err := os.Create(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	w, err := compression.NewWriter(file, algorithm, compression.LevelFromInt(adv.CompressionLevel))
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
	}
	return &fileOutput{WriteCloser: w, file: file}, nil
}

// fileOutput closes the compressor before the file underneath it.
type fileOutput struct {
	io.WriteCloser
	file *os.File
}

// Flush pushes compressed data written so far to the file.
func (f *fileOutput) Flush() error {
	if fl, ok := f.WriteCloser.(interface{ Flush() error }); ok {
		return fl.Flush()
	}
	return nil
}

func (f *fileOutput) Close() error {
	werr := f.WriteCloser.Close()
	ferr := f.file.Close()
	if werr != nil {
		return werr
	}
	return ferr
}

// logFailure records the error type and details before the process exits.
func logFailure(err error) {
	logger.Error("tap-typo failed",
		zap.String("error_type", string(errors.TypeOf(err))),
		zap.Any("details", errors.DetailsOf(err)),
		zap.Error(err))
}

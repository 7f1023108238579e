// Package connector is the framework the Typo source is built on.
//
// # Architecture Overview
//
// The connector package is organized into several sub-packages:
//
//   - core: Defines the Connector and Source interfaces. A source discovers a
//     catalog of streams and syncs selected streams to a protocol.Writer,
//     returning the updated state.
//
//   - base: Provides BaseConnector, which holds identity, configuration, a
//     child logger, the retry policy derived from the reliability settings, a
//     tracer and per-stream progress reporting. Sources embed it.
//
//   - sources: Contains the source implementations. sources/typo talks to the
//     Typo REST API.
//
//   - registry: Implements a factory pattern for connector lookup. Connectors
//     self-register from init.
//
// # Core Concepts
//
// Unified Configuration: every connector configuration embeds
// config.BaseConfig, which carries timeouts, reliability, observability and
// advanced settings.
//
// Resumability: sources emit a STATE after every RECORD. Restarting with the
// last STATE read by the consumer continues right after the last record it
// received.
//
// # Example Usage
//
//	cfg, err := config.Load("config.json")
//	if err != nil {
//		return err
//	}
//
//	source, err := registry.CreateSource("typo", cfg)
//	if err != nil {
//		return err
//	}
//	if err := source.Initialize(ctx); err != nil {
//		return err
//	}
//	defer source.Close(ctx)
//
//	state, err := source.Sync(ctx, nil, protocol.NewState(), protocol.NewJSONWriter(os.Stdout))
//
// # Best Practices
//
// 1. Always use BaseConnector as the foundation for new connectors
// 2. Use structured errors from the errors package
// 3. Log to the connector logger; stdout belongs to the message stream
// 4. Handle context cancellation properly
package connector

// Package taptypo is an extract connector for the Typo data quality API.
//
// tap-typo discovers the datasets and completed audits of a Typo account and
// emits their records to stdout as a stream of newline-delimited JSON
// messages (SCHEMA, RECORD and STATE) that a downstream loader consumes.
// Every RECORD is followed by a STATE carrying the last emitted record id, so
// an interrupted sync resumes exactly after the last record the loader saw.
//
// # Architecture
//
// The tap is organized in layers, each owning one concern:
//
//  1. HTTP Request Layer (pkg/clients): JSON requests with retries on
//     transient failures, gzip response decoding and request pacing.
//
//  2. Auth Manager (pkg/auth): bearer token acquisition and exactly one
//     transparent re-authentication on a 401.
//
//  3. Schema Inference and Catalog (pkg/connector/sources/typo): remote field
//     descriptors become nullable JSON schemas, key properties and metadata.
//
//  4. Sync Engine (pkg/connector/sources/typo): page-by-page fetching with a
//     record id cursor, per-stream record limits and RFC 3339 datetimes.
//
//  5. Protocol (pkg/protocol): message envelopes, catalog and state documents.
//
// # Quick Start
//
// Discover the available streams, select some, then sync:
//
//	tap-typo --config config.json --discover > catalog.json
//	tap-typo --config config.json --catalog catalog.json --state state.json > out.jsonl
//
// Without a catalog the stream addressed by the repository, dataset and
// optional audit_id of the configuration is synced.
//
// # Key Packages
//
//	pkg/connector    - Connector framework: core interfaces, base, registry
//	pkg/protocol     - SCHEMA/RECORD/STATE messages, catalog and state
//	pkg/clients      - HTTP client with retries
//	pkg/auth         - Token session
//	pkg/config       - Unified configuration management
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging to stderr
//	pkg/metrics      - Prometheus metrics
//	pkg/observability - OpenTelemetry tracing
//	pkg/compression  - Output compression
//
// # Configuration
//
//	{
//	  "cluster_api_endpoint": "https://typo.example.com",
//	  "api_key": "${TYPO_API_KEY}",
//	  "api_secret": "${TYPO_API_SECRET}",
//	  "repository": "sales",
//	  "dataset": "orders",
//	  "audit_id": 42,
//	  "records_per_page": 100,
//	  "record_limit": -1,
//	  "rfc3339_datetime": true
//	}
//
// Any key may be overridden from the environment with the TAP_TYPO_ prefix,
// e.g. TAP_TYPO_API_SECRET.
package taptypo

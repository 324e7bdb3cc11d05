// Package observability provides Prometheus metrics for the signal
// intelligence pipeline.
//
// Every pipeline stage reports through the Metrics collector: batch
// production, privacy scrubbing, oracle calls, governance transitions
// and audit writes.
package observability

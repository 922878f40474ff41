// Package observability builds the structured logger shared by the benchmark
// pipeline, its sinks and the telemetry sampler. Logging is zap-based; level
// and format come from the process configuration.
package observability

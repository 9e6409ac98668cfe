// Package telemetry provides logging, tracing, and metrics for oxbuild.
//
// The three concerns can be used independently or combined through the
// Telemetry struct, which wires them up from a single Config and travels
// on the context. Logging is zerolog, tracing is OpenTelemetry with
// stdout or OTLP export, and metrics are Prometheus served from an
// optional HTTP endpoint.
package telemetry

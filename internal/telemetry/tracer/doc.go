// Package tracer sets up OpenTelemetry tracing for VaultLink.
//
// Tracing is opt-in: without an OTLP endpoint New returns a provider whose
// spans are never exported, and the global tracer provider is left alone.
// Services obtain tracers through otel.Tracer and never import this package.
package tracer

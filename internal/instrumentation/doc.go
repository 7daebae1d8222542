// Package instrumentation provides OpenTelemetry instrumentation for
// calendar-agent.
//
// # Metrics
//
// Tool Metrics:
//   - tool_invocations_total: Counter of tool dispatches by tool name and status
//   - tool_duration_seconds: Histogram of tool execution durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Calendar API operations by operation and status
//   - google_api_operation_duration_seconds: Histogram of Calendar API operation durations
//
// Model Metrics:
//   - model_calls_total: Counter of language-model requests by model and status
//   - model_call_duration_seconds: Histogram of language-model request durations
//
// Search Metrics:
//   - search_requests_total: Counter of event searches by the pass that produced the result
//
// # Configuration
//
// Instrumentation is configured from the environment (see DefaultConfig):
//
//	INSTRUMENTATION_ENABLED=true
//	METRICS_EXPORTER=prometheus|otlp|stdout
//	TRACING_EXPORTER=otlp|stdout|none
//	OTEL_EXPORTER_OTLP_ENDPOINT=localhost:4318
//
// It is disabled by default: the chat session owns stdout, and a disabled
// Provider hands out a no-op Metrics recorder so callers never nil-check.
package instrumentation

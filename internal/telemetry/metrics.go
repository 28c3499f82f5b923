package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ToolCallOutcome is the result of a tool call, as recorded in metrics.
type ToolCallOutcome string

const (
	ToolCallOutcomeSuccess ToolCallOutcome = "success"
	// ToolCallOutcomeInvalid means the arguments were rejected before the engine was called.
	ToolCallOutcomeInvalid ToolCallOutcome = "invalid_arguments"
	ToolCallOutcomeError   ToolCallOutcome = "error"
)

// CustomMetrics records the application level metrics.
type CustomMetrics interface {
	// RecordToolCall records one tool call and how long it took.
	RecordToolCall(ctx context.Context, toolName string, outcome ToolCallOutcome, duration time.Duration)
	// AddActiveSessions adjusts the number of open MCP sessions by delta.
	AddActiveSessions(ctx context.Context, delta int64)
}

type noopCustomMetrics struct{}

// NewNoopCustomMetrics returns a CustomMetrics that records nothing.
func NewNoopCustomMetrics() CustomMetrics {
	return noopCustomMetrics{}
}

func (noopCustomMetrics) RecordToolCall(context.Context, string, ToolCallOutcome, time.Duration) {}

func (noopCustomMetrics) AddActiveSessions(context.Context, int64) {}

type otelCustomMetrics struct {
	toolCalls        metric.Int64Counter
	toolCallDuration metric.Float64Histogram
	activeSessions   metric.Int64UpDownCounter
}

// NewOtelCustomMetrics creates the metric instruments on the given meter.
func NewOtelCustomMetrics(meter metric.Meter) (CustomMetrics, error) {
	toolCalls, err := meter.Int64Counter(
		"neurelo_mcp_tool_calls_total",
		metric.WithDescription("Number of tool calls, by tool and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}
	toolCallDuration, err := meter.Float64Histogram(
		"neurelo_mcp_tool_call_duration_seconds",
		metric.WithDescription("Duration of tool calls, including the engine round trip"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool call duration histogram: %w", err)
	}
	activeSessions, err := meter.Int64UpDownCounter(
		"neurelo_mcp_active_sessions",
		metric.WithDescription("Number of open MCP sessions on the HTTP transports"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active sessions counter: %w", err)
	}
	return &otelCustomMetrics{
		toolCalls:        toolCalls,
		toolCallDuration: toolCallDuration,
		activeSessions:   activeSessions,
	}, nil
}

func (m *otelCustomMetrics) RecordToolCall(ctx context.Context, toolName string, outcome ToolCallOutcome, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tool_name", toolName),
		attribute.String("outcome", string(outcome)),
	)
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolCallDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *otelCustomMetrics) AddActiveSessions(ctx context.Context, delta int64) {
	m.activeSessions.Add(ctx, delta)
}

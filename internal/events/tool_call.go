package events

import "context"

// ToolCall describes a model-issued tool invocation before it runs.
type ToolCall struct {
	CallID   string `json:"callId"`
	Name     string `json:"name"`
	ArgsJSON string `json:"argsJson"`
}

// ToolResult describes a finished tool invocation and its raw result text.
type ToolResult struct {
	CallID   string `json:"callId"`
	Name     string `json:"name"`
	ArgsJSON string `json:"argsJson"`
	Result   string `json:"result"`
}

// ToolSink receives tool lifecycle notifications. Implementations must be
// safe for concurrent use; tools may run in parallel.
type ToolSink interface {
	ToolRequested(call ToolCall)
	ToolCompleted(result ToolResult)
}

const toolSinkContextKey contextKey = "appforge/events/toolsink"

// WithToolSink attaches a sink that tool wrappers report to.
func WithToolSink(ctx context.Context, sink ToolSink) context.Context {
	if sink == nil {
		return ctx
	}
	return context.WithValue(ctx, toolSinkContextKey, sink)
}

// ToolSinkFromContext returns the attached sink, or nil when none is set.
func ToolSinkFromContext(ctx context.Context) ToolSink {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(toolSinkContextKey).(ToolSink); ok {
		return v
	}
	return nil
}

package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"appforge/internal/events"
)

// Stream markers appended to generated output. Frontends key off these
// strings verbatim, so their exact shape must not change.
const (
	MarkerGenerationComplete = "\n[GENERATION_COMPLETE]"
	MarkerToolExecutionError = "\n[TOOL_EXECUTION_ERROR]"
	MarkerFileWriteError     = "\n[FILE_WRITE_ERROR]"
)

// ExecutionTracker turns tool lifecycle events into the text fragments that
// are interleaved with the model's streamed output. Announcements and
// completion markers are produced at most once per tool call id, no matter
// how many times the same call is reported.
type ExecutionTracker struct {
	registry *Registry

	mu        sync.Mutex
	announced map[string]bool
	completed map[string]bool
}

func NewExecutionTracker(registry *Registry) *ExecutionTracker {
	return &ExecutionTracker{
		registry:  registry,
		announced: make(map[string]bool),
		completed: make(map[string]bool),
	}
}

// Announce returns the announcement text for a requested tool call, or ""
// when this call id has already been announced.
func (t *ExecutionTracker) Announce(call events.ToolCall) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.announced[call.CallID] {
		return ""
	}
	t.announced[call.CallID] = true

	if def, ok := t.registry.Lookup(call.Name); ok {
		return fmt.Sprintf("\n\n🛠️ Calling %s...\n\n", def.DisplayName)
	}
	return fmt.Sprintf("\n\n🛠️ Calling tool: %s...\n\n", call.Name)
}

// Complete returns the completion marker for a finished tool call, or ""
// when this call id has already been completed.
func (t *ExecutionTracker) Complete(result events.ToolResult) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed[result.CallID] {
		return ""
	}
	t.completed[result.CallID] = true

	def, ok := t.registry.Lookup(result.Name)
	if !ok {
		return fmt.Sprintf("\n\n[Tool Call] Unknown tool: %s\n\n", result.Name)
	}

	subject := subjectFromArgs(result.ArgsJSON)
	if ResultIndicatesFailure(result.Result) {
		return fmt.Sprintf("\n[%s_FAILED:%s]", def.Op, subject)
	}
	return fmt.Sprintf("\n[%s_SUCCESS:%s]", def.Op, subject)
}

// ResultIndicatesFailure reports whether a raw tool result reads as a
// failure. The match is substring-based over the lowercased result, so
// results that merely mention the word "error" also classify as failed.
func ResultIndicatesFailure(result string) bool {
	lower := strings.ToLower(result)
	return strings.Contains(lower, "error:") ||
		strings.Contains(lower, "error") ||
		strings.Contains(lower, "failed")
}

// subjectFromArgs extracts the marker subject from a tool call's argument
// JSON. Path-bearing keys are tried in priority order and reduced to their
// base name.
func subjectFromArgs(argsJSON string) string {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "unknown file"
	}

	for _, key := range []string{"relativeFilePath", "fileName", "path", "relativeDirPath"} {
		raw, present := args[key]
		if !present {
			continue
		}
		value, _ := raw.(string)
		if strings.TrimSpace(value) == "" {
			if key == "relativeDirPath" {
				return "project root"
			}
			continue
		}
		return baseName(value)
	}
	return "unknown file"
}

func baseName(p string) string {
	p = strings.TrimRight(strings.ReplaceAll(p, "\\", "/"), "/")
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		p = p[idx+1:]
	}
	if p == "" {
		return "unknown file"
	}
	return p
}

package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"appforge/internal/events"
)

type WriteFileInput struct {
	RelativeFilePath string `json:"relativeFilePath" jsonschema:"description=The path of the file to write relative to the workspace root"`
	Content          string `json:"content" jsonschema:"description=The content to write to the file"`
}

type WriteFileOutput struct {
	Title    string            `json:"title"`
	Output   string            `json:"output"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// WriteFile creates or overwrites a file inside the generation workspace,
// creating parent directories as needed.
func WriteFile(ctx context.Context, in *WriteFileInput) (*WriteFileOutput, error) {
	events.Emit(ctx, events.LLMEventTool, events.NewInfo("WriteFile: starting"))

	if in == nil {
		events.Emit(ctx, events.LLMEventTool, events.NewError("WriteFile: input is required"))
		return &WriteFileOutput{
			Output:   "Error: input is required",
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	absPath, err := resolveUnderRoot(ctx, in.RelativeFilePath)
	if err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewWarn(fmt.Sprintf("WriteFile: %v", err)))
		return &WriteFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: %v", err),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewError(fmt.Sprintf("WriteFile: mkdir error: %v", err)))
		return &WriteFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: failed to create directory: %v", err),
			Metadata: map[string]string{"error": "io_error"},
		}, nil
	}

	existed := false
	if st, err := os.Stat(absPath); err == nil && !st.IsDir() {
		existed = true
	}

	if err := os.WriteFile(absPath, []byte(in.Content), 0o644); err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewError(fmt.Sprintf("WriteFile: write error: %v", err)))
		return &WriteFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: failed to write file: %v", err),
			Metadata: map[string]string{"error": "io_error"},
		}, nil
	}

	outputMsg := fmt.Sprintf("Successfully wrote file: %s", filepath.ToSlash(in.RelativeFilePath))
	if existed {
		outputMsg = fmt.Sprintf("Successfully overwrote file: %s", filepath.ToSlash(in.RelativeFilePath))
	}
	events.Emit(ctx, events.LLMEventTool, events.NewSuccess(outputMsg))

	return &WriteFileOutput{
		Title:  filepath.ToSlash(in.RelativeFilePath),
		Output: outputMsg,
		Metadata: map[string]string{
			"filepath": filepath.ToSlash(absPath),
			"existed":  fmt.Sprintf("%v", existed),
		},
	}, nil
}

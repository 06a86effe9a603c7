package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"appforge/internal/events"
)

// maxReadBytes caps how much of a file is returned to the model in one call.
const maxReadBytes = 256 * 1024

type ReadFileInput struct {
	RelativeFilePath string `json:"relativeFilePath" jsonschema:"description=The path of the file to read relative to the workspace root"`
}

type ReadFileOutput struct {
	Title    string            `json:"title"`
	Output   string            `json:"output"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ReadFile returns the contents of a file inside the generation workspace.
func ReadFile(ctx context.Context, in *ReadFileInput) (*ReadFileOutput, error) {
	if in == nil {
		return &ReadFileOutput{
			Output:   "Error: input is required",
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	absPath, err := resolveUnderRoot(ctx, in.RelativeFilePath)
	if err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewWarn(fmt.Sprintf("ReadFile: %v", err)))
		return &ReadFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: %v", err),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	st, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ReadFileOutput{
				Title:    in.RelativeFilePath,
				Output:   fmt.Sprintf("Error: file not found: %s", filepath.ToSlash(in.RelativeFilePath)),
				Metadata: map[string]string{"error": "file_not_found"},
			}, nil
		}
		return nil, err
	}
	if st.IsDir() {
		return &ReadFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: path is a directory: %s", filepath.ToSlash(in.RelativeFilePath)),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	truncated := false
	if len(data) > maxReadBytes {
		data = data[:maxReadBytes]
		truncated = true
	}

	events.Emit(ctx, events.LLMEventTool, events.NewInfo(fmt.Sprintf("ReadFile: read '%s' (%d bytes)", filepath.ToSlash(in.RelativeFilePath), len(data))))

	out := &ReadFileOutput{
		Title:  filepath.ToSlash(in.RelativeFilePath),
		Output: string(data),
		Metadata: map[string]string{
			"filepath": filepath.ToSlash(absPath),
		},
	}
	if truncated {
		out.Metadata["truncated"] = "true"
	}
	return out, nil
}

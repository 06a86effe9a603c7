package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"appforge/internal/events"
)

// importantFiles are project files the model is not allowed to delete.
var importantFiles = map[string]bool{
	"package.json":   true,
	"index.html":     true,
	"vite.config.js": true,
	"vite.config.ts": true,
	"main.js":        true,
	"main.ts":        true,
	"App.vue":        true,
}

type DeleteFileInput struct {
	RelativeFilePath string `json:"relativeFilePath" jsonschema:"description=The path of the file to delete relative to the workspace root"`
}

type DeleteFileOutput struct {
	Title    string            `json:"title"`
	Output   string            `json:"output"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DeleteFile removes a file from the generation workspace. Structural project
// files are protected and cannot be deleted.
func DeleteFile(ctx context.Context, in *DeleteFileInput) (*DeleteFileOutput, error) {
	events.Emit(ctx, events.LLMEventTool, events.NewInfo("DeleteFile: starting"))

	if in == nil {
		return &DeleteFileOutput{
			Output:   "Error: input is required",
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	absPath, err := resolveUnderRoot(ctx, in.RelativeFilePath)
	if err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewWarn(fmt.Sprintf("DeleteFile: %v", err)))
		return &DeleteFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: %v", err),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	if importantFiles[filepath.Base(absPath)] {
		msg := fmt.Sprintf("Warning: refusing to delete important file: %s", filepath.ToSlash(in.RelativeFilePath))
		events.Emit(ctx, events.LLMEventTool, events.NewWarn(msg))
		return &DeleteFileOutput{
			Title:    in.RelativeFilePath,
			Output:   msg,
			Metadata: map[string]string{"error": "protected_file"},
		}, nil
	}

	st, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &DeleteFileOutput{
				Title:    in.RelativeFilePath,
				Output:   fmt.Sprintf("Error: file not found: %s", filepath.ToSlash(in.RelativeFilePath)),
				Metadata: map[string]string{"error": "file_not_found"},
			}, nil
		}
		return nil, err
	}
	if st.IsDir() {
		return &DeleteFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: path is a directory: %s", filepath.ToSlash(in.RelativeFilePath)),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	if err := os.Remove(absPath); err != nil {
		return &DeleteFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: failed to delete file: %v", err),
			Metadata: map[string]string{"error": "io_error"},
		}, nil
	}

	outputMsg := fmt.Sprintf("Successfully deleted file: %s", filepath.ToSlash(in.RelativeFilePath))
	events.Emit(ctx, events.LLMEventTool, events.NewSuccess(outputMsg))

	return &DeleteFileOutput{
		Title:  filepath.ToSlash(in.RelativeFilePath),
		Output: outputMsg,
		Metadata: map[string]string{
			"filepath": filepath.ToSlash(absPath),
		},
	}, nil
}

// trimmedOrDefault is a small helper shared by the directory tools.
func trimmedOrDefault(s, def string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return def
}

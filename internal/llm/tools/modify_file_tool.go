package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"appforge/internal/events"
)

type ModifyFileInput struct {
	RelativeFilePath string `json:"relativeFilePath" jsonschema:"description=The path of the file to modify relative to the workspace root"`
	OldContent       string `json:"oldContent" jsonschema:"description=The exact text to replace. Must appear in the file"`
	NewContent       string `json:"newContent" jsonschema:"description=The replacement text"`
}

type ModifyFileOutput struct {
	Title    string            `json:"title"`
	Output   string            `json:"output"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ModifyFile replaces the first occurrence of OldContent with NewContent in a
// workspace file. The old text must match exactly.
func ModifyFile(ctx context.Context, in *ModifyFileInput) (*ModifyFileOutput, error) {
	if in == nil {
		return &ModifyFileOutput{
			Output:   "Error: input is required",
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}
	if in.OldContent == "" {
		return &ModifyFileOutput{
			Title:    in.RelativeFilePath,
			Output:   "Error: oldContent is required",
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	absPath, err := resolveUnderRoot(ctx, in.RelativeFilePath)
	if err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewWarn(fmt.Sprintf("ModifyFile: %v", err)))
		return &ModifyFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: %v", err),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ModifyFileOutput{
				Title:    in.RelativeFilePath,
				Output:   fmt.Sprintf("Error: file not found: %s", filepath.ToSlash(in.RelativeFilePath)),
				Metadata: map[string]string{"error": "file_not_found"},
			}, nil
		}
		return nil, err
	}

	content := string(data)
	if !strings.Contains(content, in.OldContent) {
		return &ModifyFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: oldContent not found in file: %s", filepath.ToSlash(in.RelativeFilePath)),
			Metadata: map[string]string{"error": "no_match"},
		}, nil
	}

	updated := strings.Replace(content, in.OldContent, in.NewContent, 1)
	if err := os.WriteFile(absPath, []byte(updated), 0o644); err != nil {
		return &ModifyFileOutput{
			Title:    in.RelativeFilePath,
			Output:   fmt.Sprintf("Error: failed to write file: %v", err),
			Metadata: map[string]string{"error": "io_error"},
		}, nil
	}

	outputMsg := fmt.Sprintf("Successfully modified file: %s", filepath.ToSlash(in.RelativeFilePath))
	events.Emit(ctx, events.LLMEventTool, events.NewSuccess(outputMsg))

	return &ModifyFileOutput{
		Title:  filepath.ToSlash(in.RelativeFilePath),
		Output: outputMsg,
		Metadata: map[string]string{
			"filepath": filepath.ToSlash(absPath),
		},
	}, nil
}

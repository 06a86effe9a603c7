package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"appforge/internal/events"
)

// maxDirEntries caps the directory listing returned to the model.
const maxDirEntries = 200

// ignoredDirs are never descended into when listing the workspace.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	".idea":        true,
	".vscode":      true,
}

type ReadDirInput struct {
	RelativeDirPath string `json:"relativeDirPath,omitempty" jsonschema:"description=The directory to list relative to the workspace root. Empty means the workspace root"`
}

type ReadDirOutput struct {
	Title    string            `json:"title"`
	Output   string            `json:"output"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ReadDir lists the workspace tree below a directory, newest entries last.
func ReadDir(ctx context.Context, in *ReadDirInput) (*ReadDirOutput, error) {
	if in == nil {
		in = &ReadDirInput{}
	}

	rel := trimmedOrDefault(in.RelativeDirPath, ".")
	absPath, err := resolveUnderRoot(ctx, rel)
	if err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewWarn(fmt.Sprintf("ReadDir: %v", err)))
		return &ReadDirOutput{
			Title:    rel,
			Output:   fmt.Sprintf("Error: %v", err),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	st, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ReadDirOutput{
				Title:    rel,
				Output:   fmt.Sprintf("Error: directory not found: %s", filepath.ToSlash(rel)),
				Metadata: map[string]string{"error": "dir_not_found"},
			}, nil
		}
		return nil, err
	}
	if !st.IsDir() {
		return &ReadDirOutput{
			Title:    rel,
			Output:   fmt.Sprintf("Error: not a directory: %s", filepath.ToSlash(rel)),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	var (
		lines  []string
		total  int
		capped bool
	)
	err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if total >= maxDirEntries {
			capped = true
			return filepath.SkipAll
		}
		relEntry, relErr := filepath.Rel(absPath, path)
		if relErr != nil {
			return nil
		}
		info, infoErr := d.Info()
		size := int64(0)
		if infoErr == nil {
			size = info.Size()
		}
		lines = append(lines, fmt.Sprintf("%s (%d bytes)", filepath.ToSlash(relEntry), size))
		total++
		return nil
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Directory listing of %s (%d files):\n", filepath.ToSlash(rel), total)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if capped {
		fmt.Fprintf(&b, "... listing capped at %d entries\n", maxDirEntries)
	}

	events.Emit(ctx, events.LLMEventTool, events.NewInfo(fmt.Sprintf("ReadDir: listed '%s' (%d files)", filepath.ToSlash(rel), total)))

	return &ReadDirOutput{
		Title:  filepath.ToSlash(rel),
		Output: b.String(),
		Metadata: map[string]string{
			"count": fmt.Sprintf("%d", total),
		},
	}, nil
}

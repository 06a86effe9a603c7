package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	filepathx "github.com/yargevad/filepathx"

	"appforge/internal/events"
)

const searchResultLimit = 100

type SearchFilesInput struct {
	Pattern string `json:"pattern" jsonschema:"description=The glob pattern to match files against (supports **)"`
}

type SearchFilesOutput struct {
	Title    string            `json:"title"`
	Output   string            `json:"output"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchFiles finds workspace files matching a glob pattern, newest first.
func SearchFiles(ctx context.Context, in *SearchFilesInput) (*SearchFilesOutput, error) {
	if in == nil {
		return &SearchFilesOutput{
			Output:   "Error: input is required",
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	pattern := strings.TrimSpace(in.Pattern)
	if pattern == "" {
		return &SearchFilesOutput{
			Output:   "Error: pattern is required",
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	root, err := getBaseRoot(ctx)
	if err != nil {
		events.Emit(ctx, events.LLMEventTool, events.NewWarn(fmt.Sprintf("SearchFiles: %v", err)))
		return &SearchFilesOutput{
			Title:    pattern,
			Output:   fmt.Sprintf("Error: %v", err),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	matches, err := filepathx.Glob(filepath.Join(root, pattern))
	if err != nil {
		return &SearchFilesOutput{
			Title:    pattern,
			Output:   fmt.Sprintf("Error: invalid pattern: %v", err),
			Metadata: map[string]string{"error": "format_error"},
		}, nil
	}

	type hit struct {
		rel   string
		mtime int64
	}
	var hits []hit
	for _, m := range matches {
		st, statErr := os.Stat(m)
		if statErr != nil || st.IsDir() {
			continue
		}
		rel, relErr := filepath.Rel(root, m)
		if relErr != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if containsIgnoredDir(rel) {
			continue
		}
		hits = append(hits, hit{rel: filepath.ToSlash(rel), mtime: st.ModTime().UnixNano()})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].mtime > hits[j].mtime })

	truncated := false
	if len(hits) > searchResultLimit {
		hits = hits[:searchResultLimit]
		truncated = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d files matching %s:\n", len(hits), pattern)
	for _, h := range hits {
		b.WriteString(h.rel)
		b.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&b, "... results capped at %d\n", searchResultLimit)
	}

	events.Emit(ctx, events.LLMEventTool, events.NewInfo(fmt.Sprintf("SearchFiles: %d matches for '%s'", len(hits), pattern)))

	return &SearchFilesOutput{
		Title:  pattern,
		Output: b.String(),
		Metadata: map[string]string{
			"count":     fmt.Sprintf("%d", len(hits)),
			"truncated": fmt.Sprintf("%v", truncated),
		},
	}, nil
}

func containsIgnoredDir(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

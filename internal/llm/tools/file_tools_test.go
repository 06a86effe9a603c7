package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// newWorkspace binds a temp dir to a fresh tool session and returns a context
// scoped to it.
func newWorkspace(t *testing.T) (context.Context, string) {
	t.Helper()
	root := t.TempDir()
	sessionID := uuid.NewString()
	SetBaseRootForSession(sessionID, root)
	t.Cleanup(func() { ClearSession(sessionID) })
	return ContextWithSession(context.Background(), sessionID), root
}

func TestWriteFile_CreatesParentDirectories(t *testing.T) {
	ctx, root := newWorkspace(t)

	out, err := WriteFile(ctx, &WriteFileInput{
		RelativeFilePath: "src/components/Header.vue",
		Content:          "<template/>",
	})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !strings.HasPrefix(out.Output, "Successfully wrote file:") {
		t.Fatalf("unexpected output: %q", out.Output)
	}

	data, err := os.ReadFile(filepath.Join(root, "src/components/Header.vue"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "<template/>" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestWriteFile_OverwriteReportsOverwrote(t *testing.T) {
	ctx, _ := newWorkspace(t)

	if _, err := WriteFile(ctx, &WriteFileInput{RelativeFilePath: "a.txt", Content: "one"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out, err := WriteFile(ctx, &WriteFileInput{RelativeFilePath: "a.txt", Content: "two"})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !strings.HasPrefix(out.Output, "Successfully overwrote file:") {
		t.Fatalf("unexpected output: %q", out.Output)
	}
}

func TestWriteFile_RejectsEscapingPath(t *testing.T) {
	ctx, root := newWorkspace(t)

	out, err := WriteFile(ctx, &WriteFileInput{RelativeFilePath: "../outside.txt", Content: "x"})
	if err != nil {
		t.Fatalf("escape must be a soft error, got hard error: %v", err)
	}
	if out.Metadata["error"] == "" {
		t.Fatalf("expected error metadata for escaping path")
	}
	if !strings.HasPrefix(out.Output, "Error:") {
		t.Fatalf("soft error output must start with Error:, got %q", out.Output)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(root), "outside.txt")); statErr == nil {
		t.Fatalf("file must not be written outside the workspace")
	}
}

func TestWriteFile_RejectsAbsolutePath(t *testing.T) {
	ctx, _ := newWorkspace(t)

	out, err := WriteFile(ctx, &WriteFileInput{RelativeFilePath: "/etc/hosts", Content: "x"})
	if err != nil {
		t.Fatalf("absolute path must be a soft error, got: %v", err)
	}
	if !strings.HasPrefix(out.Output, "Error:") {
		t.Fatalf("expected soft error, got %q", out.Output)
	}
}

func TestModifyFile_ReplacesFirstOccurrence(t *testing.T) {
	ctx, root := newWorkspace(t)
	path := filepath.Join(root, "main.js")
	if err := os.WriteFile(path, []byte("let x = 1; let x2 = 1;"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := ModifyFile(ctx, &ModifyFileInput{
		RelativeFilePath: "main.js",
		OldContent:       "= 1",
		NewContent:       "= 2",
	})
	if err != nil {
		t.Fatalf("ModifyFile: %v", err)
	}
	if !strings.HasPrefix(out.Output, "Successfully modified file:") {
		t.Fatalf("unexpected output: %q", out.Output)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "let x = 2; let x2 = 1;" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestModifyFile_OldContentMissing(t *testing.T) {
	ctx, root := newWorkspace(t)
	if err := os.WriteFile(filepath.Join(root, "main.js"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := ModifyFile(ctx, &ModifyFileInput{
		RelativeFilePath: "main.js",
		OldContent:       "goodbye",
		NewContent:       "hi",
	})
	if err != nil {
		t.Fatalf("ModifyFile: %v", err)
	}
	if out.Metadata["error"] != "no_match" {
		t.Fatalf("expected no_match, got %v", out.Metadata)
	}
}

func TestDeleteFile_RemovesFile(t *testing.T) {
	ctx, root := newWorkspace(t)
	path := filepath.Join(root, "old.css")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := DeleteFile(ctx, &DeleteFileInput{RelativeFilePath: "old.css"})
	if err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if !strings.HasPrefix(out.Output, "Successfully deleted file:") {
		t.Fatalf("unexpected output: %q", out.Output)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("file still exists")
	}
}

func TestDeleteFile_ProtectsImportantFiles(t *testing.T) {
	ctx, root := newWorkspace(t)
	path := filepath.Join(root, "package.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := DeleteFile(ctx, &DeleteFileInput{RelativeFilePath: "package.json"})
	if err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if out.Metadata["error"] != "protected_file" {
		t.Fatalf("expected protected_file, got %v", out.Metadata)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("protected file must survive: %v", statErr)
	}
}

func TestReadDir_SkipsIgnoredDirectories(t *testing.T) {
	ctx, root := newWorkspace(t)
	mustWrite(t, root, "index.html", "<html/>")
	mustWrite(t, root, "src/app.js", "x")
	mustWrite(t, root, "node_modules/pkg/index.js", "x")

	out, err := ReadDir(ctx, &ReadDirInput{})
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if strings.Contains(out.Output, "node_modules") {
		t.Fatalf("node_modules must be skipped:\n%s", out.Output)
	}
	if !strings.Contains(out.Output, "index.html") || !strings.Contains(out.Output, "src/app.js") {
		t.Fatalf("expected files missing:\n%s", out.Output)
	}
}

func TestSearchFiles_GlobMatchesRecursively(t *testing.T) {
	ctx, root := newWorkspace(t)
	mustWrite(t, root, "src/pages/Home.vue", "x")
	mustWrite(t, root, "src/components/Nav.vue", "x")
	mustWrite(t, root, "src/main.js", "x")

	out, err := SearchFiles(ctx, &SearchFilesInput{Pattern: "src/**/*.vue"})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if !strings.Contains(out.Output, "src/pages/Home.vue") || !strings.Contains(out.Output, "src/components/Nav.vue") {
		t.Fatalf("expected matches missing:\n%s", out.Output)
	}
	if strings.Contains(out.Output, "main.js") {
		t.Fatalf("non-matching file listed:\n%s", out.Output)
	}
}

func mustWrite(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

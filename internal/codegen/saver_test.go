package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"appforge/internal/models"
)

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func TestSaveHTML(t *testing.T) {
	s := NewSaver(t.TempDir())
	dir, err := s.SaveHTML(3, &HTMLResult{HTML: "<html>v1</html>"})
	if err != nil {
		t.Fatalf("SaveHTML() error = %v", err)
	}
	if dir != s.WorkspaceDir(models.CodeGenHTML, 3) {
		t.Fatalf("dir = %q, want %q", dir, s.WorkspaceDir(models.CodeGenHTML, 3))
	}
	if got := readOutput(t, dir, "index.html"); got != "<html>v1</html>" {
		t.Fatalf("index.html = %q", got)
	}

	// a repeated generation overwrites in place
	if _, err := s.SaveHTML(3, &HTMLResult{HTML: "<html>v2</html>"}); err != nil {
		t.Fatalf("SaveHTML() second save error = %v", err)
	}
	if got := readOutput(t, dir, "index.html"); got != "<html>v2</html>" {
		t.Fatalf("index.html after overwrite = %q", got)
	}
}

func TestSaveHTMLEmptyAborts(t *testing.T) {
	root := t.TempDir()
	s := NewSaver(root)
	if _, err := s.SaveHTML(5, &HTMLResult{}); err == nil {
		t.Fatal("SaveHTML() expected error for empty result")
	}
	if _, err := os.Stat(s.WorkspaceDir(models.CodeGenHTML, 5)); !os.IsNotExist(err) {
		t.Fatal("empty save must not create the workspace dir")
	}
}

func TestSaveMultiFile(t *testing.T) {
	s := NewSaver(t.TempDir())
	dir, err := s.SaveMultiFile(9, &MultiFileResult{HTML: "<p/>", CSS: "p {}", JS: "go()"})
	if err != nil {
		t.Fatalf("SaveMultiFile() error = %v", err)
	}
	if got := readOutput(t, dir, "index.html"); got != "<p/>" {
		t.Fatalf("index.html = %q", got)
	}
	if got := readOutput(t, dir, "style.css"); got != "p {}" {
		t.Fatalf("style.css = %q", got)
	}
	if got := readOutput(t, dir, "script.js"); got != "go()" {
		t.Fatalf("script.js = %q", got)
	}
}

func TestSaveMultiFileSkipsAbsentBlocks(t *testing.T) {
	s := NewSaver(t.TempDir())
	dir, err := s.SaveMultiFile(9, &MultiFileResult{HTML: "<p/>"})
	if err != nil {
		t.Fatalf("SaveMultiFile() error = %v", err)
	}
	for _, name := range []string{"style.css", "script.js"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist", name)
		}
	}
}

func TestWorkspaceDirPerMode(t *testing.T) {
	s := NewSaver("/out")
	html := s.WorkspaceDir(models.CodeGenHTML, 12)
	vue := s.WorkspaceDir(models.CodeGenVueProject, 12)
	if html == vue {
		t.Fatal("modes must not share a workspace dir")
	}
	if filepath.Base(vue) != "vue_project_12" {
		t.Fatalf("vue dir = %q", vue)
	}
}

package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"appforge/internal/models"
)

// Saver materializes parsed generation results into per-app directories.
// Each app and mode pair owns exactly one directory; repeated generations
// overwrite it in place.
type Saver struct {
	outputRoot string
}

func NewSaver(outputRoot string) *Saver {
	return &Saver{outputRoot: outputRoot}
}

// WorkspaceDir is the deterministic output directory for an app and mode.
func (s *Saver) WorkspaceDir(genType models.CodeGenType, appID uint) string {
	return filepath.Join(s.outputRoot, fmt.Sprintf("%s_%d", genType, appID))
}

// EnsureWorkspace creates the output directory for an app and mode.
func (s *Saver) EnsureWorkspace(genType models.CodeGenType, appID uint) (string, error) {
	dir := s.WorkspaceDir(genType, appID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create workspace dir")
	}
	return dir, nil
}

// SaveHTML writes a single-page result as index.html. An empty document
// aborts the save without touching the directory.
func (s *Saver) SaveHTML(appID uint, res *HTMLResult) (string, error) {
	if res == nil || res.HTML == "" {
		return "", errors.New("refusing to save empty html result")
	}
	dir, err := s.EnsureWorkspace(models.CodeGenHTML, appID)
	if err != nil {
		return "", err
	}
	if err := writeFile(dir, "index.html", res.HTML); err != nil {
		return "", err
	}
	log.Info().Uint("app", appID).Str("dir", dir).Msg("saved html result")
	return dir, nil
}

// SaveMultiFile writes a three-file result. The html file is mandatory; css
// and js are written only when present.
func (s *Saver) SaveMultiFile(appID uint, res *MultiFileResult) (string, error) {
	if res == nil || res.HTML == "" {
		return "", errors.New("refusing to save empty multi-file result")
	}
	dir, err := s.EnsureWorkspace(models.CodeGenMultiFile, appID)
	if err != nil {
		return "", err
	}
	if err := writeFile(dir, "index.html", res.HTML); err != nil {
		return "", err
	}
	if res.CSS != "" {
		if err := writeFile(dir, "style.css", res.CSS); err != nil {
			return "", err
		}
	}
	if res.JS != "" {
		if err := writeFile(dir, "script.js", res.JS); err != nil {
			return "", err
		}
	}
	log.Info().Uint("app", appID).Str("dir", dir).Msg("saved multi-file result")
	return dir, nil
}

func writeFile(dir, name, content string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return nil
}

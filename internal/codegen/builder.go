package codegen

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"appforge/internal/utils"
)

const buildTimeout = 5 * time.Minute

// Builder runs the project build for generated Vue workspaces. Builds are
// fire-and-forget: generation does not wait for or report build results.
type Builder struct {
	command string
}

func NewBuilder(command string) *Builder {
	return &Builder{command: command}
}

// BuildAsync kicks off "npm install" plus the configured build command in the
// background. A missing package.json or empty command skips the build.
func (b *Builder) BuildAsync(dir string) {
	if strings.TrimSpace(b.command) == "" {
		return
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		log.Debug().Str("dir", dir).Msg("no package.json, skipping build")
		return
	}
	go b.run(dir)
}

func (b *Builder) run(dir string) {
	start := time.Now()
	if err := b.exec(dir, "npm install"); err != nil {
		log.Warn().Str("dir", dir).Err(err).Msg("npm install failed")
		return
	}
	if err := b.exec(dir, b.command); err != nil {
		log.Warn().Str("dir", dir).Err(err).Msg("project build failed")
		return
	}
	if !utils.DirectoryExists(filepath.Join(dir, "dist")) {
		log.Warn().Str("dir", dir).Msg("build produced no dist directory")
		return
	}
	log.Info().Str("dir", dir).Dur("took", time.Since(start)).Msg("project build finished")
}

func (b *Builder) exec(dir, command string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}
	cmd.Dir = dir

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(buildTimeout):
		_ = cmd.Process.Kill()
		<-done
		return os.ErrDeadlineExceeded
	}
}

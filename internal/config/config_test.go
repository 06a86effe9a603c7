package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8123, cfg.Server.Port)
	require.NotEmpty(t, cfg.Database.Path)
	require.Equal(t, "tmp/code_output", cfg.Generation.OutputDir)
	require.Equal(t, 40, cfg.Generation.MaxSteps)
	require.Equal(t, 20, cfg.Generation.HistoryWindow)
	require.Equal(t, "npm run build", cfg.Generation.BuildCommand)
	require.Equal(t, "https://api.deepseek.com/v1", cfg.Providers.DeepSeek.BaseURL)
	require.Equal(t, "deepseek-reasoner", cfg.Providers.DeepSeek.ReasoningModel)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
server:
  port: 9000
generation:
  output_dir: /srv/generated
  max_steps: 12
providers:
  openai:
    model: gpt-4o-mini
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "/srv/generated", cfg.Generation.OutputDir)
	require.Equal(t, 12, cfg.Generation.MaxSteps)
	require.Equal(t, "gpt-4o-mini", cfg.Providers.OpenAI.Model)
	// untouched keys keep their defaults
	require.Equal(t, 20, cfg.Generation.HistoryWindow)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := "server:\n  port: 9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("APPFORGE_SERVER__PORT", "7777")
	t.Setenv("APPFORGE_PROVIDERS__CLAUDE__API_KEY", "sk-test")
	t.Setenv("APPFORGE_LOGGING__PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 7777, cfg.Server.Port)
	require.Equal(t, "sk-test", cfg.Providers.Claude.APIKey)
	require.True(t, cfg.Logging.Pretty)
}

package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"appforge/internal/database"
	"appforge/internal/utils"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Generation GenerationConfig `koanf:"generation"`
	Providers  ProvidersConfig  `koanf:"providers"`
	Logging    LoggingConfig    `koanf:"logging"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type GenerationConfig struct {
	// OutputDir is the root under which generated apps are materialized.
	OutputDir string `koanf:"output_dir"`
	// MaxSteps bounds the agent loop for tool-calling generation modes.
	MaxSteps int `koanf:"max_steps"`
	// HistoryWindow is how many prior turns are loaded into a fresh session.
	HistoryWindow int `koanf:"history_window"`
	// BuildCommand runs after a Vue project is saved. Empty disables builds.
	BuildCommand string `koanf:"build_command"`
}

type ProvidersConfig struct {
	OpenAI   ProviderConfig `koanf:"openai"`
	Claude   ProviderConfig `koanf:"claude"`
	Gemini   ProviderConfig `koanf:"gemini"`
	DeepSeek ProviderConfig `koanf:"deepseek"`
}

type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	// ReasoningModel is used when a generation mode asks for deeper reasoning.
	ReasoningModel string `koanf:"reasoning_model"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Load reads config.yaml (if present), then environment variables with the
// APPFORGE_ prefix, then fills in defaults. A .env file next to the binary is
// honored before the environment is read.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// dev convenience: fall back to the .env at the project root
		_ = utils.LoadEnv()
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("APPFORGE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "APPFORGE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		"server.port":                        8123,
		"database.path":                      database.GetDefaultDBPath(),
		"generation.output_dir":              "tmp/code_output",
		"generation.max_steps":               40,
		"generation.history_window":          20,
		"generation.build_command":           "npm run build",
		"providers.openai.model":             "gpt-4o",
		"providers.claude.model":             "claude-sonnet-4-20250514",
		"providers.gemini.model":             "gemini-2.0-flash",
		"providers.deepseek.base_url":        "https://api.deepseek.com/v1",
		"providers.deepseek.model":           "deepseek-chat",
		"providers.deepseek.reasoning_model": "deepseek-reasoner",
		"logging.level":                      "info",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

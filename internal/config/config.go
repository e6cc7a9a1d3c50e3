// Package config loads settings from the user config file, a project-level
// override and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const appName = "ielts-simulator"

// ProjectFile is the per-directory override searched for from the working
// directory upwards.
const ProjectFile = ".ielts-simulator.yaml"

// Config holds all configuration.
type Config struct {
	Grader    GraderConfig    `mapstructure:"grader"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Session   SessionConfig   `mapstructure:"session"`
	Prompts   PromptsConfig   `mapstructure:"prompts"`
	Export    ExportConfig    `mapstructure:"export"`
	Log       LogConfig       `mapstructure:"log"`
}

// GraderConfig selects the grading provider.
type GraderConfig struct {
	Provider string `mapstructure:"provider"`
}

// GeminiConfig holds Gemini API settings. The key serves both grading and
// image generation.
type GeminiConfig struct {
	APIKey       string `mapstructure:"api_key"`
	GradingModel string `mapstructure:"grading_model"`
	ImageModel   string `mapstructure:"image_model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SessionConfig holds writing session settings.
type SessionConfig struct {
	Duration       time.Duration `mapstructure:"duration"`
	WarnBelow      time.Duration `mapstructure:"warn_below"`
	TargetWords    int           `mapstructure:"target_words"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PromptsConfig locates the optional prompt bank.
type PromptsConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ExportConfig holds report export settings.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
	PDF bool   `mapstructure:"pdf"`
	// Browser is the Chromium binary used for PDF output. Empty searches
	// the usual install locations.
	Browser string `mapstructure:"browser"`
}

// LogConfig holds log output settings.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Debug bool   `mapstructure:"debug"`
}

// DurationSeconds returns the session length in whole seconds.
func (c SessionConfig) DurationSeconds() int {
	return int(c.Duration / time.Second)
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (GEMINI_API_KEY, GOOGLE_API_KEY, ANTHROPIC_API_KEY)
// 2. Project config (.ielts-simulator.yaml in current directory or parent)
// 3. User config (~/.config/ielts-simulator/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(UserConfigDir())
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		pv := viper.New()
		pv.SetConfigFile(projectConfig)
		if err := pv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file over the defaults.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Gemini.APIKey = os.ExpandEnv(cfg.Gemini.APIKey)
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Prompts.DBPath = os.ExpandEnv(cfg.Prompts.DBPath)
	cfg.Export.Dir = os.ExpandEnv(cfg.Export.Dir)
	cfg.Log.File = os.ExpandEnv(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("grader.provider", "IELTS_GRADER")
}

// Validate rejects settings the session cannot run with.
func (c *Config) Validate() error {
	switch c.Grader.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("grader.provider must be gemini or anthropic, got %q", c.Grader.Provider)
	}
	if c.Session.Duration < time.Second {
		return fmt.Errorf("session.duration must be at least 1s, got %s", c.Session.Duration)
	}
	if c.Session.TargetWords < 0 {
		return fmt.Errorf("session.target_words must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grader.provider", "gemini")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.grading_model", "gemini-2.5-flash")
	v.SetDefault("gemini.image_model", "imagen-3.0-generate-002")

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")

	v.SetDefault("session.duration", "20m")
	v.SetDefault("session.warn_below", "5m")
	v.SetDefault("session.target_words", 150)
	v.SetDefault("session.request_timeout", "2m")

	v.SetDefault("prompts.db_path", "")

	v.SetDefault("export.dir", "")
	v.SetDefault("export.pdf", true)
	v.SetDefault("export.browser", "")

	v.SetDefault("log.file", filepath.Join(UserConfigDir(), "ielts.log"))
	v.SetDefault("log.debug", false)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Grader: GraderConfig{Provider: "gemini"},
		Gemini: GeminiConfig{
			GradingModel: "gemini-2.5-flash",
			ImageModel:   "imagen-3.0-generate-002",
		},
		Session: SessionConfig{
			Duration:       20 * time.Minute,
			WarnBelow:      5 * time.Minute,
			TargetWords:    150,
			RequestTimeout: 2 * time.Minute,
		},
		Export: ExportConfig{PDF: true},
		Log:    LogConfig{File: filepath.Join(UserConfigDir(), "ielts.log")},
	}
}

// UserConfigDir returns the XDG config directory for the app.
func UserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// UserConfigPath returns the path to the user config file.
func UserConfigPath() string {
	return filepath.Join(UserConfigDir(), "config.yaml")
}

// findProjectConfig searches for the project file in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(cwd, ProjectFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return ""
		}
		cwd = parent
	}
}

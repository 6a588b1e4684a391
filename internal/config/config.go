// Package config loads codekt settings from defaults, the config file,
// .env, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tara-vision/codekt/internal/service"
	"github.com/tara-vision/codekt/internal/submission"
)

// EnvPrefix prefixes every environment variable, e.g. CODEKT_SERVER
const EnvPrefix = "CODEKT"

// Keys
const (
	KeyServer     = "server"
	KeyRole       = "role"
	KeyBranch     = "branch"
	KeyLogLevel   = "log_level"
	KeyNoSpinner  = "no_spinner"
	KeyNoMarkdown = "no_markdown"
)

// Config holds resolved settings
type Config struct {
	Server     string
	Role       submission.Role
	Branch     string
	LogLevel   slog.Level
	NoSpinner  bool
	NoMarkdown bool
}

// Dir returns ~/.codekt, creating it if needed
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	dir := filepath.Join(home, ".codekt")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServer, service.DefaultBaseURL)
	v.SetDefault(KeyRole, string(submission.RoleFullStack))
	v.SetDefault(KeyBranch, submission.DefaultBranch)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyNoSpinner, false)
	v.SetDefault(KeyNoMarkdown, false)
}

// Load reads configuration into v and resolves it. cfgFile overrides the
// default ~/.codekt/config.yaml; configDir is searched when cfgFile is empty.
// A missing default config file is not an error, a missing explicit one is.
func Load(v *viper.Viper, cfgFile, configDir string) (*Config, error) {
	SetDefaults(v)

	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if configDir != "" {
		v.AddConfigPath(configDir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" || configDir != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return resolve(v)
}

func resolve(v *viper.Viper) (*Config, error) {
	role, err := submission.ParseRole(v.GetString(KeyRole))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", KeyRole, err)
	}
	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", KeyLogLevel, err)
	}

	branch := strings.TrimSpace(v.GetString(KeyBranch))
	if branch == "" {
		branch = submission.DefaultBranch
	}

	return &Config{
		Server:     strings.TrimSpace(v.GetString(KeyServer)),
		Role:       role,
		Branch:     branch,
		LogLevel:   level,
		NoSpinner:  v.GetBool(KeyNoSpinner),
		NoMarkdown: v.GetBool(KeyNoMarkdown),
	}, nil
}

// ParseLevel parses debug, info, warn or error
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// NewLogger returns a text logger writing to w at the configured level
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

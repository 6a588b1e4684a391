package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tara-vision/codekt/internal/service"
	"github.com/tara-vision/codekt/internal/submission"
)

// inDir runs the test from dir so .env lookups are isolated
func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		k := k
		old, ok := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if ok {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	inDir(t, t.TempDir())
	unsetEnv(t, "CODEKT_SERVER", "CODEKT_ROLE", "CODEKT_BRANCH", "CODEKT_LOG_LEVEL")

	cfg, err := Load(viper.New(), "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, service.DefaultBaseURL, cfg.Server)
	assert.Equal(t, submission.RoleFullStack, cfg.Role)
	assert.Equal(t, submission.DefaultBranch, cfg.Branch)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.False(t, cfg.NoSpinner)
	assert.False(t, cfg.NoMarkdown)
}

func TestLoadPrecedence(t *testing.T) {
	inDir(t, t.TempDir())
	unsetEnv(t, "CODEKT_SERVER", "CODEKT_ROLE", "CODEKT_BRANCH", "CODEKT_LOG_LEVEL")

	dir := t.TempDir()
	yaml := "server: http://file:8000/api\nrole: frontend\nbranch: develop\nno_markdown: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	require.NoError(t, os.WriteFile(".env", []byte("CODEKT_ROLE=backend\nCODEKT_LOG_LEVEL=debug\n"), 0644))
	t.Setenv("CODEKT_SERVER", "http://env:9000/api")

	cfg, err := Load(viper.New(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000/api", cfg.Server)
	assert.Equal(t, submission.RoleBackend, cfg.Role)
	assert.Equal(t, "develop", cfg.Branch)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.NoMarkdown)
}

func TestLoadExplicitFile(t *testing.T) {
	inDir(t, t.TempDir())
	unsetEnv(t, "CODEKT_SERVER", "CODEKT_ROLE", "CODEKT_BRANCH", "CODEKT_LOG_LEVEL")

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "codekt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("role: devops\n"), 0644))
	cfg, err := Load(viper.New(), path, "")
	require.NoError(t, err)
	assert.Equal(t, submission.RoleDevOps, cfg.Role)
}

func TestLoadInvalidValues(t *testing.T) {
	inDir(t, t.TempDir())
	unsetEnv(t, "CODEKT_SERVER", "CODEKT_BRANCH")

	t.Setenv("CODEKT_ROLE", "designer")
	t.Setenv("CODEKT_LOG_LEVEL", "warn")
	_, err := Load(viper.New(), "", "")
	assert.ErrorIs(t, err, submission.ErrInvalidInput)

	t.Setenv("CODEKT_ROLE", "backend")
	t.Setenv("CODEKT_LOG_LEVEL", "loud")
	_, err = Load(viper.New(), "", "")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelInfo}
	logger := cfg.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "project_id", "abc123")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "project_id=abc123")
}

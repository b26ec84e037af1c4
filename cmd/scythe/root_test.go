package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drake/scythe/config"
)

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cfg := applyFlags(config.Default(), options{
		shell:    "/bin/zsh",
		model:    "mistral",
		endpoint: "http://gpu:11434",
		noAI:     true,
		debug:    true,
	})

	assert.Equal(t, "/bin/zsh", cfg.Shell)
	assert.Equal(t, "mistral", cfg.AI.Model)
	assert.Equal(t, "http://gpu:11434", cfg.AI.Endpoint)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyFlagsKeepsFileValues(t *testing.T) {
	base := config.Default()
	base.Shell = "/bin/bash"
	cfg := applyFlags(base, options{})

	assert.Equal(t, "/bin/bash", cfg.Shell)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "llama3", cfg.AI.Model)
}

func TestLoadConfigWarnsOnUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("shell = \"/bin/sh\"\ncolour = \"red\"\n"), 0o644))

	var warn bytes.Buffer
	cfg, err := loadConfig(options{configFile: path}, &warn)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", cfg.Shell)
	assert.Contains(t, warn.String(), "colour")
}

func TestLoadConfigFailsOnSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("shell = \n"), 0o644))

	_, err := loadConfig(options{configFile: path}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestSessionConfigWiring(t *testing.T) {
	cfg := config.Default()
	cfg.GraceMilli = 500
	cfg.AI.TimeoutSeconds = 30

	opts := options{configFile: "/etc/scythe.toml", layout: "/tmp/layout.yaml", noAI: true}
	sc := sessionConfig(cfg, opts)
	assert.Equal(t, 500*time.Millisecond, sc.Terminal.Grace)
	assert.Equal(t, 400, sc.Dividers.Horizontal)
	assert.Equal(t, 300, sc.Dividers.Vertical)
	assert.Equal(t, 30*time.Second, sc.AITimeout)
	assert.Equal(t, "/tmp/layout.yaml", sc.StartLayout)
	assert.Equal(t, "/etc/scythe.toml", sc.ConfigFile)
	require.NotNil(t, sc.AI)
	assert.Equal(t, "llama3", sc.AI.Model())

	// Reloads re-apply the flags over the file.
	require.NotNil(t, sc.Overrides)
	assert.False(t, sc.Overrides(config.Default()).AI.Enabled)

	cfg.AI.Enabled = false
	assert.Nil(t, sessionConfig(cfg, options{}).AI)
}

func TestOpenLogWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scythe.log")
	logger, closer, err := openLog(config.LogConfig{File: path, Level: "debug"})
	require.NoError(t, err)
	logger.Debug("hello", "n", 1)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	run := func(args ...string) error {
		cmd := configInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--path", path}, args...))
		return cmd.Execute()
	}

	require.NoError(t, run())
	assert.Error(t, run())
	assert.NoError(t, run("--force"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().AI.Model, cfg.AI.Model)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "scythe dev\n", out.String())
}

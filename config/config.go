package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// Dir returns the scythe configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "scythe")
}

// File returns the path to config.toml.
func File() string {
	return filepath.Join(Dir(), "config.toml")
}

// Config is the whole of config.toml.
type Config struct {
	Shell      string   `toml:"shell"`
	ShellArgs  []string `toml:"shell_args,omitempty"`
	WorkDir    string   `toml:"work_dir"`
	GraceMilli int      `toml:"kill_grace_ms"`

	Layout   LayoutConfig   `toml:"layout"`
	AI       AIConfig       `toml:"ai"`
	Automate AutomateConfig `toml:"automate"`
	Session  SessionConfig  `toml:"session"`
	Log      LogConfig      `toml:"log"`
}

// LayoutConfig holds pixel defaults and the cell metrics used to map them
// onto the character grid.
type LayoutConfig struct {
	HorizontalDivider int  `toml:"horizontal_divider"`
	VerticalDivider   int  `toml:"vertical_divider"`
	CellWidth         int  `toml:"cell_width"`
	CellHeight        int  `toml:"cell_height"`
	SidePanelWidth    int  `toml:"side_panel_width"`
	ShowSidePanel     bool `toml:"show_side_panel"`
}

// AIConfig configures the side panel's inference server.
type AIConfig struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CacheSize      int    `toml:"cache_size"`
}

// AutomateConfig locates user automation scripts.
type AutomateConfig struct {
	Dir string `toml:"dir"`
}

// SessionConfig locates the saved layout.
type SessionConfig struct {
	Path string `toml:"path"`
}

// LogConfig controls the log file.
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	dir := Dir()
	return Config{
		GraceMilli: 2000,
		Layout: LayoutConfig{
			HorizontalDivider: 400,
			VerticalDivider:   300,
			CellWidth:         8,
			CellHeight:        16,
			SidePanelWidth:    36,
			ShowSidePanel:     true,
		},
		AI: AIConfig{
			Enabled:        true,
			Endpoint:       "http://localhost:11434",
			Model:          "llama3",
			TimeoutSeconds: 120,
			CacheSize:      32,
		},
		Automate: AutomateConfig{Dir: filepath.Join(dir, "automate")},
		Session:  SessionConfig{Path: filepath.Join(dir, "session.yaml")},
		Log:      LogConfig{File: filepath.Join(dir, "scythe.log"), Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg.Normalize(), fmt.Errorf("%w: %s", ErrUnknownKeys, strings.Join(keys, ", "))
	}
	return cfg.Normalize(), nil
}

// ErrUnknownKeys is returned alongside a usable config when the file has
// keys scythe does not know.
var ErrUnknownKeys = errors.New("unknown config keys")

// Normalize replaces out-of-range values with defaults and expands ~.
func (c Config) Normalize() Config {
	def := Default()
	if c.GraceMilli <= 0 {
		c.GraceMilli = def.GraceMilli
	}
	if c.Layout.HorizontalDivider <= 0 {
		c.Layout.HorizontalDivider = def.Layout.HorizontalDivider
	}
	if c.Layout.VerticalDivider <= 0 {
		c.Layout.VerticalDivider = def.Layout.VerticalDivider
	}
	if c.Layout.CellWidth <= 0 {
		c.Layout.CellWidth = def.Layout.CellWidth
	}
	if c.Layout.CellHeight <= 0 {
		c.Layout.CellHeight = def.Layout.CellHeight
	}
	if c.Layout.SidePanelWidth < 20 {
		c.Layout.SidePanelWidth = def.Layout.SidePanelWidth
	}
	if c.AI.Endpoint == "" {
		c.AI.Endpoint = def.AI.Endpoint
	}
	if c.AI.Model == "" {
		c.AI.Model = def.AI.Model
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = def.AI.TimeoutSeconds
	}
	if c.AI.CacheSize < 0 {
		c.AI.CacheSize = 0
	}
	c.WorkDir = expandTilde(c.WorkDir)
	c.Automate.Dir = expandTilde(c.Automate.Dir)
	c.Session.Path = expandTilde(c.Session.Path)
	c.Log.File = expandTilde(c.Log.File)
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	return c
}

// Save writes c as TOML, creating the directory.
func Save(path string, c Config) error {
	var buf bytes.Buffer
	buf.WriteString("# scythe configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

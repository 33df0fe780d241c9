// Package config loads shortcut-panel settings from YAML with environment overrides.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config mirrors ~/.shortcut-panel/config.yaml.
type Config struct {
	Server     ServerSettings     `yaml:"server"`
	Store      StoreSettings      `yaml:"store"`
	Terminal   TerminalSettings   `yaml:"terminal"`
	Dispatcher DispatcherSettings `yaml:"dispatcher"`
	Log        LogSettings        `yaml:"log"`
}

type ServerSettings struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StoreSettings selects the key-value backend holding both shortcut collections.
type StoreSettings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Watch   bool   `yaml:"watch"`
}

type TerminalSettings struct {
	Shell string   `yaml:"shell"`
	Args  []string `yaml:"args"`
}

// DispatcherSettings controls the pacing between terminal sends.
type DispatcherSettings struct {
	ShowDelay time.Duration `yaml:"show_delay"`
	NextDelay time.Duration `yaml:"next_delay"`
}

type LogSettings struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Loader reads the config file, creating it with defaults on first use.
type Loader struct {
	overridePath string
}

// NewLoader builds a loader; an empty path resolves through SHORTCUT_PANEL_CONFIG
// and then the home directory.
func NewLoader(path string) *Loader {
	return &Loader{overridePath: path}
}

// Load reads the config, applies defaults and environment overrides.
func (l *Loader) Load() (Config, error) {
	_ = godotenv.Load()

	path := l.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		cfg := Default()
		if err := writeDefault(path, cfg); err != nil {
			return Config{}, err
		}
		return applyEnv(cfg), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(hydrateDefaults(cfg)), nil
}

// Path returns the resolved config file location.
func (l *Loader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("SHORTCUT_PANEL_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(homeDir(), ".shortcut-panel", "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerSettings{Addr: ":8080"},
		Store: StoreSettings{
			Backend: StoreFile,
			Path:    filepath.Join(homeDir(), ".shortcut-panel", "shortcuts.json"),
			Watch:   true,
		},
		Terminal: TerminalSettings{Shell: "bash", Args: []string{"--login"}},
		Dispatcher: DispatcherSettings{
			ShowDelay: 500 * time.Millisecond,
			NextDelay: 1000 * time.Millisecond,
		},
		Log: LogSettings{Level: "info"},
	}
}

func hydrateDefaults(cfg Config) Config {
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
		if cfg.Store.Backend == StoreSQLite {
			cfg.Store.Path = strings.TrimSuffix(def.Store.Path, ".json") + ".db"
		}
	}
	cfg.Store.Path = expandPath(cfg.Store.Path)
	if cfg.Terminal.Shell == "" {
		cfg.Terminal = def.Terminal
	}
	if cfg.Dispatcher.ShowDelay == 0 {
		cfg.Dispatcher.ShowDelay = def.Dispatcher.ShowDelay
	}
	if cfg.Dispatcher.NextDelay == 0 {
		cfg.Dispatcher.NextDelay = def.Dispatcher.NextDelay
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if backend := os.Getenv("SHORTCUT_PANEL_STORE"); backend != "" {
		cfg.Store.Backend = backend
	}
	if path := os.Getenv("SHORTCUT_PANEL_DATA"); path != "" {
		cfg.Store.Path = expandPath(path)
	}
	if level := os.Getenv("SHORTCUT_PANEL_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	return cfg
}

func writeDefault(path string, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(path)
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

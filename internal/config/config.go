// Package config provides the application options file and the binding
// snapshot provider.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

const (
	appName        = "keybrame"
	configFileName = "config.yaml"
	maxValidPort   = 65535
)

// Options represents the application options file
type Options struct {
	// Port for the HTTP server. 0 uses the port stored with the bindings.
	Port int `yaml:"port"`

	// BindAddress is the interface the HTTP server listens on
	BindAddress string `yaml:"bind_address"`

	// DataDir holds the database and, by default, the assets directory.
	// Empty means the directory of the options file.
	DataDir string `yaml:"data_dir"`

	// AssetsDir overrides <data_dir>/assets
	AssetsDir string `yaml:"assets_dir,omitempty"`

	// Database overrides <data_dir>/config.db
	Database string `yaml:"database,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// OpenBrowser opens the overlay page on startup
	OpenBrowser bool `yaml:"open_browser"`

	// Notifications shows desktop notifications
	Notifications bool `yaml:"notifications"`

	// WatchAssets reloads bindings when the assets directory changes
	WatchAssets bool `yaml:"watch_assets"`

	// Tray shows the system tray icon
	Tray bool `yaml:"tray"`

	// APIToken, when set, is required as a bearer token on /api/ routes
	APIToken string `yaml:"api_token,omitempty"`
}

// DefaultOptions returns a new Options with sensible defaults
func DefaultOptions() Options {
	return Options{
		BindAddress:   "127.0.0.1",
		LogLevel:      "info",
		OpenBrowser:   false,
		Notifications: true,
		WatchAssets:   true,
		Tray:          true,
	}
}

// Validate checks option values
func (o Options) Validate() error {
	if o.Port < 0 || o.Port > maxValidPort {
		return fmt.Errorf("port %d out of range", o.Port)
	}
	if _, err := ParseLevel(o.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level option to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
}

// Manager handles loading and saving the options file
type Manager struct {
	mu        sync.Mutex
	path      string
	opts      Options
	onChanged func(Options)
}

// NewManager creates a manager for the file at path; empty uses DefaultPath
func NewManager(path string) (*Manager, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Manager{path: path, opts: DefaultOptions()}, nil
}

// DefaultPath returns the per-user options file location
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, appName)
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(base, appName)
	}
	return filepath.Join(configDir, configFileName), nil
}

// Path returns the options file path
func (m *Manager) Path() string {
	return m.path
}

// Load reads the options file. A missing file is created with defaults.
func (m *Manager) Load() error {
	m.mu.Lock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		m.opts = DefaultOptions()
		m.mu.Unlock()
		slog.Info("[config] no options file, writing defaults", "path", m.path)
		return m.Save()
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("read options: %w", err)
	}

	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("parse options %s: %w", m.path, err)
	}
	if err := opts.Validate(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid options %s: %w", m.path, err)
	}
	m.opts = opts
	cb := m.onChanged
	m.mu.Unlock()

	if cb != nil {
		cb(opts)
	}
	return nil
}

// Save writes the options to disk through a temp file and rename
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := yaml.Marshal(m.opts)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("save options: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save options: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("save options: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save options: close: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save options: rename: %w", err)
	}

	slog.Debug("[config] options saved", "path", m.path, "bytes", len(data))
	return nil
}

// Get returns the current options
func (m *Manager) Get() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// Set validates and replaces the options in memory
func (m *Manager) Set(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.opts = opts
	cb := m.onChanged
	m.mu.Unlock()
	if cb != nil {
		cb(opts)
	}
	return nil
}

// RegisterChangeCallback registers a function to be called when options change
func (m *Manager) RegisterChangeCallback(fn func(Options)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}

// DataPath resolves the data directory
func (m *Manager) DataPath() string {
	opts := m.Get()
	if opts.DataDir != "" {
		return opts.DataDir
	}
	return filepath.Dir(m.path)
}

// AssetsPath resolves the assets directory
func (m *Manager) AssetsPath() string {
	if dir := m.Get().AssetsDir; dir != "" {
		return dir
	}
	return filepath.Join(m.DataPath(), "assets")
}

// DatabasePath resolves the SQLite database file
func (m *Manager) DatabasePath() string {
	if db := m.Get().Database; db != "" {
		return db
	}
	return filepath.Join(m.DataPath(), "config.db")
}

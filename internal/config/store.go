package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gingus/katfod/internal/logging"
)

const (
	appName    = "katfod"
	configFile = "config.yaml"

	// ConfigEnvVar overrides the settings file location.
	ConfigEnvVar = "KATFOD_CONFIG"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
//   - Linux: $XDG_CONFIG_HOME/katfod or $HOME/.config/katfod
//   - macOS: $HOME/.config/katfod
//   - Windows: %LOCALAPPDATA%\katfod
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the settings file, honoring
// KATFOD_CONFIG.
func GetConfigPath() (string, error) {
	if override := os.Getenv(ConfigEnvVar); override != "" {
		return override, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Store owns the persisted settings. The zero value is not usable; call Open.
type Store struct {
	path string

	mu       sync.RWMutex
	settings Settings

	listenerMu sync.Mutex
	listeners  map[int]func(Settings)
	nextID     int
}

// Open loads the settings file at path, or at GetConfigPath() when path is
// empty. A missing file yields default settings; the file is created on the
// first mutation.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	settings, err := load(path)
	if err != nil {
		return nil, err
	}

	return &Store{
		path:      path,
		settings:  settings,
		listeners: make(map[int]func(Settings)),
	}, nil
}

func load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var file settingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return file.settings(), nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Settings returns a snapshot of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Endpoint returns a snapshot of the current appliance endpoint.
func (s *Store) Endpoint() Endpoint {
	return s.Settings().Endpoint()
}

// VibrationEnabled reports whether taps should be acknowledged haptically.
func (s *Store) VibrationEnabled() bool {
	return s.Settings().VibrationEnabled
}

// SetHost sanitizes raw, stores and persists it, and returns the stored host.
func (s *Store) SetHost(raw string) (string, error) {
	host := SanitizeHost(raw)
	_, err := s.update(func(settings *Settings) {
		settings.IPAddress = host
	})
	return host, err
}

// SetPort stores and persists raw verbatim.
func (s *Store) SetPort(raw string) (string, error) {
	_, err := s.update(func(settings *Settings) {
		settings.Port = raw
	})
	return raw, err
}

// SetEndpoint replaces host and port in a single write. The host is sanitized.
func (s *Store) SetEndpoint(ep Endpoint) (Endpoint, error) {
	updated, err := s.update(func(settings *Settings) {
		settings.IPAddress = SanitizeHost(ep.Host)
		settings.Port = ep.Port
	})
	return updated.Endpoint(), err
}

// SetVibration stores and persists the vibration preference.
func (s *Store) SetVibration(enabled bool) error {
	_, err := s.update(func(settings *Settings) {
		settings.VibrationEnabled = enabled
	})
	return err
}

// Subscribe registers fn to be called with the new settings after every
// mutation. fn runs on the mutating goroutine and must not block. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Settings)) (cancel func()) {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

// update applies mutate, writes the result through to disk and notifies
// listeners. The in-memory value is kept even when the write fails so the
// UI keeps showing what the user entered.
func (s *Store) update(mutate func(*Settings)) (Settings, error) {
	s.mu.Lock()
	next := s.settings
	mutate(&next)
	s.settings = next
	err := save(s.path, next)
	s.mu.Unlock()

	if err != nil {
		logging.Warn("Settings not persisted",
			zap.String("path", s.path),
			zap.Error(err),
		)
	} else {
		logging.Info("Settings changed",
			zap.String("ip_address", next.IPAddress),
			zap.String("port", next.Port),
			zap.Bool("vibration_enabled", next.VibrationEnabled),
		)
	}

	s.notify(next)
	return next, err
}

func (s *Store) notify(settings Settings) {
	s.listenerMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Settings), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(settings)
	}
}

// save writes settings to path atomically.
func save(path string, settings Settings) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(fileFromSettings(settings))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# katfod settings
# Address of the feeder appliance and app preferences.
# Written by katfod on every change.

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

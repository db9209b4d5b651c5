package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/insteon/internal/logging"
)

const (
	appName    = "insteon"
	configFile = "config.yaml"

	// CurrentVersion is the only configuration layout this build reads
	CurrentVersion = 1

	// ConfigDirEnvVar overrides the configuration directory
	ConfigDirEnvVar = "INSTEON_CONFIG_DIR"
)

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// serializes writers within the process
	fileMutex sync.Mutex
)

// GetConfigDir returns the directory holding the configuration file:
//   - $INSTEON_CONFIG_DIR when set
//   - Windows: %LOCALAPPDATA%\insteon
//   - Linux: $XDG_CONFIG_HOME/insteon, else $HOME/.config/insteon
//   - macOS: $HOME/.config/insteon
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir, nil
	}

	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			profile := os.Getenv("USERPROFILE")
			if profile == "" {
				return "", errors.New("cannot determine config directory: LOCALAPPDATA and USERPROFILE are unset")
			}
			base = filepath.Join(profile, "AppData", "Local")
		}
		return filepath.Join(base, appName), nil
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && runtime.GOOS != "darwin" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// GetConfigPath returns the full path to the configuration file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// LoadRegistry loads the configuration from the default path once per
// process. Later calls return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalRegistryErr = fmt.Errorf("failed to get config path: %w", err)
			return
		}
		globalRegistry, globalRegistryErr = LoadRegistryFile(path)
	})
	return globalRegistry, globalRegistryErr
}

// LoadRegistryFile loads a registry from path. A missing file yields the
// defaults; device keys written by hand are normalized to AA.BB.CC.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if registry.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d in %s (expected %d)", registry.Version, path, CurrentVersion)
	}

	if err := registry.normalize(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &registry, nil
}

// normalize fills defaults and rekeys devices by canonical address
func (r *Registry) normalize() error {
	defaults := defaultPreferences()
	if r.Preferences == nil {
		r.Preferences = defaults
	}
	if r.Preferences.ReadChunkSize <= 0 {
		r.Preferences.ReadChunkSize = defaults.ReadChunkSize
	}

	devices := make(map[string]*Device, len(r.Devices))
	for addr, device := range r.Devices {
		key, err := deviceKey(addr)
		if err != nil {
			return fmt.Errorf("device %q: %w", addr, err)
		}
		if device == nil {
			device = &Device{}
		}
		if _, dup := devices[key]; dup {
			logging.Warn("Duplicate device entry in config", zap.String("address", key))
		}
		devices[key] = device
	}
	r.Devices = devices
	return nil
}

// Save writes the registry to the default configuration path
func (r *Registry) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveFile(path)
}

// SaveFile writes the registry to path through a temporary file in the same
// directory, so readers never see a partial file.
func (r *Registry) SaveFile(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# Insteon Message Tool Configuration File\n")
	buf.WriteString("# Device nicknames are keyed by Insteon address (AA.BB.CC).\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+configFile+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary config file: %w", err)
	}
	tmpPath := tmp.Name()

	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmpPath, 0600)
	}
	if werr == nil {
		werr = os.Rename(tmpPath, path)
	}
	if werr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", werr)
	}

	logging.Debug("Saved configuration", zap.String("path", path), zap.Int("devices", len(r.Devices)))
	return nil
}

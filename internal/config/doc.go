// Package config provides user configuration management for the Insteon message tool.
//
// This package manages a YAML-based configuration file that stores user-defined
// metadata for Insteon devices (nicknames keyed by device address) and
// preferences for decoding captures. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/insteon/config.yaml or $HOME/.config/insteon/config.yaml
//   - macOS: $HOME/.config/insteon/config.yaml
//   - Windows: %LOCALAPPDATA%\insteon\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := registry.SetDeviceNickname("1A.2B.3C", "Hall Keypad"); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config

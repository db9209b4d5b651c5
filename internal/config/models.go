package config

import (
	"time"

	"github.com/muurk/insteon/internal/protocol"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by Insteon address (AA.BB.CC)
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined metadata for a single Insteon device.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last time a message from the device was decoded
}

// Preferences controls how captures are decoded and displayed.
type Preferences struct {
	LogLevel        string `yaml:"log_level,omitempty"`        // debug, info, warn, error (empty = silent)
	DefinitionsFile string `yaml:"definitions_file,omitempty"` // Override the embedded message definitions
	ReadChunkSize   int    `yaml:"read_chunk_size"`            // Bytes per read from the input stream
	Color           bool   `yaml:"color"`                      // Colorize decoded output on terminals
}

func defaultPreferences() *Preferences {
	return &Preferences{
		ReadChunkSize: protocol.DefaultReadChunkSize,
		Color:         true,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// deviceKey normalizes an address string so "aabbcc" and "AA.BB.CC" share an entry
func deviceKey(address string) (string, error) {
	a, err := protocol.ParseAddress(address)
	if err != nil {
		return "", err
	}
	return a.String(), nil
}

// GetDevice retrieves device metadata by address.
// Returns nil if the device doesn't exist in the registry or the address is malformed.
func (r *Registry) GetDevice(address string) *Device {
	key, err := deviceKey(address)
	if err != nil {
		return nil
	}
	return r.Devices[key]
}

// EnsureDevice ensures a device entry exists in the registry.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(address string) (*Device, error) {
	key, err := deviceKey(address)
	if err != nil {
		return nil, err
	}

	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[key]; exists {
		return device, nil
	}

	device := &Device{}
	r.Devices[key] = device
	return device, nil
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(address, nickname string) error {
	device, err := r.EnsureDevice(address)
	if err != nil {
		return err
	}
	device.Nickname = nickname
	return nil
}

// UpdateDeviceLastSeen records when a device was last heard from.
func (r *Registry) UpdateDeviceLastSeen(address string, seen time.Time) error {
	device, err := r.EnsureDevice(address)
	if err != nil {
		return err
	}
	device.LastSeen = seen
	return nil
}

// Nickname returns the nickname for addr, or "" if none is set.
func (r *Registry) Nickname(addr protocol.Address) string {
	if device := r.Devices[addr.String()]; device != nil {
		return device.Nickname
	}
	return ""
}

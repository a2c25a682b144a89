package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// MIDIConfig stores MIDI input preferences
type MIDIConfig struct {
	AutoConnect bool     `json:"autoConnect"`
	IgnorePorts []string `json:"ignorePorts,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastTempo   int    `json:"lastTempo,omitempty"`
	LastProject string `json:"lastProject,omitempty"`
	PalettePath string `json:"palettePath,omitempty"` // optional GPL palette override
}

// Config is the main configuration structure
type Config struct {
	SampleDir string     `json:"sampleDir,omitempty"`
	MIDI      MIDIConfig `json:"midi,omitempty"`
	UI        UIConfig   `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		SampleDir: filepath.Join(home, "samples"),
		MIDI: MIDIConfig{
			AutoConnect: true,
		},
		UI: UIConfig{
			LastTempo: 120,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "padbeat"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// IgnoresPort reports whether a MIDI port is excluded from auto-connect
func (c *Config) IgnoresPort(portName string) bool {
	for _, p := range c.MIDI.IgnorePorts {
		if p == portName {
			return true
		}
	}
	return false
}

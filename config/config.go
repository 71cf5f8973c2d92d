package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// TUIMode selects whether the interactive progress view is used
type TUIMode string

const (
	TUIAuto TUIMode = "auto" // only when stdout is a terminal
	TUIOn   TUIMode = "on"
	TUIOff  TUIMode = "off"
)

// maxRecent caps the recently rendered file list
const maxRecent = 10

// RenderConfig controls the synthesis loop
type RenderConfig struct {
	SampleRate    int     `json:"sampleRate"`
	MaxSeconds    float64 `json:"maxSeconds"`
	TailSeconds   float64 `json:"tailSeconds,omitempty"`
	ProgressEvery int     `json:"progressEvery,omitempty"` // samples, 0 = rate/10
}

// OutputConfig controls the written file
type OutputConfig struct {
	BitDepth int    `json:"bitDepth"`
	Dir      string `json:"dir,omitempty"` // default: next to the input
	Suffix   string `json:"suffix,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string  `json:"palette,omitempty"` // GIMP .gpl file, empty = built-in
	TUI     TUIMode `json:"tui,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Render RenderConfig `json:"render"`
	Output OutputConfig `json:"output"`
	UI     UIConfig     `json:"ui,omitempty"`
	Recent []string     `json:"recent,omitempty"`
	Debug  bool         `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			SampleRate: 44100,
			MaxSeconds: 600,
		},
		Output: OutputConfig{
			BitDepth: 16,
			Suffix:   ".wav",
		},
		UI: UIConfig{
			TUI: TUIAuto,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-squaresynth"), nil
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
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep their
// default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", "The config file "+path+" is not valid JSON"),
			ftag.With(ftag.InvalidArgument))
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the renderer cannot honor
func (c *Config) Validate() error {
	switch {
	case c.Render.SampleRate <= 0:
		return invalid("sample rate must be positive")
	case c.Render.MaxSeconds <= 0:
		return invalid("max seconds must be positive")
	case c.Render.TailSeconds < 0:
		return invalid("tail seconds must not be negative")
	case c.Render.ProgressEvery < 0:
		return invalid("progress interval must not be negative")
	case c.Output.BitDepth != 16 && c.Output.BitDepth != 24:
		return invalid("bit depth must be 16 or 24")
	}
	switch c.UI.TUI {
	case TUIAuto, TUIOn, TUIOff, "":
	default:
		return invalid("tui must be auto, on or off")
	}
	return nil
}

func invalid(msg string) error {
	return fault.New(msg, fmsg.WithDesc(msg, "Invalid setting: "+msg), ftag.With(ftag.InvalidArgument))
}

// OutputPath derives the output file for input using Dir and Suffix
func (c *Config) OutputPath(input string) string {
	base := filepath.Base(input)
	name := base[:len(base)-len(filepath.Ext(base))] + c.Output.Suffix
	if c.Output.Dir != "" {
		return filepath.Join(c.Output.Dir, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}

// AddRecent records path as the most recently rendered file
func (c *Config) AddRecent(path string) {
	recent := []string{path}
	for _, p := range c.Recent {
		if p != path && len(recent) < maxRecent {
			recent = append(recent, p)
		}
	}
	c.Recent = recent
}

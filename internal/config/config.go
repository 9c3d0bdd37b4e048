package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const FileName = "dubmark.yaml"

// per-project settings; every field falls back to the built-in default
type Config struct {
	// seconds moved by the seek back/forward keys
	SeekStep float64 `yaml:"seek_step"`
	// volume delta for the +/- keys
	VolumeStep int `yaml:"volume_step"`

	// mpv IPC socket; empty picks a unique path in the temp dir
	SocketPath      string        `yaml:"socket_path"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ConnectInterval time.Duration `yaml:"connect_interval"`
	CommandTimeout  time.Duration `yaml:"command_timeout"`

	MPV struct {
		Path      string   `yaml:"path"`
		Geometry  string   `yaml:"geometry"`
		ExtraArgs []string `yaml:"extra_args"`
	} `yaml:"mpv"`

	Audio struct {
		Path string   `yaml:"path"`
		Args []string `yaml:"args"`
	} `yaml:"audio"`

	path string
}

func Default() *Config {
	c := &Config{
		SeekStep:        2,
		VolumeStep:      5,
		ConnectTimeout:  30 * time.Second,
		ConnectInterval: time.Second,
		CommandTimeout:  time.Second,
	}
	c.MPV.Geometry = "1000+1400+200"
	return c
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.path = path
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// file the config was read from; empty when defaults are in use
func (c *Config) Source() string {
	return c.path
}

func (c *Config) normalize() {
	c.SocketPath = strings.TrimSpace(c.SocketPath)
	c.MPV.Path = strings.TrimSpace(c.MPV.Path)
	c.MPV.Geometry = strings.TrimSpace(c.MPV.Geometry)
	c.Audio.Path = strings.TrimSpace(c.Audio.Path)
}

func (c *Config) Validate() error {
	if c.SeekStep <= 0 {
		return fmt.Errorf("seek_step must be positive, got %v", c.SeekStep)
	}
	if c.VolumeStep <= 0 {
		return fmt.Errorf("volume_step must be positive, got %d", c.VolumeStep)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got %v", c.ConnectTimeout)
	}
	if c.ConnectInterval <= 0 {
		return fmt.Errorf("connect_interval must be positive, got %v", c.ConnectInterval)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %v", c.CommandTimeout)
	}
	return nil
}

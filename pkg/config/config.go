// Package config describes the optional YAML configuration file. Values set
// on the command line take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/compress/zstd"
)

type DisplayBackend string

const (
	DisplayBackendTerminal = DisplayBackend("terminal")
	DisplayBackendWindow   = DisplayBackend("window")
	DisplayBackendNull     = DisplayBackend("null")
)

func (b DisplayBackend) Validate() error {
	switch b {
	case DisplayBackendTerminal, DisplayBackendWindow, DisplayBackendNull:
		return nil
	}
	return fmt.Errorf("unknown display backend '%s'", b)
}

type Matrix struct {
	Rows        int     `yaml:"rows"`
	Cols        int     `yaml:"cols"`
	ChainLength int     `yaml:"chain_length"`
	Parallel    int     `yaml:"parallel"`
	RefreshRate float64 `yaml:"refresh_rate"`
}

// Size returns the physical canvas size of the whole panel assembly.
func (m Matrix) Size() (int, int) {
	return m.Cols * m.ChainLength, m.Rows * m.Parallel
}

type Display struct {
	Backend DisplayBackend `yaml:"backend"`
	Rotate  int            `yaml:"rotate"`
	Large   bool           `yaml:"large"`
}

type Playback struct {
	RepeatSeconds float64 `yaml:"repeat_seconds"`
}

func (p Playback) RepeatDuration() time.Duration {
	return time.Duration(p.RepeatSeconds * float64(time.Second))
}

type Stream struct {
	// Compression is the zstd level name: "", "none", "fastest", "default",
	// "better" or "best".
	Compression string `yaml:"compression"`
}

// CompressionLevel returns false if the stream should not be compressed.
func (s Stream) CompressionLevel() (zstd.EncoderLevel, bool, error) {
	switch s.Compression {
	case "", "none":
		return 0, false, nil
	}
	ok, level := zstd.EncoderLevelFromString(s.Compression)
	if !ok {
		return 0, false, fmt.Errorf("unknown stream compression '%s'", s.Compression)
	}
	return level, true, nil
}

type Config struct {
	Matrix   Matrix   `yaml:"matrix"`
	Display  Display  `yaml:"display"`
	Playback Playback `yaml:"playback"`
	Stream   Stream   `yaml:"stream"`
}

func Default() Config {
	return Config{
		Matrix: Matrix{
			Rows:        32,
			Cols:        32,
			ChainLength: 1,
			Parallel:    1,
			RefreshRate: 60,
		},
		Display: Display{
			Backend: DisplayBackendTerminal,
		},
	}
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.Matrix.Rows <= 0 || cfg.Matrix.Cols <= 0 {
		errs = append(errs, fmt.Errorf("invalid panel size %dx%d", cfg.Matrix.Cols, cfg.Matrix.Rows))
	}
	if cfg.Matrix.ChainLength <= 0 || cfg.Matrix.Parallel <= 0 {
		errs = append(errs, fmt.Errorf("invalid chain length %d or parallel %d", cfg.Matrix.ChainLength, cfg.Matrix.Parallel))
	}
	if cfg.Matrix.RefreshRate < 0 {
		errs = append(errs, fmt.Errorf("invalid refresh rate %f", cfg.Matrix.RefreshRate))
	}
	if err := cfg.Display.Backend.Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Playback.RepeatSeconds < 0 {
		errs = append(errs, fmt.Errorf("negative repeat duration %f", cfg.Playback.RepeatSeconds))
	}
	if _, _, err := cfg.Stream.CompressionLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Load reads the file over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("unable to read file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to unserialize config: %w: <%s>", err, b)
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to serialize config %#+v: %w", cfg, err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("unable to write config to file '%s': %w", path, err)
	}
	return nil
}

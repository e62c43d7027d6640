// Package cliflags registers the flags shared by the command line tools and
// merges them over the configuration file.
package cliflags

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/ledplayer/pkg/config"
	"github.com/xaionaro-go/ledplayer/pkg/observability"
	"github.com/xaionaro-go/ledplayer/pkg/xpath"
)

const DefaultConfigPath = "~/.config/ledplayer/ledplayer.yaml"

type Common struct {
	ConfigPath        string
	Verbose           bool
	LogLevel          string
	LogFile           string
	SentryDSN         string
	MetricsListenAddr string
	Version           bool
	SaveConfig        bool

	flagSet *pflag.FlagSet
	file    config.Config
}

// Register adds the shared flags to fs. The matrix flags are bound to the
// defaults and are only applied over the file when set explicitly.
func Register(fs *pflag.FlagSet) *Common {
	c := &Common{flagSet: fs, file: config.Default()}
	fs.StringVar(&c.ConfigPath, "config", DefaultConfigPath, "path to the YAML configuration file")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "verbose output, the same as --log-level=debug")
	fs.StringVar(&c.LogLevel, "log-level", "info", "logging level: trace, debug, info, warning, error, fatal, panic")
	fs.StringVar(&c.LogFile, "log-file", "", "also write logs to this file")
	fs.StringVar(&c.SentryDSN, "sentry-dsn", "", "report errors to Sentry at this DSN")
	fs.StringVar(&c.MetricsListenAddr, "metrics-listen-addr", "", "serve prometheus metrics and net/pprof at this address")
	fs.BoolVar(&c.Version, "version", false, "print the build information and exit")
	fs.BoolVar(&c.SaveConfig, "save-config", false, "write the effective configuration to the config file and exit")

	m := &c.file.Matrix
	fs.IntVar(&m.Rows, "led-rows", m.Rows, "rows of a single panel")
	fs.IntVar(&m.Cols, "led-cols", m.Cols, "columns of a single panel")
	fs.IntVar(&m.ChainLength, "led-chain", m.ChainLength, "amount of daisy-chained panels")
	fs.IntVar(&m.Parallel, "led-parallel", m.Parallel, "amount of parallel chains")
	fs.Float64Var(&m.RefreshRate, "led-refresh-rate", m.RefreshRate, "emulated vertical sync rate in Hz, 0 to disable")
	d := &c.file.Display
	fs.StringVar((*string)(&d.Backend), "display", string(d.Backend), "display backend: terminal, window or null")
	fs.BoolVarP(&d.Large, "large", "L", false, "large display, in which each chain is folded down in the middle in an U-arrangement to get more vertical space")
	fs.IntVarP(&d.Rotate, "rotate", "R", 0, "rotate the output; steps of 90 degrees")
	return c
}

func (c *Common) LoggerLevel() (logger.Level, error) {
	if c.Verbose && !c.Changed("log-level") {
		return logger.LevelDebug, nil
	}
	return observability.ParseLogLevel(c.LogLevel)
}

// Changed reports whether the flag was set on the command line.
func (c *Common) Changed(name string) bool {
	return c.flagSet.Changed(name)
}

// Config loads the configuration file and applies the explicitly set flags
// over it.
func (c *Common) Config() (config.Config, error) {
	path, err := xpath.Expand(c.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("unable to expand '%s': %w", c.ConfigPath, err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	override := func(name string, apply func()) {
		if c.Changed(name) {
			apply()
		}
	}
	override("led-rows", func() { cfg.Matrix.Rows = c.file.Matrix.Rows })
	override("led-cols", func() { cfg.Matrix.Cols = c.file.Matrix.Cols })
	override("led-chain", func() { cfg.Matrix.ChainLength = c.file.Matrix.ChainLength })
	override("led-parallel", func() { cfg.Matrix.Parallel = c.file.Matrix.Parallel })
	override("led-refresh-rate", func() { cfg.Matrix.RefreshRate = c.file.Matrix.RefreshRate })
	override("display", func() { cfg.Display.Backend = c.file.Display.Backend })
	override("large", func() { cfg.Display.Large = c.file.Display.Large })
	override("rotate", func() { cfg.Display.Rotate = c.file.Display.Rotate })

	if cfg.Display.Large && cfg.Matrix.ChainLength == 1 {
		// a single chain of four panels folded into a square
		cfg.Matrix.ChainLength = 4
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to the configuration file, creating its directory.
func (c *Common) Save(cfg config.Config) (string, error) {
	path, err := xpath.Expand(c.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("unable to expand '%s': %w", c.ConfigPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("unable to create the directory for '%s': %w", path, err)
	}
	if err := config.Save(path, cfg); err != nil {
		return "", err
	}
	return path, nil
}

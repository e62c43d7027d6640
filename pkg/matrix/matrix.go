// Package matrix assembles a display from the configuration: it opens the
// selected backend for the whole panel assembly and applies the static
// pixel mappings on top of it.
package matrix

import (
	"context"
	"fmt"
	"io"
	"os"

	"fyne.io/fyne/v2"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/config"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/display/terminal"
	"github.com/xaionaro-go/ledplayer/pkg/display/window"
)

type Options struct {
	Clock clock.Clock

	// Output is where the terminal backend draws; os.Stdout by default.
	Output io.Writer

	// App is required by the window backend.
	App fyne.App

	// OnClosed is called when the window backend is closed by the user.
	OnClosed func()
}

// Open opens the backend and returns the transformed display.
// Closing the returned display closes the backend.
func Open(
	ctx context.Context,
	cfg config.Config,
	opts Options,
) (_ret display.Display, _err error) {
	logger.Debugf(ctx, "Open(ctx, %#+v)", cfg)
	defer func() { logger.Debugf(ctx, "/Open(ctx, %#+v): %v", cfg, _err) }()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	physical, err := openBackend(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to open the '%s' display: %w", cfg.Display.Backend, err)
	}
	d, err := Transform(physical, cfg.Display, cfg.Matrix.Parallel)
	if err != nil {
		_ = physical.Close()
		return nil, err
	}
	logger.Debugf(ctx, "the display is %dx%d (physical %dx%d)", d.Width(), d.Height(), physical.Width(), physical.Height())
	return d, nil
}

func openBackend(
	ctx context.Context,
	cfg config.Config,
	opts Options,
) (display.Display, error) {
	width, height := cfg.Matrix.Size()
	switch cfg.Display.Backend {
	case config.DisplayBackendNull:
		return display.NewNull(width, height, cfg.Matrix.RefreshRate, opts.Clock)
	case config.DisplayBackendTerminal:
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		return terminal.New(ctx, out, terminal.Config{
			Width:       width,
			Height:      height,
			RefreshRate: cfg.Matrix.RefreshRate,
			Clock:       opts.Clock,
		})
	case config.DisplayBackendWindow:
		if opts.App == nil {
			return nil, fmt.Errorf("the window backend requires an app")
		}
		return window.New(ctx, opts.App, window.Config{
			Width:       width,
			Height:      height,
			RefreshRate: cfg.Matrix.RefreshRate,
			Clock:       opts.Clock,
			OnClosed:    opts.OnClosed,
		})
	default:
		return nil, cfg.Display.Backend.Validate()
	}
}

// Transform applies the U-arrangement (if large) and then the rotation.
func Transform(
	d display.Display,
	cfg config.Display,
	parallel int,
) (display.Display, error) {
	var err error
	if cfg.Large {
		d, err = display.UArrangement(d, parallel)
		if err != nil {
			return nil, fmt.Errorf("unable to fold the panels: %w", err)
		}
	}
	d, err = display.Rotate(d, cfg.Rotate)
	if err != nil {
		return nil, fmt.Errorf("unable to rotate: %w", err)
	}
	return d, nil
}

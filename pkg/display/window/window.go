// Package window shows the matrix picture in a desktop window, scaled up
// with nearest-neighbour sampling so every LED stays a crisp square.
package window

import (
	"context"
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
	"github.com/xaionaro-go/xsync"
)

type Config struct {
	Title       string
	Width       int
	Height      int
	Scale       int
	RefreshRate float64
	Clock       clock.Clock

	// OnClosed is called when the user closes the window.
	OnClosed func()
}

type Display struct {
	*display.DoubleBuffer
	window fyne.Window
	image  *canvas.Image
	locker xsync.Mutex
}

var _ display.Display = (*Display)(nil)

// New creates the window within the app; it must be called from the
// goroutine that later runs app.Run().
func New(
	ctx context.Context,
	app fyne.App,
	cfg Config,
) (*Display, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = 8
	}
	if cfg.Title == "" {
		cfg.Title = "ledplayer"
	}

	d := &Display{}
	buf, err := display.NewDoubleBuffer(cfg.Width, cfg.Height, cfg.RefreshRate, cfg.Clock, d)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the buffers: %w", err)
	}
	d.DoubleBuffer = buf

	d.image = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)))
	d.image.FillMode = canvas.ImageFillContain
	d.image.ScaleMode = canvas.ImageScalePixels

	d.window = app.NewWindow(cfg.Title)
	d.window.SetContent(d.image)
	d.window.Resize(fyne.NewSize(float32(cfg.Width*cfg.Scale), float32(cfg.Height*cfg.Scale)))
	if cfg.OnClosed != nil {
		d.window.SetOnClosed(cfg.OnClosed)
	}
	d.window.Show()
	logger.Debugf(ctx, "opened a %dx%d window (scale %d)", cfg.Width, cfg.Height, cfg.Scale)
	return d, nil
}

// Present publishes a new picture; an already published one is never
// written again since the renderer may still be reading it.
func (d *Display) Present(ctx context.Context, f *frame.RGB) error {
	m := toRGBA(f)
	d.locker.Do(ctx, func() {
		d.image.Image = m
	})
	d.image.Refresh()
	return nil
}

// Picture returns the picture shown currently.
func (d *Display) Picture(ctx context.Context) image.Image {
	return xsync.DoR1(ctx, &d.locker, func() image.Image {
		return d.image.Image
	})
}

func toRGBA(f *frame.RGB) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			i := m.PixOffset(x, y)
			m.Pix[i+0] = r
			m.Pix[i+1] = g
			m.Pix[i+2] = b
			m.Pix[i+3] = 0xff
		}
	}
	return m
}

func (d *Display) Close() error {
	err := d.DoubleBuffer.Close()
	d.window.Close()
	return err
}

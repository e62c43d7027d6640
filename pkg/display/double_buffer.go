package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

// Presenter shows a frame on a physical or virtual device. The frame must
// not be retained after Present returns.
type Presenter interface {
	Present(ctx context.Context, f *frame.RGB) error
}

// DoubleBuffer implements the swap-on-vsync part of a Display on top of a
// Presenter. The vertical sync is emulated by a ticker at the refresh rate;
// a non-positive refresh rate disables waiting.
type DoubleBuffer struct {
	width     int
	height    int
	presenter Presenter
	ticker    *clock.Ticker

	locker   sync.Mutex
	onscreen *FrameCanvas
	closed   bool
}

func NewDoubleBuffer(
	width, height int,
	refreshRate float64,
	clk clock.Clock,
	presenter Presenter,
) (*DoubleBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid display size %dx%d", width, height)
	}
	b := &DoubleBuffer{
		width:     width,
		height:    height,
		presenter: presenter,
		onscreen:  NewFrameCanvas(width, height),
	}
	if refreshRate > 0 {
		b.ticker = clock.OrDefault(clk).Ticker(time.Duration(float64(time.Second) / refreshRate))
	}
	return b, nil
}

func (b *DoubleBuffer) Width() int {
	return b.width
}

func (b *DoubleBuffer) Height() int {
	return b.height
}

func (b *DoubleBuffer) CreateFrameCanvas() Canvas {
	return NewFrameCanvas(b.width, b.height)
}

func (b *DoubleBuffer) waitVSync(ctx context.Context) error {
	if b.ticker == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.ticker.C:
		return nil
	}
}

func (b *DoubleBuffer) SwapOnVSync(
	ctx context.Context,
	offscreen Canvas,
) (Canvas, error) {
	fc, ok := offscreen.(*FrameCanvas)
	if !ok {
		return nil, fmt.Errorf("the canvas %T was not created by this display", offscreen)
	}
	if fc.Width() != b.width || fc.Height() != b.height {
		return nil, fmt.Errorf("the canvas is %dx%d, but the display is %dx%d", fc.Width(), fc.Height(), b.width, b.height)
	}

	if err := b.waitVSync(ctx); err != nil {
		return nil, err
	}

	b.locker.Lock()
	defer b.locker.Unlock()
	if b.closed {
		return nil, fmt.Errorf("the display is closed")
	}
	if err := b.presenter.Present(ctx, fc.RGB); err != nil {
		return nil, fmt.Errorf("unable to present the frame: %w", err)
	}
	prev := b.onscreen
	b.onscreen = fc
	return prev, nil
}

// Onscreen returns a copy of what is currently shown.
func (b *DoubleBuffer) Onscreen() *frame.RGB {
	b.locker.Lock()
	defer b.locker.Unlock()
	return b.onscreen.RGB.Clone()
}

func (b *DoubleBuffer) Close() error {
	b.locker.Lock()
	defer b.locker.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.ticker != nil {
		b.ticker.Stop()
	}
	return nil
}

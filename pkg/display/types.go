package display

import (
	"context"
)

// Canvas is a pixel surface which may be written while it is offscreen.
type Canvas interface {
	Width() int
	Height() int
	SetPixel(x, y int, r, g, b uint8)
	Clear()
}

// Display is a double-buffered output device.
type Display interface {
	Width() int
	Height() int

	// CreateFrameCanvas returns a new offscreen canvas of the display size.
	CreateFrameCanvas() Canvas

	// SwapOnVSync blocks until the next vertical sync, shows the offscreen
	// canvas and returns the previously shown canvas, which is now offscreen
	// and may be written into.
	SwapOnVSync(ctx context.Context, offscreen Canvas) (Canvas, error)

	Close() error
}

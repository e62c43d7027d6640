package display

import (
	"context"
	"fmt"
	"sync"
)

// PixelMapper maps logical coordinates onto the coordinates of the
// underlying (physical) canvas.
type PixelMapper interface {
	LogicalSize(physicalWidth, physicalHeight int) (width, height int)
	MapPixel(x, y int) (px, py int)
}

type transformedCanvas struct {
	inner  Canvas
	width  int
	height int
	mapper PixelMapper
}

var _ Canvas = (*transformedCanvas)(nil)

func (c *transformedCanvas) Width() int  { return c.width }
func (c *transformedCanvas) Height() int { return c.height }
func (c *transformedCanvas) Clear()      { c.inner.Clear() }

func (c *transformedCanvas) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	px, py := c.mapper.MapPixel(x, y)
	c.inner.SetPixel(px, py, r, g, b)
}

// TransformedDisplay applies a static geometry transformation to every
// canvas of the wrapped display.
type TransformedDisplay struct {
	Display
	width    int
	height   int
	mapper   PixelMapper
	locker   sync.Mutex
	wrappers map[Canvas]*transformedCanvas
}

var _ Display = (*TransformedDisplay)(nil)

func NewTransformedDisplay(d Display, mapper PixelMapper) *TransformedDisplay {
	width, height := mapper.LogicalSize(d.Width(), d.Height())
	return &TransformedDisplay{
		Display:  d,
		width:    width,
		height:   height,
		mapper:   mapper,
		wrappers: map[Canvas]*transformedCanvas{},
	}
}

func (d *TransformedDisplay) Width() int  { return d.width }
func (d *TransformedDisplay) Height() int { return d.height }

func (d *TransformedDisplay) wrap(inner Canvas) *transformedCanvas {
	d.locker.Lock()
	defer d.locker.Unlock()
	if w, ok := d.wrappers[inner]; ok {
		return w
	}
	w := &transformedCanvas{
		inner:  inner,
		width:  d.width,
		height: d.height,
		mapper: d.mapper,
	}
	d.wrappers[inner] = w
	return w
}

func (d *TransformedDisplay) CreateFrameCanvas() Canvas {
	return d.wrap(d.Display.CreateFrameCanvas())
}

func (d *TransformedDisplay) SwapOnVSync(
	ctx context.Context,
	offscreen Canvas,
) (Canvas, error) {
	c, ok := offscreen.(*transformedCanvas)
	if !ok {
		return nil, fmt.Errorf("the canvas %T was not created by this display", offscreen)
	}
	prev, err := d.Display.SwapOnVSync(ctx, c.inner)
	if err != nil {
		return nil, err
	}
	return d.wrap(prev), nil
}

type rotation struct {
	angle          int
	physicalWidth  int
	physicalHeight int
}

func (r *rotation) LogicalSize(physicalWidth, physicalHeight int) (int, int) {
	r.physicalWidth, r.physicalHeight = physicalWidth, physicalHeight
	switch r.angle {
	case 90, 270:
		return physicalHeight, physicalWidth
	default:
		return physicalWidth, physicalHeight
	}
}

func (r *rotation) MapPixel(x, y int) (int, int) {
	switch r.angle {
	case 90:
		return r.physicalWidth - 1 - y, x
	case 180:
		return r.physicalWidth - 1 - x, r.physicalHeight - 1 - y
	case 270:
		return y, r.physicalHeight - 1 - x
	default:
		return x, y
	}
}

// NormalizeAngle converts any multiple of 90 (including negative ones) into
// one of 0, 90, 180, 270.
func NormalizeAngle(angle int) (int, error) {
	if angle%90 != 0 {
		return 0, fmt.Errorf("the rotation angle must be a multiple of 90, got %d", angle)
	}
	return ((angle % 360) + 360) % 360, nil
}

// Rotate rotates the picture clockwise by the angle.
func Rotate(d Display, angle int) (Display, error) {
	angle, err := NormalizeAngle(angle)
	if err != nil {
		return nil, err
	}
	if angle == 0 {
		return d, nil
	}
	return NewTransformedDisplay(d, &rotation{angle: angle}), nil
}

type uArrangement struct {
	parallel    int
	panelHeight int
	halfWidth   int
}

func (u *uArrangement) LogicalSize(physicalWidth, physicalHeight int) (int, int) {
	u.panelHeight = physicalHeight / u.parallel
	u.halfWidth = physicalWidth / 2
	return u.halfWidth, 2 * physicalHeight
}

// MapPixel folds every chain in the middle: the upper half of a slab is
// the second half of the chain, the lower half is the first half of the
// chain turned upside down.
func (u *uArrangement) MapPixel(x, y int) (int, int) {
	slabHeight := 2 * u.panelHeight
	slab := y / slabHeight
	ny := y % slabHeight
	if ny < u.panelHeight {
		return u.halfWidth + x, slab*u.panelHeight + ny
	}
	return u.halfWidth - 1 - x, slab*u.panelHeight + (slabHeight - 1 - ny)
}

// UArrangement maps a long chain of panels folded into a U-shape onto a
// display of half the width and double the height.
func UArrangement(d Display, parallel int) (Display, error) {
	if parallel <= 0 {
		return nil, fmt.Errorf("the amount of parallel chains must be positive, got %d", parallel)
	}
	if d.Width()%2 != 0 {
		return nil, fmt.Errorf("the chain length in pixels (%d) must be even to fold it", d.Width())
	}
	if d.Height()%parallel != 0 {
		return nil, fmt.Errorf("the display height %d is not divisible by the amount of parallel chains %d", d.Height(), parallel)
	}
	return NewTransformedDisplay(d, &uArrangement{parallel: parallel}), nil
}

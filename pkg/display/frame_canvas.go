package display

import (
	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

// FrameCanvas is an in-memory Canvas backed by an RGB frame.
type FrameCanvas struct {
	*frame.RGB
}

var _ Canvas = (*FrameCanvas)(nil)

func NewFrameCanvas(width, height int) *FrameCanvas {
	return &FrameCanvas{RGB: frame.NewRGB(width, height)}
}

func (c *FrameCanvas) Width() int {
	return c.RGB.Width
}

func (c *FrameCanvas) Height() int {
	return c.RGB.Height
}

func (c *FrameCanvas) SetPixel(x, y int, r, g, b uint8) {
	c.RGB.Set(x, y, r, g, b)
}

func (c *FrameCanvas) Clear() {
	clear(c.RGB.Pix)
}

// CopyFrame writes the frame into the canvas; pixels outside of the
// intersection of both sizes are left untouched.
func CopyFrame(dst Canvas, src *frame.RGB) {
	if fc, ok := dst.(*FrameCanvas); ok && fc.RGB.Width == src.Width && fc.RGB.Height == src.Height {
		copy(fc.RGB.Pix, src.Pix)
		return
	}
	width, height := min(dst.Width(), src.Width), min(dst.Height(), src.Height)
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Width*frame.BytesPerPixel:]
		for x := 0; x < width; x++ {
			p := row[x*frame.BytesPerPixel:]
			dst.SetPixel(x, y, p[0], p[1], p[2])
		}
	}
}

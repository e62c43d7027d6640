package frame

import (
	"fmt"
	"image"
	"image/color"
)

const BytesPerPixel = 3

// RGB is a fixed-size grid of packed 8-bit r,g,b pixels, row by row.
type RGB struct {
	Width  int
	Height int
	Pix    []byte
}

var _ image.Image = (*RGB)(nil)

func NewRGB(width, height int) *RGB {
	return &RGB{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// NewRGBFromBytes wraps pix without copying it.
func NewRGBFromBytes(width, height int, pix []byte) (*RGB, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if expected := width * height * BytesPerPixel; len(pix) != expected {
		return nil, fmt.Errorf("expected %d bytes for a %dx%d frame, but got %d", expected, width, height, len(pix))
	}
	return &RGB{
		Width:  width,
		Height: height,
		Pix:    pix,
	}, nil
}

func (f *RGB) Size() int {
	return len(f.Pix)
}

func (f *RGB) offset(x, y int) int {
	return (y*f.Width + x) * BytesPerPixel
}

func (f *RGB) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

func (f *RGB) Set(x, y int, r, g, b uint8) {
	if !f.inBounds(x, y) {
		return
	}
	i := f.offset(x, y)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

func (f *RGB) RGBAt(x, y int) (r, g, b uint8) {
	if !f.inBounds(x, y) {
		return 0, 0, 0
	}
	i := f.offset(x, y)
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

func (f *RGB) Clone() *RGB {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &RGB{
		Width:  f.Width,
		Height: f.Height,
		Pix:    pix,
	}
}

func (f *RGB) ColorModel() color.Model {
	return color.RGBAModel
}

func (f *RGB) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *RGB) At(x, y int) color.Color {
	r, g, b := f.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

func (f *RGB) String() string {
	return fmt.Sprintf("RGB(%dx%d)", f.Width, f.Height)
}

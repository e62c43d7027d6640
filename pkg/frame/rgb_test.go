package frame

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBSetGet(t *testing.T) {
	f := NewRGB(4, 3)
	require.Equal(t, 4*3*3, f.Size())

	f.Set(1, 2, 10, 20, 30)
	r, g, b := f.RGBAt(1, 2)
	assert.Equal(t, [3]uint8{10, 20, 30}, [3]uint8{r, g, b})
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 0xff}, f.At(1, 2))

	// out of bounds is a no-op
	f.Set(4, 0, 1, 1, 1)
	f.Set(-1, 0, 1, 1, 1)
	r, g, b = f.RGBAt(10, 10)
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestRGBClone(t *testing.T) {
	f := NewRGB(2, 2)
	f.Set(0, 0, 1, 2, 3)
	c := f.Clone()
	c.Set(0, 0, 9, 9, 9)
	r, _, _ := f.RGBAt(0, 0)
	assert.Equal(t, uint8(1), r)
}

func TestNewRGBFromBytes(t *testing.T) {
	_, err := NewRGBFromBytes(2, 2, make([]byte, 11))
	require.Error(t, err)

	_, err = NewRGBFromBytes(0, 2, nil)
	require.Error(t, err)

	f, err := NewRGBFromBytes(2, 2, make([]byte, 12))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Bounds().Dx())
}

package window

import (
	"context"
	"image"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

func TestPresentPublishesFreshPicture(t *testing.T) {
	ctx := context.Background()
	app := test.NewApp()
	defer app.Quit()

	d, err := New(ctx, app, Config{Width: 2, Height: 2})
	require.NoError(t, err)
	defer d.Close()

	red := frame.NewRGB(2, 2)
	red.Set(1, 1, 0xff, 0, 0)
	require.NoError(t, d.Present(ctx, red))
	first := d.Picture(ctx).(*image.RGBA)
	firstPix := append([]byte(nil), first.Pix...)

	blue := frame.NewRGB(2, 2)
	blue.Set(1, 1, 0, 0, 0xff)
	require.NoError(t, d.Present(ctx, blue))
	second := d.Picture(ctx).(*image.RGBA)

	assert.NotSame(t, first, second)
	assert.Equal(t, firstPix, first.Pix, "a published picture must stay untouched")
	r, g, b, _ := second.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0, 0, 0xffff}, []uint32{r, g, b})
}

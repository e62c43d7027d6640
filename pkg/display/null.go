package display

import (
	"context"
	"sync/atomic"

	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

// Null is a headless display; it only counts presented frames.
type Null struct {
	*DoubleBuffer
	presented atomic.Uint64
}

var _ Display = (*Null)(nil)

func NewNull(
	width, height int,
	refreshRate float64,
	clk clock.Clock,
) (*Null, error) {
	d := &Null{}
	buf, err := NewDoubleBuffer(width, height, refreshRate, clk, d)
	if err != nil {
		return nil, err
	}
	d.DoubleBuffer = buf
	return d, nil
}

func (d *Null) Present(_ context.Context, _ *frame.RGB) error {
	d.presented.Add(1)
	return nil
}

func (d *Null) Presented() uint64 {
	return d.presented.Load()
}

package playback

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
	"github.com/xaionaro-go/ledplayer/pkg/interrupt"
)

type fakeOpener struct {
	sources map[string]*fakeSource
	errors  map[string]error
	opened  []string
}

func (o *fakeOpener) Open(_ context.Context, path string, width, height int) (framesource.Source, error) {
	o.opened = append(o.opened, path)
	if err := o.errors[path]; err != nil {
		return nil, err
	}
	src, ok := o.sources[path]
	if !ok {
		return nil, fmt.Errorf("%w: no such file '%s'", framesource.ErrOpen, path)
	}
	return src, nil
}

func TestPlayerSkipsBrokenFiles(t *testing.T) {
	clk := clock.NewSteppingMock()
	metrics := NewMetrics(prometheus.NewRegistry())
	a := &fakeSource{fps: 10, frames: 5}
	b := &fakeSource{fps: 10, frames: 3}
	noRate := &fakeSource{frames: 3}
	opener := &fakeOpener{
		sources: map[string]*fakeSource{"a.mp4": a, "b.mp4": b, "norate.mp4": noRate},
		errors:  map[string]error{"audio.mp3": framesource.ErrNoVideoStream},
	}
	sink := &pacedSink{clock: clk}
	p := &Player{
		Opener:  opener,
		Sink:    sink,
		Width:   testWidth,
		Height:  testHeight,
		Clock:   clk,
		Metrics: metrics,
	}

	summary, err := p.Play(context.Background(), []string{"a.mp4", "audio.mp3", "missing.mp4", "norate.mp4", "b.mp4"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Played)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, uint64(8), summary.Frames)
	assert.False(t, summary.Interrupted)
	assert.Len(t, sink.frames, 8)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.FilesSkipped))
	for _, src := range []*fakeSource{a, b, noRate} {
		assert.Equal(t, 1, src.closed)
	}
}

func TestPlayerInterruptAbortsRemainingFiles(t *testing.T) {
	clk := clock.NewSteppingMock()
	ctrl := interrupt.New()
	a := &fakeSource{fps: 10, frames: 10, seekDefault: true}
	opener := &fakeOpener{sources: map[string]*fakeSource{
		"a.mp4": a,
		"b.mp4": {fps: 10, frames: 10},
	}}
	sink := &pacedSink{clock: clk, onWrite: func(n int) {
		if n == 3 {
			ctrl.Interrupt()
		}
	}}
	p := &Player{
		Opener:         opener,
		Sink:           sink,
		Width:          testWidth,
		Height:         testHeight,
		RepeatDuration: time.Hour,
		Clock:          clk,
		Interrupt:      ctrl,
	}

	summary, err := p.Play(context.Background(), []string{"a.mp4", "b.mp4"})
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Equal(t, []string{"a.mp4"}, opener.opened)
	assert.Len(t, sink.frames, 3)
	assert.Equal(t, 1, a.closed)
}

func TestPlayerSetupErrorAborts(t *testing.T) {
	opener := &fakeOpener{
		sources: map[string]*fakeSource{"b.mp4": {fps: 10, frames: 10}},
		errors:  map[string]error{"a.mp4": fmt.Errorf("%w: 1x1 -> 0x0", framesource.ErrScaler)},
	}
	p := &Player{
		Opener: opener,
		Sink:   &pacedSink{clock: clock.NewSteppingMock()},
		Width:  testWidth,
		Height: testHeight,
	}
	_, err := p.Play(context.Background(), []string{"a.mp4", "b.mp4"})
	require.ErrorIs(t, err, framesource.ErrScaler)
	assert.Equal(t, []string{"a.mp4"}, opener.opened)
}

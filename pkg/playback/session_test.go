package playback

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
	"github.com/xaionaro-go/ledplayer/pkg/framestream"
	"github.com/xaionaro-go/ledplayer/pkg/interrupt"
)

func runSession(t *testing.T, src *fakeSource, sink Sink, cfg Config) Stats {
	t.Helper()
	s, err := NewSession(src, sink, cfg)
	require.NoError(t, err)
	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	return stats
}

func TestSessionLiveDisplay(t *testing.T) {
	clk := &sleepCountingClock{SteppingMock: clock.NewSteppingMock()}
	d, err := display.NewNull(testWidth, testHeight, 0, clk)
	require.NoError(t, err)
	defer d.Close()
	sink := NewDisplaySink(d)
	src := &fakeSource{fps: 25, frames: 100}

	stats := runSession(t, src, sink, Config{Clock: clk})

	assert.Equal(t, uint64(100), sink.Swaps())
	assert.Equal(t, uint64(100), d.Presented())
	assert.Zero(t, clk.sleeps)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, uint64(100), stats.FramesLastPass)
	assert.False(t, stats.Interrupted)
	assert.Zero(t, src.seekCalls)
}

func TestSessionStreamOutput(t *testing.T) {
	clk := &sleepCountingClock{SteppingMock: clock.NewSteppingMock()}
	var buf bytes.Buffer
	w, err := framestream.NewWriter(&buf, testWidth, testHeight)
	require.NoError(t, err)
	src := &fakeSource{fps: 30, frames: 90}

	stats := runSession(t, src, NewStreamSink(w, clk), Config{Clock: clk})
	require.Equal(t, uint64(90), stats.FramesTotal)
	require.Equal(t, 90, clk.sleeps)
	require.Equal(t, 90*33333*time.Microsecond, stats.Elapsed)

	r, err := framestream.NewReader(&buf)
	require.NoError(t, err)
	idx := 0
	for rec, err := range r.All() {
		require.NoError(t, err)
		require.Equal(t, uint32(33333), rec.DelayMicros)
		red, green, blue := rec.Frame.RGBAt(idx%testWidth, 0)
		require.Equal(t, [3]uint8{uint8(idx), uint8(idx >> 8), 0xff}, [3]uint8{red, green, blue}, "record #%d", idx)
		idx++
	}
	require.Equal(t, 90, idx)
}

func TestSessionRepeatUntilDuration(t *testing.T) {
	clk := clock.NewSteppingMock()
	var buf bytes.Buffer
	w, err := framestream.NewWriter(&buf, testWidth, testHeight)
	require.NoError(t, err)
	src := &fakeSource{fps: 10, frames: 20, seekDefault: true}

	stats := runSession(t, src, NewStreamSink(w, clk), Config{
		RepeatDuration: 5 * time.Second,
		Clock:          clk,
	})
	assert.Equal(t, 3, stats.Passes)
	assert.Equal(t, uint64(20), stats.FramesLastPass)
	assert.Equal(t, uint64(60), stats.FramesTotal)
	assert.Equal(t, 6*time.Second, stats.Elapsed)
	assert.Equal(t, uint64(60), w.FramesWritten())
}

func TestSessionPassCount(t *testing.T) {
	for _, tc := range []struct {
		repeat   time.Duration
		expected int
	}{
		{repeat: 0, expected: 1},
		{repeat: time.Second, expected: 1},
		{repeat: 1500 * time.Millisecond, expected: 2},
		{repeat: 3500 * time.Millisecond, expected: 4},
		{repeat: 4 * time.Second, expected: 4},
	} {
		clk := clock.NewSteppingMock()
		src := &fakeSource{fps: 10, frames: 10, seekDefault: true}
		stats := runSession(t, src, &pacedSink{clock: clk}, Config{
			RepeatDuration: tc.repeat,
			Clock:          clk,
		})
		assert.Equal(t, tc.expected, stats.Passes, "repeat %v", tc.repeat)
	}
}

func TestSessionSeekFailureEndsNormally(t *testing.T) {
	clk := clock.NewSteppingMock()
	src := &fakeSource{fps: 10, frames: 10, seekDefault: false}
	sink := &pacedSink{clock: clk}
	stats := runSession(t, src, sink, Config{
		RepeatDuration: time.Hour,
		Clock:          clk,
	})
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, 1, src.seekCalls)
	assert.Len(t, sink.frames, 10)
	assert.False(t, stats.Interrupted)
}

func TestSessionInterruptMidPass(t *testing.T) {
	clk := clock.NewSteppingMock()
	ctrl := interrupt.New()
	src := &fakeSource{fps: 10, frames: 50, seekDefault: true}
	sink := &pacedSink{clock: clk, onWrite: func(n int) {
		if n == 7 {
			ctrl.Interrupt()
		}
	}}
	stats := runSession(t, src, sink, Config{
		RepeatDuration: time.Hour,
		Clock:          clk,
		Interrupt:      ctrl,
	})
	assert.True(t, stats.Interrupted)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, uint64(7), stats.FramesLastPass)
	assert.Len(t, sink.frames, 7)
	assert.Zero(t, src.seekCalls)
}

func TestSessionSkipsDecodeErrors(t *testing.T) {
	clk := clock.NewSteppingMock()
	metrics := NewMetrics(prometheus.NewRegistry())
	src := &fakeSource{fps: 10, frames: 10, decodeErrors: map[int]bool{2: true, 5: true}}
	sink := &pacedSink{clock: clk}
	stats := runSession(t, src, sink, Config{Clock: clk, Metrics: metrics})
	assert.Equal(t, uint64(8), stats.FramesLastPass)
	assert.Len(t, sink.frames, 8)
	assert.Equal(t, float64(8), testutil.ToFloat64(metrics.FramesPresented))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.FramesSkipped))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Passes))
}

func TestSessionNoFrameRate(t *testing.T) {
	src := &fakeSource{frames: 10}
	sink := &pacedSink{clock: clock.NewSteppingMock()}
	s, err := NewSession(src, sink, Config{})
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.ErrorIs(t, err, ErrNoFrameRate)
	require.Empty(t, sink.frames)
	require.NoError(t, s.Close())
}

type failingSink struct{}

func (failingSink) WriteFrame(context.Context, *frame.RGB, time.Duration) error {
	return errors.New("disk full")
}

func (failingSink) Close() error {
	return nil
}

func TestSessionSinkError(t *testing.T) {
	src := &fakeSource{fps: 10, frames: 10}
	s, err := NewSession(src, failingSink{}, Config{Clock: clock.NewSteppingMock()})
	require.NoError(t, err)
	stats, err := s.Run(context.Background())
	require.ErrorContains(t, err, "disk full")
	require.Zero(t, stats.FramesTotal)
	require.NoError(t, s.Close())
}

func TestSessionCloseIdempotent(t *testing.T) {
	clk := clock.NewSteppingMock()
	src := &fakeSource{fps: 10, frames: 3}
	sink := &pacedSink{clock: clk}
	s, err := NewSession(src, sink, Config{Clock: clk})
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, src.closed)
	assert.Equal(t, 1, sink.closed)
}

package playback

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
	"github.com/xaionaro-go/ledplayer/pkg/framestream"
)

// Sink is where a session puts decoded frames. WriteFrame is responsible
// for pacing: it returns when the next frame may be written.
type Sink interface {
	WriteFrame(ctx context.Context, f *frame.RGB, frameWait time.Duration) error
	Close() error
}

// DisplaySink presents frames on a live display. The vsync swap is the pacing.
type DisplaySink struct {
	display   display.Display
	offscreen display.Canvas
	swaps     atomic.Uint64
}

var _ Sink = (*DisplaySink)(nil)

func NewDisplaySink(d display.Display) *DisplaySink {
	return &DisplaySink{
		display:   d,
		offscreen: d.CreateFrameCanvas(),
	}
}

func (s *DisplaySink) WriteFrame(
	ctx context.Context,
	f *frame.RGB,
	_ time.Duration,
) error {
	display.CopyFrame(s.offscreen, f)
	next, err := s.display.SwapOnVSync(ctx, s.offscreen)
	if err != nil {
		return fmt.Errorf("unable to swap the canvas: %w", err)
	}
	if next == nil {
		next = s.display.CreateFrameCanvas()
	}
	s.offscreen = next
	s.swaps.Add(1)
	return nil
}

// Swaps returns how many frames were presented.
func (s *DisplaySink) Swaps() uint64 {
	return s.swaps.Load()
}

// Close does not close the display: it outlives the sessions.
func (s *DisplaySink) Close() error {
	return nil
}

// StreamSink records frames into a frame stream. After each frame it sleeps
// for the frame interval so the stream is produced in real time.
type StreamSink struct {
	writer *framestream.Writer
	clock  clock.Clock
}

var _ Sink = (*StreamSink)(nil)

func NewStreamSink(w *framestream.Writer, clk clock.Clock) *StreamSink {
	return &StreamSink{
		writer: w,
		clock:  clock.OrDefault(clk),
	}
}

func (s *StreamSink) WriteFrame(
	ctx context.Context,
	f *frame.RGB,
	frameWait time.Duration,
) error {
	micros := frameWait.Microseconds()
	switch {
	case micros < 0:
		micros = 0
	case micros > math.MaxUint32:
		micros = math.MaxUint32
	}
	if err := s.writer.Append(f, uint32(micros)); err != nil {
		return fmt.Errorf("unable to append a frame to the stream: %w", err)
	}
	// an interrupted wait is noticed by the session before the next frame
	_ = clock.SleepContext(ctx, s.clock, frameWait)
	return nil
}

func (s *StreamSink) Writer() *framestream.Writer {
	return s.writer
}

// Close flushes the stream; the writer itself is closed by its owner.
func (s *StreamSink) Close() error {
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("unable to flush the stream: %w", err)
	}
	return nil
}

package playback

import (
	"context"
	"io"
	"time"

	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
)

const (
	testWidth  = 4
	testHeight = 2
)

type fakeSource struct {
	fps          float64
	tbNum, tbDen int
	frames       int
	decodeErrors map[int]bool
	// seekResults is consumed one per SeekToStart call; once empty, seekDefault is used
	seekResults []bool
	seekDefault bool

	pos       int
	seekCalls int
	closed    int
}

var _ framesource.Source = (*fakeSource)(nil)

func (s *fakeSource) DeclaredFPS() float64 {
	return s.fps
}

func (s *fakeSource) TimeBase() (int, int) {
	return s.tbNum, s.tbDen
}

func (s *fakeSource) NextFrame(ctx context.Context) (*frame.RGB, error) {
	if s.pos >= s.frames {
		return nil, io.EOF
	}
	idx := s.pos
	s.pos++
	if s.decodeErrors[idx] {
		return nil, framesource.ErrDecode
	}
	f := frame.NewRGB(testWidth, testHeight)
	f.Set(idx%testWidth, 0, uint8(idx), uint8(idx>>8), 0xff)
	return f, nil
}

func (s *fakeSource) SeekToStart(ctx context.Context) bool {
	s.seekCalls++
	ok := s.seekDefault
	if len(s.seekResults) > 0 {
		ok = s.seekResults[0]
		s.seekResults = s.seekResults[1:]
	}
	if ok {
		s.pos = 0
	}
	return ok
}

func (s *fakeSource) Close() error {
	s.closed++
	return nil
}

// pacedSink advances the mocked clock by the frame interval, like a display
// that blocks until vsync would.
type pacedSink struct {
	clock   *clock.SteppingMock
	frames  []*frame.RGB
	onWrite func(n int)
	closed  int
}

func (s *pacedSink) WriteFrame(_ context.Context, f *frame.RGB, frameWait time.Duration) error {
	s.frames = append(s.frames, f)
	s.clock.Sleep(frameWait)
	if s.onWrite != nil {
		s.onWrite(len(s.frames))
	}
	return nil
}

func (s *pacedSink) Close() error {
	s.closed++
	return nil
}

type sleepCountingClock struct {
	*clock.SteppingMock
	sleeps int
}

func (c *sleepCountingClock) Sleep(d time.Duration) {
	c.sleeps++
	c.SteppingMock.Sleep(d)
}

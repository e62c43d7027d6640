package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
	"github.com/xaionaro-go/ledplayer/pkg/interrupt"
)

type Config struct {
	// RepeatDuration is the minimal total play time; passes are repeated
	// until it is reached.
	RepeatDuration time.Duration
	Clock          clock.Clock
	Interrupt      *interrupt.Controller
	Path           string
	Metrics        *Metrics
}

type Stats struct {
	Passes         int
	FramesLastPass uint64
	FramesTotal    uint64
	Elapsed        time.Duration
	Interrupted    bool
}

// Session plays one source into one sink, possibly several times.
type Session struct {
	ID     uuid.UUID
	source framesource.Source
	sink   Sink
	config Config
	clock  clock.Clock

	closeOnce sync.Once
	closeErr  error
}

func NewSession(
	source framesource.Source,
	sink Sink,
	cfg Config,
) (*Session, error) {
	if source == nil {
		return nil, fmt.Errorf("source is not set")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is not set")
	}
	return &Session{
		ID:     uuid.New(),
		source: source,
		sink:   sink,
		config: cfg,
		clock:  clock.OrDefault(cfg.Clock),
	}, nil
}

func (s *Session) interrupted(ctx context.Context) bool {
	return s.config.Interrupt.IsInterrupted() || ctx.Err() != nil
}

// Run plays passes until the repeat duration is reached, the source cannot
// be rewound, or an interrupt is observed. Run does not release the source
// and the sink; call Close for that.
func (s *Session) Run(ctx context.Context) (_ret Stats, _err error) {
	ctx = belt.WithField(ctx, "session_id", s.ID.String())
	if s.config.Path != "" {
		ctx = belt.WithField(ctx, "path", s.config.Path)
	}
	logger.Debugf(ctx, "Run")
	defer func() { logger.Debugf(ctx, "/Run: %#+v %v", _ret, _err) }()

	var stats Stats
	num, den := s.source.TimeBase()
	frameWait, err := FrameWait(s.source.DeclaredFPS(), num, den)
	if err != nil {
		return stats, fmt.Errorf("declared fps %f, time base %d/%d: %w", s.source.DeclaredFPS(), num, den, err)
	}
	logger.Debugf(ctx, "FPS: %f (frame wait %v)", float64(time.Second)/float64(frameWait), frameWait)

	startedAt := s.clock.Now()
	for {
		frames, interrupted, err := s.runPass(ctx, frameWait)
		stats.Passes++
		stats.FramesLastPass = frames
		stats.FramesTotal += frames
		stats.Elapsed = s.clock.Since(startedAt)
		s.config.Metrics.passFinished()
		logger.Infof(ctx, "finished loop %d (%d frames) after %.1fs", stats.Passes, frames, stats.Elapsed.Seconds())
		if err != nil {
			return stats, err
		}
		if interrupted || s.interrupted(ctx) {
			stats.Interrupted = true
			return stats, nil
		}

		if stats.Elapsed >= s.config.RepeatDuration {
			return stats, nil
		}
		if !s.source.SeekToStart(ctx) {
			logger.Debugf(ctx, "unable to rewind the source, not repeating")
			return stats, nil
		}
	}
}

func (s *Session) runPass(
	ctx context.Context,
	frameWait time.Duration,
) (uint64, bool, error) {
	var frames uint64
	for {
		if s.interrupted(ctx) {
			return frames, true, nil
		}

		f, err := s.source.NextFrame(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return frames, false, nil
		case errors.Is(err, framesource.ErrDecode):
			logger.Tracef(ctx, "skipping a frame: %v", err)
			s.config.Metrics.frameSkipped()
			continue
		case s.interrupted(ctx):
			return frames, true, nil
		default:
			return frames, false, fmt.Errorf("unable to get frame #%d: %w", frames, err)
		}

		if err := s.sink.WriteFrame(ctx, f, frameWait); err != nil {
			if s.interrupted(ctx) {
				return frames, true, nil
			}
			return frames, false, fmt.Errorf("unable to output frame #%d: %w", frames, err)
		}
		frames++
		s.config.Metrics.framePresented()
	}
}

// Close releases the source and the sink. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var result *multierror.Error
		if err := s.source.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close the source: %w", err))
		}
		if err := s.sink.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close the sink: %w", err))
		}
		s.closeErr = result.ErrorOrNil()
	})
	return s.closeErr
}

package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
	"github.com/xaionaro-go/ledplayer/pkg/interrupt"
)

// Player plays a list of files one after another into the same sink.
type Player struct {
	Opener         framesource.Opener
	Sink           Sink
	Width          int
	Height         int
	RepeatDuration time.Duration
	Clock          clock.Clock
	Interrupt      *interrupt.Controller
	Metrics        *Metrics
}

type Summary struct {
	Played      int
	Skipped     int
	Passes      int
	Frames      uint64
	Interrupted bool
}

func isSkippable(err error) bool {
	return framesource.IsFileError(err) || errors.Is(err, ErrNoFrameRate)
}

// Play plays the files in order. Files that cannot be played are skipped;
// other errors abort the run. An interrupt stops the current file and
// prevents the remaining ones from being opened.
func (p *Player) Play(
	ctx context.Context,
	paths []string,
) (_ret Summary, _err error) {
	logger.Debugf(ctx, "Play(ctx, %v)", paths)
	defer func() { logger.Debugf(ctx, "/Play(ctx, %v): %#+v %v", paths, _ret, _err) }()

	if p.Opener == nil {
		return Summary{}, fmt.Errorf("opener is not set")
	}
	if p.Sink == nil {
		return Summary{}, fmt.Errorf("sink is not set")
	}
	p.Interrupt.Clear()
	defer p.logStreamSize(ctx)

	var summary Summary
	for _, path := range paths {
		if p.Interrupt.IsInterrupted() || ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		stats, err := p.playFile(ctx, path)
		summary.Passes += stats.Passes
		summary.Frames += stats.FramesTotal
		if err != nil {
			if isSkippable(err) {
				logger.Errorf(ctx, "skipping '%s': %v", path, err)
				summary.Skipped++
				p.Metrics.fileSkipped()
				continue
			}
			return summary, fmt.Errorf("unable to play '%s': %w", path, err)
		}
		summary.Played++
		if stats.Interrupted {
			summary.Interrupted = true
			break
		}
	}
	return summary, nil
}

func (p *Player) playFile(
	ctx context.Context,
	path string,
) (_ Stats, _err error) {
	ctx = belt.WithField(ctx, "path", path)
	src, err := p.Opener.Open(ctx, path, p.Width, p.Height)
	if err != nil {
		return Stats{}, err
	}
	logger.Infof(ctx, "Playing %s", path)

	session, err := NewSession(src, p.Sink, Config{
		RepeatDuration: p.RepeatDuration,
		Clock:          p.Clock,
		Interrupt:      p.Interrupt,
		Path:           path,
		Metrics:        p.Metrics,
	})
	if err != nil {
		_ = src.Close()
		return Stats{}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the session: %v", err)
			if _err == nil {
				_err = err
			}
		}
	}()

	stats, err := session.Run(ctx)
	if err != nil {
		return stats, err
	}
	if stats.Interrupted {
		logger.Infof(ctx, "Got interrupt. Exiting")
		return stats, nil
	}
	logger.Infof(ctx, "Finished playing %s - %d frames for %.1fs", path, stats.FramesLastPass, stats.Elapsed.Seconds())
	return stats, nil
}

func (p *Player) logStreamSize(ctx context.Context) {
	s, ok := p.Sink.(*StreamSink)
	if !ok {
		return
	}
	w := s.Writer()
	logger.Infof(ctx, "the stream contains %d frames (%s)", w.FramesWritten(), humanize.Bytes(w.BytesWritten()))
}

// Package replay presents a recorded frame stream on a display, honouring
// the per-frame delays stored in the stream.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/framestream"
	"github.com/xaionaro-go/ledplayer/pkg/interrupt"
)

var ErrSizeMismatch = errors.New("the stream size does not match the display")

type Config struct {
	Clock     clock.Clock
	Interrupt *interrupt.Controller

	// Loop makes ReplayFile start over at the end of the stream.
	Loop bool
}

type Stats struct {
	Loops       int
	Frames      uint64
	Interrupted bool
}

// Replay presents every record of the stream and waits the record's delay
// after each of them.
func Replay(
	ctx context.Context,
	r *framestream.Reader,
	d display.Display,
	cfg Config,
) (_ret Stats, _err error) {
	logger.Debugf(ctx, "Replay")
	defer func() { logger.Debugf(ctx, "/Replay: %#+v %v", _ret, _err) }()

	if r.Width() != d.Width() || r.Height() != d.Height() {
		return Stats{}, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, r.Width(), r.Height(), d.Width(), d.Height())
	}
	clk := clock.OrDefault(cfg.Clock)
	ctx, cancelFn := cfg.Interrupt.Context(ctx)
	defer cancelFn()

	stats := Stats{Loops: 1}
	offscreen := d.CreateFrameCanvas()
	for rec, err := range r.All() {
		if cfg.Interrupt.IsInterrupted() || ctx.Err() != nil {
			stats.Interrupted = true
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("unable to read record #%d: %w", stats.Frames, err)
		}

		display.CopyFrame(offscreen, rec.Frame)
		next, err := d.SwapOnVSync(ctx, offscreen)
		if err != nil {
			if ctx.Err() != nil {
				stats.Interrupted = true
				return stats, nil
			}
			return stats, fmt.Errorf("unable to present record #%d: %w", stats.Frames, err)
		}
		if next == nil {
			next = d.CreateFrameCanvas()
		}
		offscreen = next
		stats.Frames++
		if err := clock.SleepContext(ctx, clk, time.Duration(rec.DelayMicros)*time.Microsecond); err != nil {
			stats.Interrupted = true
			return stats, nil
		}
	}
	return stats, nil
}

// ReplayFile replays the stream file, starting over at the end when
// cfg.Loop is set.
func ReplayFile(
	ctx context.Context,
	path string,
	d display.Display,
	cfg Config,
) (Stats, error) {
	ctx = belt.WithField(ctx, "path", path)
	var total Stats
	for {
		stats, err := replayFileOnce(ctx, path, d, cfg)
		total.Loops++
		total.Frames += stats.Frames
		if err != nil {
			return total, err
		}
		if stats.Interrupted {
			total.Interrupted = true
			return total, nil
		}
		logger.Infof(ctx, "finished loop %d (%d frames)", total.Loops, stats.Frames)
		if !cfg.Loop || stats.Frames == 0 {
			return total, nil
		}
	}
}

func replayFileOnce(
	ctx context.Context,
	path string,
	d display.Display,
	cfg Config,
) (_ Stats, _err error) {
	r, err := framestream.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Errorf(ctx, "unable to close '%s': %v", path, err)
		}
	}()
	return Replay(ctx, r, d, cfg)
}

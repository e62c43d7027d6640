package main

import (
	"context"
	"fmt"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/config"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/framesource/libav"
	"github.com/xaionaro-go/ledplayer/pkg/framestream"
	"github.com/xaionaro-go/ledplayer/pkg/matrix"
	"github.com/xaionaro-go/ledplayer/pkg/observability"
	"github.com/xaionaro-go/ledplayer/pkg/playback"
)

func main() {
	os.Exit(run(parseFlags(os.Args)))
}

func run(flags Flags) int {
	ctx, closeObservability := observability.NewContext(context.Background(), observability.Options{
		Program:     "ledplayer",
		LoggerLevel: flags.LoggerLevel,
		LogFile:     flags.LogFile,
		SentryDSN:   flags.SentryDSN,
	})
	defer closeObservability()

	ctx, rt, cancelFn := initRuntime(ctx, flags)
	defer cancelFn()

	opts := matrix.Options{
		OnClosed: rt.Interrupt.Interrupt,
	}
	if flags.Config.Display.Backend != config.DisplayBackendWindow {
		d, err := matrix.Open(ctx, flags.Config, opts)
		if err != nil {
			logger.Errorf(ctx, "unable to initialize the display: %v", err)
			return 1
		}
		defer closeDisplay(ctx, d)
		return play(ctx, flags, rt, d)
	}

	// fyne needs the main goroutine
	app := fyneapp.New()
	opts.App = app
	d, err := matrix.Open(ctx, flags.Config, opts)
	if err != nil {
		logger.Errorf(ctx, "unable to initialize the display: %v", err)
		return 1
	}
	defer closeDisplay(ctx, d)
	doneCh := make(chan int, 1)
	observability.Go(ctx, func() {
		exitCode := 1
		defer func() { doneCh <- exitCode }()
		defer app.Quit()
		exitCode = play(ctx, flags, rt, d)
	})
	app.Run()
	rt.Interrupt.Interrupt()
	return <-doneCh
}

func closeDisplay(ctx context.Context, d display.Display) {
	if err := d.Close(); err != nil {
		logger.Errorf(ctx, "unable to close the display: %v", err)
	}
}

func play(
	ctx context.Context,
	flags Flags,
	rt appRuntime,
	d display.Display,
) int {
	sink, closeSink, err := newSink(ctx, flags, d)
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return 1
	}
	defer closeSink()

	p := &playback.Player{
		Opener:         libav.Opener,
		Sink:           sink,
		Width:          d.Width(),
		Height:         d.Height(),
		RepeatDuration: flags.RepeatDuration(),
		Interrupt:      rt.Interrupt,
		Metrics:        rt.Metrics,
	}

	ctx, cancelFn := rt.Interrupt.Context(ctx)
	defer cancelFn()
	summary, err := p.Play(ctx, flags.Videos)
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return 1
	}
	logger.Debugf(ctx, "played %d files (%d skipped), %d passes, %d frames", summary.Played, summary.Skipped, summary.Passes, summary.Frames)
	return 0
}

func newSink(
	ctx context.Context,
	flags Flags,
	d display.Display,
) (playback.Sink, func(), error) {
	if flags.StreamOutput == "" {
		return playback.NewDisplaySink(d), func() {}, nil
	}

	var opts []framestream.Option
	level, compress, err := flags.Config.Stream.CompressionLevel()
	if err != nil {
		return nil, nil, err
	}
	if compress {
		opts = append(opts, framestream.WithCompression(level))
	}
	w, err := framestream.Create(flags.StreamOutput, d.Width(), d.Height(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't open output stream: %w", err)
	}
	return playback.NewStreamSink(w, nil), func() {
		if err := w.Close(); err != nil {
			logger.Errorf(ctx, "unable to close '%s': %v", flags.StreamOutput, err)
		}
	}, nil
}

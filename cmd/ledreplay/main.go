package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xaionaro-go/ledplayer/pkg/config"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/interrupt"
	"github.com/xaionaro-go/ledplayer/pkg/matrix"
	"github.com/xaionaro-go/ledplayer/pkg/observability"
	"github.com/xaionaro-go/ledplayer/pkg/replay"
)

func main() {
	os.Exit(run(parseFlags(os.Args)))
}

func run(flags Flags) int {
	ctx, closeObservability := observability.NewContext(context.Background(), observability.Options{
		Program:     "ledreplay",
		LoggerLevel: flags.LoggerLevel,
		LogFile:     flags.LogFile,
		SentryDSN:   flags.SentryDSN,
	})
	defer closeObservability()

	if flags.MetricsListenAddr != "" {
		observability.Go(ctx, func() {
			http.Handle("/metrics", promhttp.Handler())
			logger.Infof(ctx, "starting to listen for metrics and net/pprof requests at '%s'", flags.MetricsListenAddr)
			logger.Error(ctx, http.ListenAndServe(flags.MetricsListenAddr, nil))
		})
	}

	ctrl := interrupt.New()
	defer ctrl.HandleSignals(ctx)()

	opts := matrix.Options{OnClosed: ctrl.Interrupt}
	if flags.Config.Display.Backend != config.DisplayBackendWindow {
		d, err := matrix.Open(ctx, flags.Config, opts)
		if err != nil {
			logger.Errorf(ctx, "unable to initialize the display: %v", err)
			return 1
		}
		defer closeDisplay(ctx, d)
		return replayFile(ctx, flags, ctrl, d)
	}

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
		exitCode = replayFile(ctx, flags, ctrl, d)
	})
	app.Run()
	ctrl.Interrupt()
	return <-doneCh
}

func closeDisplay(ctx context.Context, d display.Display) {
	if err := d.Close(); err != nil {
		logger.Errorf(ctx, "unable to close the display: %v", err)
	}
}

func replayFile(
	ctx context.Context,
	flags Flags,
	ctrl *interrupt.Controller,
	d display.Display,
) int {
	ctx, cancelFn := ctrl.Context(ctx)
	defer cancelFn()
	stats, err := replay.ReplayFile(ctx, flags.StreamFile, d, replay.Config{
		Interrupt: ctrl,
		Loop:      flags.Loop,
	})
	if err != nil {
		logger.Errorf(ctx, "unable to replay '%s': %v", flags.StreamFile, err)
		return 1
	}
	if stats.Interrupted {
		logger.Infof(ctx, "Got interrupt. Exiting")
	}
	logger.Debugf(ctx, "replayed %d frames in %d loops", stats.Frames, stats.Loops)
	return 0
}

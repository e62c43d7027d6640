package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xaionaro-go/ledplayer/pkg/astiavlogger"
	"github.com/xaionaro-go/ledplayer/pkg/interrupt"
	"github.com/xaionaro-go/ledplayer/pkg/observability"
	"github.com/xaionaro-go/ledplayer/pkg/playback"
)

type appRuntime struct {
	Interrupt *interrupt.Controller
	Metrics   *playback.Metrics
}

func initRuntime(
	ctx context.Context,
	flags Flags,
) (context.Context, appRuntime, context.CancelFunc) {
	var closeFuncs []func()

	l := logger.FromCtx(ctx)

	rt := appRuntime{
		Interrupt: interrupt.New(),
		Metrics:   playback.NewMetrics(prometheus.DefaultRegisterer),
	}

	if flags.MetricsListenAddr != "" {
		observability.Go(ctx, func() {
			http.Handle("/metrics", promhttp.Handler())
			l.Infof("starting to listen for metrics and net/pprof requests at '%s'", flags.MetricsListenAddr)
			l.Error(http.ListenAndServe(flags.MetricsListenAddr, nil))
		})
	}

	astiavlogger.Install(l)

	closeFuncs = append(closeFuncs, rt.Interrupt.HandleSignals(ctx))

	ctx, cancelFn := context.WithCancel(ctx)
	return ctx, rt, func() {
		defer belt.Flush(ctx)
		cancelFn()
		for i := len(closeFuncs) - 1; i >= 0; i-- {
			closeFuncs[i]()
		}
	}
}

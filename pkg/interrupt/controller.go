// Package interrupt provides the process-wide cooperative cancellation flag
// that is polled by the playback loops.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/observability"
)

type Controller struct {
	flag   atomic.Bool
	locker sync.Mutex
	waitCh chan struct{}
}

func New() *Controller {
	return &Controller{
		waitCh: make(chan struct{}),
	}
}

// Interrupt sets the flag and closes the channel returned by Done.
// The flag and the channel change together under the lock, so a concurrent
// Clear never observes one without the other.
func (c *Controller) Interrupt() {
	c.locker.Lock()
	defer c.locker.Unlock()
	if !c.flag.CompareAndSwap(false, true) {
		return
	}
	close(c.waitCh)
}

// IsInterrupted is safe to call on a nil Controller (never interrupted).
func (c *Controller) IsInterrupted() bool {
	if c == nil {
		return false
	}
	return c.flag.Load()
}

func (c *Controller) Clear() {
	if c == nil {
		return
	}
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.flag.CompareAndSwap(true, false) {
		c.waitCh = make(chan struct{})
	}
}

// Done returns a channel which is closed when the flag gets set.
// A nil Controller returns a nil channel.
func (c *Controller) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.waitCh
}

// Context derives a context which is cancelled on interruption.
func (c *Controller) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancelFn := context.WithCancel(ctx)
	doneCh := c.Done()
	observability.Go(ctx, func() {
		select {
		case <-ctx.Done():
		case <-doneCh:
			cancelFn()
		}
	})
	return ctx, cancelFn
}

// DefaultSignals are handled identically: both just set the flag.
var DefaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// HandleSignals sets the flag when any of the signals is received.
// If no signals are given, DefaultSignals are used.
func (c *Controller) HandleSignals(
	ctx context.Context,
	signals ...os.Signal,
) (stop func()) {
	if len(signals) == 0 {
		signals = DefaultSignals
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	ctx, cancelFn := context.WithCancel(ctx)
	observability.Go(ctx, func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				logger.Debugf(ctx, "received signal %v", sig)
				c.Interrupt()
			}
		}
	})
	return func() {
		signal.Stop(ch)
		cancelFn()
	}
}

package clock

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

type Clock = clock.Clock
type Ticker = clock.Ticker
type Mock = clock.Mock

var globalClock Clock = clock.New()

func Get() Clock {
	return globalClock
}

func Set(clk Clock) {
	globalClock = clk
}

func New() Clock {
	return clock.New()
}

func NewMock() *Mock {
	return clock.NewMock()
}

// OrDefault returns clk, or the global clock if clk is nil.
func OrDefault(clk Clock) Clock {
	if clk == nil {
		return Get()
	}
	return clk
}

// SteppingMock is a mocked clock where Sleep advances the time instead of
// blocking, which makes pacing loops deterministic in tests.
type SteppingMock struct {
	*clock.Mock
}

var _ Clock = (*SteppingMock)(nil)

func NewSteppingMock() *SteppingMock {
	return &SteppingMock{Mock: clock.NewMock()}
}

func (m *SteppingMock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	m.Mock.Add(d)
}

func (m *SteppingMock) SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Sleep(d)
	return nil
}

// ContextSleeper is a clock with its own cancellable sleep.
type ContextSleeper interface {
	SleepContext(ctx context.Context, d time.Duration) error
}

// SleepContext sleeps for d on clk, returning early with ctx.Err()
// if the context is done first.
func SleepContext(ctx context.Context, clk Clock, d time.Duration) error {
	clk = OrDefault(clk)
	if s, ok := clk.(ContextSleeper); ok {
		return s.SleepContext(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := clk.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSteppingMockSleepAdvances(t *testing.T) {
	clk := NewSteppingMock()
	start := clk.Now()
	clk.Sleep(1500 * time.Millisecond)
	clk.Sleep(-time.Second)
	assert.Equal(t, 1500*time.Millisecond, clk.Since(start))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, Get(), OrDefault(nil))
	m := NewMock()
	assert.Equal(t, Clock(m), OrDefault(m))
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()

	stepping := NewSteppingMock()
	start := stepping.Now()
	assert.ErrorIs(t, SleepContext(ctx, stepping, time.Hour), context.Canceled)
	assert.Zero(t, stepping.Since(start))

	// a plain mock never advances by itself: only the context can end the sleep
	assert.ErrorIs(t, SleepContext(ctx, NewMock(), time.Hour), context.Canceled)
}

func TestSleepContextTimer(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), New(), time.Millisecond))

	stepping := NewSteppingMock()
	start := stepping.Now()
	assert.NoError(t, SleepContext(context.Background(), stepping, time.Minute))
	assert.Equal(t, time.Minute, stepping.Since(start))
}

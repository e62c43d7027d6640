package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	ctx, closeFn := NewContext(context.Background(), Options{
		Program:     "test",
		LoggerLevel: logger.LevelInfo,
		Output:      &buf,
	})
	defer closeFn()

	logger.Debugf(ctx, "hidden message")
	logger.Infof(ctx, "visible message")
	assert.NotContains(t, buf.String(), "hidden message")
	assert.Contains(t, buf.String(), "visible message")

	LogLevelFilter.SetLevel(logger.LevelDebug)
	logger.Debugf(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("verbose")
	require.NoError(t, err)
	assert.Equal(t, logger.LevelDebug, level)

	level, err = ParseLogLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, logger.LevelWarning, level)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

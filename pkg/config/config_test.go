package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledplayer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
matrix:
  rows: 16
  chain_length: 2
display:
  backend: "null"
playback:
  repeat_seconds: 2.5
stream:
  compression: best
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.Matrix.Rows)
	assert.Equal(t, 32, cfg.Matrix.Cols)
	assert.Equal(t, 2, cfg.Matrix.ChainLength)
	assert.Equal(t, float64(60), cfg.Matrix.RefreshRate)
	w, h := cfg.Matrix.Size()
	assert.Equal(t, [2]int{64, 16}, [2]int{w, h})
	assert.Equal(t, DisplayBackendNull, cfg.Display.Backend)
	assert.Equal(t, 2500*time.Millisecond, cfg.Playback.RepeatDuration())

	level, enabled, err := cfg.Stream.CompressionLevel()
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, zstd.SpeedBestCompression, level)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledplayer.yaml")
	cfg := Default()
	cfg.Display.Rotate = 90
	cfg.Display.Large = true
	cfg.Matrix.Parallel = 2
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Matrix.Rows = 0
	cfg.Display.Backend = "hdmi"
	cfg.Stream.Compression = "ultra"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid panel size")
	assert.Contains(t, err.Error(), "hdmi")
	assert.Contains(t, err.Error(), "ultra")
}

func TestCompressionDisabled(t *testing.T) {
	for _, s := range []string{"", "none"} {
		_, enabled, err := Stream{Compression: s}.CompressionLevel()
		require.NoError(t, err)
		require.False(t, enabled)
	}
}

package xpath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LEDPLAYER_TEST_DIR", "/srv/led")

	for raw, expected := range map[string]string{
		"~":                                  home,
		"~/ledplayer.yaml":                   filepath.Join(home, "ledplayer.yaml"),
		"$LEDPLAYER_TEST_DIR/ledplayer.yaml": "/srv/led/ledplayer.yaml",
		"/etc/ledplayer.yaml":                "/etc/ledplayer.yaml",
		"relative/~/x":                       "relative/~/x",
	} {
		actual, err := Expand(raw)
		require.NoError(t, err, raw)
		require.Equal(t, expected, actual, raw)
	}
}

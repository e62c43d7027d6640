// Package xpath resolves user-supplied file paths.
package xpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Expand substitutes environment variables and a leading "~/".
func Expand(rawPath string) (string, error) {
	p := os.ExpandEnv(rawPath)
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get user home dir: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(p[1:], "/")), nil
}

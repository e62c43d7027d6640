// Package astiavlogger forwards libav log messages into a go-belt logger.
package astiavlogger

import (
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"
	logger "github.com/facebookincubator/go-belt/tool/logger/types"
	"github.com/iancoleman/strcase"
	"github.com/xaionaro-go/ledplayer/pkg/framesource/libav"
)

// Callback returns a libav log callback; register it with astiav.SetLogCallback.
func Callback(l logger.Logger) astiav.LogCallback {
	return func(c astiav.Classer, level astiav.LogLevel, format, msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		l := l
		if chain := ClassChain(c); chain != "" {
			l = l.WithField("av_class", chain)
		}
		l.Logf(libav.LogLevelFromAstiav(level), "%s", msg)
	}
}

// ClassChain describes the class of the object that emitted the message
// together with its parents, innermost first.
func ClassChain(c astiav.Classer) string {
	if c == nil {
		return ""
	}
	var chain []string
	for cl := c.Class(); cl != nil; cl = cl.Parent() {
		chain = append(chain, fmt.Sprintf(
			"[%s]%s:%s",
			strcase.ToSnake(ClassCategoryToString(cl.Category())),
			cl.Name(),
			cl.ItemName(),
		))
	}
	return strings.Join(chain, "->")
}

// Install routes libav logging into l and sets the libav verbosity to match
// the logger level.
func Install(l logger.Logger) {
	astiav.SetLogLevel(libav.LogLevelToAstiav(l.Level()))
	astiav.SetLogCallback(Callback(l))
}

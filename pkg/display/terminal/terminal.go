// Package terminal emulates a LED matrix in a truecolor terminal: every
// character cell shows two vertically stacked pixels using the upper half
// block glyph.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/clock"
	"github.com/xaionaro-go/ledplayer/pkg/display"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
	"golang.org/x/term"
)

const (
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escHome       = "\x1b[H"
	escClear      = "\x1b[2J"
	escReset      = "\x1b[0m"
	upperHalf     = "▀"
)

type Config struct {
	Width       int
	Height      int
	RefreshRate float64
	Clock       clock.Clock
}

type Display struct {
	*display.DoubleBuffer
	out        *bufio.Writer
	isTerminal bool
	line       []byte
}

var _ display.Display = (*Display)(nil)

func New(
	ctx context.Context,
	out io.Writer,
	cfg Config,
) (*Display, error) {
	d := &Display{
		out: bufio.NewWriterSize(out, 64*1024),
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		d.isTerminal = true
		cols, rows, err := term.GetSize(int(f.Fd()))
		switch {
		case err != nil:
			logger.Debugf(ctx, "unable to get the terminal size: %v", err)
		case cols < cfg.Width || rows*2 < cfg.Height:
			logger.Warnf(ctx, "the terminal (%dx%d cells) is too small for a %dx%d matrix; the picture will be garbled", cols, rows, cfg.Width, cfg.Height)
		}
	}

	buf, err := display.NewDoubleBuffer(cfg.Width, cfg.Height, cfg.RefreshRate, cfg.Clock, d)
	if err != nil {
		return nil, err
	}
	d.DoubleBuffer = buf

	if d.isTerminal {
		_, _ = d.out.WriteString(escClear + escHideCursor)
	}
	if err := d.out.Flush(); err != nil {
		return nil, fmt.Errorf("unable to write to the terminal: %w", err)
	}
	return d, nil
}

func (d *Display) appendColor(b []byte, kind byte, r, g, bl uint8) []byte {
	b = append(b, "\x1b["...)
	b = append(b, kind)
	b = append(b, "8;2;"...)
	b = strconv.AppendUint(b, uint64(r), 10)
	b = append(b, ';')
	b = strconv.AppendUint(b, uint64(g), 10)
	b = append(b, ';')
	b = strconv.AppendUint(b, uint64(bl), 10)
	return append(b, 'm')
}

func (d *Display) Present(_ context.Context, f *frame.RGB) error {
	if _, err := d.out.WriteString(escHome); err != nil {
		return err
	}
	for y := 0; y < f.Height; y += 2 {
		d.line = d.line[:0]
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			d.line = d.appendColor(d.line, '3', r, g, b)
			r, g, b = f.RGBAt(x, y+1) // zero beyond the last row
			d.line = d.appendColor(d.line, '4', r, g, b)
			d.line = append(d.line, upperHalf...)
		}
		d.line = append(d.line, escReset+"\r\n"...)
		if _, err := d.out.Write(d.line); err != nil {
			return err
		}
	}
	return d.out.Flush()
}

func (d *Display) Close() error {
	err := d.DoubleBuffer.Close()
	_, _ = d.out.WriteString(escReset)
	if d.isTerminal {
		_, _ = d.out.WriteString(escShowCursor)
	}
	if flushErr := d.out.Flush(); err == nil {
		err = flushErr
	}
	return err
}

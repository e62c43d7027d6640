package framestream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"syscall"

	"github.com/klauspost/compress/zstd"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

type Option interface {
	apply(*Writer) error
}

type optionFunc func(*Writer) error

func (fn optionFunc) apply(w *Writer) error {
	return fn(w)
}

// WithCompression makes the writer store zstd-compressed payloads.
func WithCompression(level zstd.EncoderLevel) Option {
	return optionFunc(func(w *Writer) error {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("unable to initialize a zstd encoder: %w", err)
		}
		w.encoder = enc
		w.header.Flags |= FlagZstd
		return nil
	})
}

// Writer appends frame records to an output. Appends are sequential and
// each record is emitted with a single Write call.
type Writer struct {
	out     io.Writer
	header  fileHeader
	encoder *zstd.Encoder
	buf     []byte
	closed  atomic.Bool

	framesWritten uint64
	bytesWritten  uint64
}

func NewWriter(
	out io.Writer,
	width, height int,
	opts ...Option,
) (*Writer, error) {
	if width <= 0 || height <= 0 || width >= maxDimension || height >= maxDimension {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	w := &Writer{
		out: out,
		header: fileHeader{
			Version:   FormatVersion,
			Width:     uint16(width),
			Height:    uint16(height),
			FrameSize: uint32(width * height * frame.BytesPerPixel),
		},
	}
	for _, opt := range opts {
		if err := opt.apply(w); err != nil {
			return nil, err
		}
	}

	hdr, err := w.header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize the file header: %w", err)
	}
	n, err := out.Write(hdr)
	w.bytesWritten += uint64(n)
	if err != nil {
		return nil, fmt.Errorf("unable to write the file header: %w", err)
	}
	return w, nil
}

// Create creates (or truncates) the file at path and writes the file header into it.
func Create(
	path string,
	width, height int,
	opts ...Option,
) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s' for writing: %w", path, err)
	}
	w, err := NewWriter(f, width, height, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Width() int {
	return int(w.header.Width)
}

func (w *Writer) Height() int {
	return int(w.header.Height)
}

func (w *Writer) Compressed() bool {
	return w.header.Flags.Has(FlagZstd)
}

func (w *Writer) Append(
	f *frame.RGB,
	delayMicros uint32,
) error {
	if w.closed.Load() {
		return fmt.Errorf("the writer is closed")
	}
	if f.Width != w.Width() || f.Height != w.Height() {
		return fmt.Errorf("%w: the stream is %dx%d, but the frame is %dx%d", ErrFrameSize, w.Width(), w.Height(), f.Width, f.Height)
	}
	if len(f.Pix) != int(w.header.FrameSize) {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrFrameSize, w.header.FrameSize, len(f.Pix))
	}

	w.buf = append(w.buf[:0], make([]byte, recordHeaderSize)...)
	if w.encoder != nil {
		w.buf = w.encoder.EncodeAll(f.Pix, w.buf)
	} else {
		w.buf = append(w.buf, f.Pix...)
	}
	recordHeader{
		PayloadLength: uint32(len(w.buf) - recordHeaderSize),
		DelayMicros:   delayMicros,
	}.put(w.buf)

	n, err := w.out.Write(w.buf)
	w.bytesWritten += uint64(n)
	if err != nil {
		return fmt.Errorf("unable to write frame record #%d: %w", w.framesWritten, err)
	}
	if n != len(w.buf) {
		return fmt.Errorf("unable to write frame record #%d: %w", w.framesWritten, io.ErrShortWrite)
	}
	w.framesWritten++
	return nil
}

func (w *Writer) FramesWritten() uint64 {
	return w.framesWritten
}

func (w *Writer) BytesWritten() uint64 {
	return w.bytesWritten
}

// Flush commits the written records to stable storage if the output supports it.
func (w *Writer) Flush() error {
	if w.closed.Load() {
		return nil
	}
	switch out := w.out.(type) {
	case interface{ Sync() error }:
		err := out.Sync()
		if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTSUP) {
			// pipes and character devices cannot be synced
			return nil
		}
		return err
	case interface{ Flush() error }:
		return out.Flush()
	}
	return nil
}

// Close releases the writer; the output is closed if it is an io.Closer.
// Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	if w.encoder != nil {
		_ = w.encoder.Close()
	}
	if c, ok := w.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

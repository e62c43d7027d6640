package framestream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

// Reader is a forward-only reader of frame records. It does not support
// rewinding: to read a stream again, open it again.
type Reader struct {
	in      *bufio.Reader
	closer  io.Closer
	header  fileHeader
	decoder *zstd.Decoder
	hdrBuf  [recordHeaderSize]byte
	payload []byte
	index   uint64
}

func NewReader(in io.Reader) (*Reader, error) {
	r := &Reader{
		in: bufio.NewReader(in),
	}
	if c, ok := in.(io.Closer); ok {
		r.closer = c
	}

	buf := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(r.in, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: unable to read the file header", ErrTruncated)
		}
		return nil, fmt.Errorf("unable to read the file header: %w", err)
	}
	if err := r.header.UnmarshalBinary(buf); err != nil {
		return nil, err
	}

	if r.header.Flags.Has(FlagZstd) {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("unable to initialize a zstd decoder: %w", err)
		}
		r.decoder = dec
	}
	return r, nil
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unable to read stream '%s': %w", path, err)
	}
	return r, nil
}

func (r *Reader) Width() int {
	return int(r.header.Width)
}

func (r *Reader) Height() int {
	return int(r.header.Height)
}

func (r *Reader) Compressed() bool {
	return r.header.Flags.Has(FlagZstd)
}

// Next returns the next frame and the delay (in microseconds) to wait after
// presenting it. It returns io.EOF after the last complete record.
func (r *Reader) Next() (*frame.RGB, uint32, error) {
	_, err := io.ReadFull(r.in, r.hdrBuf[:])
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return nil, 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, 0, fmt.Errorf("%w: record #%d has an incomplete header", ErrTruncated, r.index)
	default:
		return nil, 0, fmt.Errorf("unable to read the header of record #%d: %w", r.index, err)
	}

	var hdr recordHeader
	if err := hdr.parse(r.hdrBuf[:]); err != nil {
		return nil, 0, fmt.Errorf("record #%d: %w", r.index, err)
	}

	if r.decoder == nil && hdr.PayloadLength != r.header.FrameSize {
		return nil, 0, fmt.Errorf("%w: record #%d has %d bytes, expected %d", ErrFrameSize, r.index, hdr.PayloadLength, r.header.FrameSize)
	}
	if uint64(hdr.PayloadLength) > 2*uint64(r.header.FrameSize)+1024 {
		return nil, 0, fmt.Errorf("%w: record #%d claims %d bytes", ErrFrameSize, r.index, hdr.PayloadLength)
	}

	if cap(r.payload) < int(hdr.PayloadLength) {
		r.payload = make([]byte, hdr.PayloadLength)
	}
	payload := r.payload[:hdr.PayloadLength]
	if _, err := io.ReadFull(r.in, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, fmt.Errorf("%w: record #%d has an incomplete payload", ErrTruncated, r.index)
		}
		return nil, 0, fmt.Errorf("unable to read the payload of record #%d: %w", r.index, err)
	}

	pix := make([]byte, 0, r.header.FrameSize)
	if r.decoder != nil {
		pix, err = r.decoder.DecodeAll(payload, pix)
		if err != nil {
			return nil, 0, fmt.Errorf("unable to decompress record #%d: %w", r.index, err)
		}
		if len(pix) != int(r.header.FrameSize) {
			return nil, 0, fmt.Errorf("%w: record #%d decompressed into %d bytes, expected %d", ErrFrameSize, r.index, len(pix), r.header.FrameSize)
		}
	} else {
		pix = append(pix, payload...)
	}

	f, err := frame.NewRGBFromBytes(r.Width(), r.Height(), pix)
	if err != nil {
		return nil, 0, fmt.Errorf("record #%d: %w", r.index, err)
	}
	r.index++
	return f, hdr.DelayMicros, nil
}

// Record is a single decoded frame record.
type Record struct {
	Frame       *frame.RGB
	DelayMicros uint32
}

// All lazily yields the remaining records. The iteration stops at the end of
// the stream or at the first error, which is yielded together with a nil
// record (io.EOF is not yielded).
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			f, delay, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(Record{Frame: f, DelayMicros: delay}, nil) {
				return
			}
		}
	}
}

func (r *Reader) Close() error {
	if r.decoder != nil {
		r.decoder.Close()
		r.decoder = nil
	}
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// Package libav implements framesource.Source on top of libavformat and
// libavcodec, scaling every decoded picture to packed RGB with libswscale.
package libav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
)

type Source struct {
	locker  sync.Mutex
	closer  *astikit.Closer
	closed  bool
	path    string
	input   *input
	decoder *decoder
	scaler  *scaler
	packet  *astiav.Packet
	decoded *astiav.Frame

	// the decoder may hold more frames
	pending bool
	// the demuxer is exhausted and the decoder is being drained
	draining bool
	eof      bool
}

var _ framesource.Source = (*Source)(nil)

// Opener opens files with Open.
var Opener = framesource.OpenerFunc(func(
	ctx context.Context,
	path string,
	width, height int,
) (framesource.Source, error) {
	s, err := Open(ctx, path, width, height)
	if err != nil {
		return nil, err
	}
	return s, nil
})

// Open opens the first video stream of the file and prepares decoding and
// scaling to width x height RGB.
func Open(
	ctx context.Context,
	path string,
	width, height int,
) (_ret *Source, _err error) {
	logger.Debugf(ctx, "Open(ctx, '%s', %d, %d)", path, width, height)
	defer func() { logger.Debugf(ctx, "/Open(ctx, '%s', %d, %d): %v", path, width, height, _err) }()

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid target size %dx%d", framesource.ErrScaler, width, height)
	}

	s := &Source{
		closer: astikit.NewCloser(),
		path:   path,
	}
	defer func() {
		if _err != nil {
			_ = s.Close()
		}
	}()

	var err error
	s.input, err = openInput(ctx, s.closer, path)
	if err != nil {
		return nil, err
	}

	s.decoder, err = newDecoder(s.input)
	if err != nil {
		return nil, err
	}

	cc := s.decoder.codecContext
	s.scaler, err = newScaler(cc.Width(), cc.Height(), cc.PixelFormat(), width, height)
	if err != nil {
		return nil, err
	}
	s.closer.Add(s.scaler.Close)

	s.packet = astiav.AllocPacket()
	s.closer.Add(s.packet.Free)
	s.decoded = astiav.AllocFrame()
	s.closer.Add(s.decoded.Free)

	s.logFormat(ctx)
	return s, nil
}

func (s *Source) logFormat(ctx context.Context) {
	stream := s.input.VideoStream
	cc := s.decoder.codecContext
	duration := time.Duration(0)
	if d := s.input.FormatContext.Duration(); d > 0 {
		duration = time.Duration(d) * time.Second / time.Duration(astiav.TimeBase)
	}
	logger.Debugf(ctx,
		"input '%s': format %s, duration %v, stream #%d: %s %dx%d %v, avg_frame_rate %v, time_base %v",
		s.path,
		s.input.FormatContext.InputFormat().Name(),
		duration,
		stream.Index(),
		s.decoder.codec.Name(),
		cc.Width(), cc.Height(), cc.PixelFormat(),
		stream.AvgFrameRate(),
		stream.TimeBase(),
	)
}

func (s *Source) DeclaredFPS() float64 {
	r := s.input.VideoStream.AvgFrameRate()
	if r.Num() <= 0 || r.Den() <= 0 {
		return 0
	}
	return r.Float64()
}

// TimeBase returns the codec time base, falling back to the stream time base
// when the decoder does not report one.
func (s *Source) TimeBase() (int, int) {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.decoder != nil && s.decoder.codecContext != nil {
		tb := s.decoder.codecContext.TimeBase()
		if tb.Num() > 0 && tb.Den() > 0 {
			return tb.Num(), tb.Den()
		}
	}
	tb := s.input.VideoStream.TimeBase()
	return tb.Num(), tb.Den()
}

func (s *Source) NextFrame(ctx context.Context) (*frame.RGB, error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return nil, io.ErrClosedPipe
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.eof {
			return nil, io.EOF
		}

		if s.pending || s.draining {
			f, err := s.receiveFrame()
			switch {
			case err == nil:
				return f, nil
			case errors.Is(err, astiav.ErrEagain):
				s.pending = false
				if s.draining {
					s.eof = true
					continue
				}
			case errors.Is(err, astiav.ErrEof):
				s.eof = true
				continue
			default:
				return nil, err
			}
		}

		if err := s.input.FormatContext.ReadFrame(s.packet); err != nil {
			if !errors.Is(err, astiav.ErrEof) {
				logger.Debugf(ctx, "unable to read a packet from '%s', treating as the end of the stream: %v", s.path, err)
			}
			s.draining = true
			if err := s.decoder.codecContext.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
				logger.Debugf(ctx, "unable to start draining the decoder: %v", err)
				s.eof = true
			}
			continue
		}

		if s.packet.StreamIndex() != s.input.VideoStream.Index() {
			s.packet.Unref()
			continue
		}

		err := s.decoder.codecContext.SendPacket(s.packet)
		s.packet.Unref()
		if err != nil {
			return nil, fmt.Errorf("%w: unable to send a packet to the decoder: %w", framesource.ErrDecode, err)
		}
		s.pending = true
	}
}

func (s *Source) receiveFrame() (*frame.RGB, error) {
	if err := s.decoder.codecContext.ReceiveFrame(s.decoded); err != nil {
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", framesource.ErrDecode, err)
	}
	defer s.decoded.Unref()
	return s.scaler.Scale(s.decoded)
}

// SeekToStart rewinds the demuxer and replaces the decoder, since a drained
// decoder cannot accept packets anymore.
func (s *Source) SeekToStart(ctx context.Context) bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return false
	}

	err := s.input.FormatContext.SeekFrame(
		s.input.VideoStream.Index(),
		0,
		astiav.NewSeekFlags(astiav.SeekFlagBackward),
	)
	if err != nil {
		logger.Debugf(ctx, "unable to seek '%s' to the start: %v", s.path, err)
		return false
	}

	d, err := newDecoder(s.input)
	if err != nil {
		logger.Errorf(ctx, "unable to reopen the decoder for '%s': %v", s.path, err)
		return false
	}
	s.decoder.Close()
	s.decoder = d
	s.pending, s.draining, s.eof = false, false, false
	return true
}

func (s *Source) Close() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.decoder != nil {
		s.decoder.Close()
	}
	return s.closer.Close()
}

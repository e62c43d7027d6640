package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
)

// scaler converts decoded frames of any pixel format and size into packed
// RGB24 frames of the target size.
type scaler struct {
	context      *astiav.SoftwareScaleContext
	output       *astiav.Frame
	srcWidth     int
	srcHeight    int
	srcFormat    astiav.PixelFormat
	targetWidth  int
	targetHeight int
}

func newScaler(
	srcWidth, srcHeight int,
	srcFormat astiav.PixelFormat,
	targetWidth, targetHeight int,
) (*scaler, error) {
	s := &scaler{
		targetWidth:  targetWidth,
		targetHeight: targetHeight,
	}
	s.output = astiav.AllocFrame()
	s.output.SetWidth(targetWidth)
	s.output.SetHeight(targetHeight)
	s.output.SetPixelFormat(astiav.PixelFormatRgb24)
	if err := s.output.AllocBuffer(1); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: unable to allocate the output frame: %w", framesource.ErrScaler, err)
	}
	if err := s.configure(srcWidth, srcHeight, srcFormat); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *scaler) configure(
	srcWidth, srcHeight int,
	srcFormat astiav.PixelFormat,
) error {
	if s.context != nil {
		s.context.Free()
		s.context = nil
	}
	ctx, err := astiav.CreateSoftwareScaleContext(
		srcWidth, srcHeight, srcFormat,
		s.targetWidth, s.targetHeight, astiav.PixelFormatRgb24,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return fmt.Errorf("%w: %dx%d %v -> %dx%d rgb24: %w", framesource.ErrScaler, srcWidth, srcHeight, srcFormat, s.targetWidth, s.targetHeight, err)
	}
	s.context = ctx
	s.srcWidth, s.srcHeight, s.srcFormat = srcWidth, srcHeight, srcFormat
	return nil
}

func (s *scaler) Scale(src *astiav.Frame) (*frame.RGB, error) {
	if src.Width() != s.srcWidth || src.Height() != s.srcHeight || src.PixelFormat() != s.srcFormat {
		if err := s.configure(src.Width(), src.Height(), src.PixelFormat()); err != nil {
			return nil, err
		}
	}
	if err := s.context.ScaleFrame(src, s.output); err != nil {
		return nil, fmt.Errorf("%w: unable to scale: %w", framesource.ErrDecode, err)
	}
	pix, err := s.output.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to get the scaled picture: %w", framesource.ErrDecode, err)
	}
	return frame.NewRGBFromBytes(s.targetWidth, s.targetHeight, pix)
}

func (s *scaler) Close() {
	if s.context != nil {
		s.context.Free()
		s.context = nil
	}
	if s.output != nil {
		s.output.Free()
		s.output = nil
	}
}

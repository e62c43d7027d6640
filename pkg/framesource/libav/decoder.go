package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
)

type decoder struct {
	codec        *astiav.Codec
	codecContext *astiav.CodecContext
}

func newDecoder(
	in *input,
) (_ret *decoder, _err error) {
	d := &decoder{}
	defer func() {
		if _err != nil {
			d.Close()
		}
	}()

	params := in.VideoStream.CodecParameters()
	d.codec = astiav.FindDecoder(params.CodecID())
	if d.codec == nil {
		return nil, fmt.Errorf("%w: unable to find a decoder for codec ID %v", framesource.ErrUnsupportedCodec, params.CodecID())
	}

	d.codecContext = astiav.AllocCodecContext(d.codec)
	if d.codecContext == nil {
		return nil, fmt.Errorf("%w: unable to allocate a codec context", framesource.ErrUnsupportedCodec)
	}

	if err := params.ToCodecContext(d.codecContext); err != nil {
		return nil, fmt.Errorf("%w: %w", framesource.ErrCodecParameters, err)
	}
	d.codecContext.SetFramerate(in.FormatContext.GuessFrameRate(in.VideoStream, nil))

	if err := d.codecContext.Open(d.codec, nil); err != nil {
		return nil, fmt.Errorf("%w: unable to open the codec context: %w", framesource.ErrUnsupportedCodec, err)
	}
	return d, nil
}

func (d *decoder) Close() {
	if d.codecContext != nil {
		d.codecContext.Free()
		d.codecContext = nil
	}
}

package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ledplayer/pkg/framesource"
)

type input struct {
	*astiav.FormatContext
	VideoStream *astiav.Stream
}

func openInput(
	ctx context.Context,
	closer *astikit.Closer,
	path string,
) (*input, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: the provided path is empty", framesource.ErrOpen)
	}

	in := &input{}
	in.FormatContext = astiav.AllocFormatContext()
	if in.FormatContext == nil {
		return nil, fmt.Errorf("%w: unable to allocate a format context", framesource.ErrOpen)
	}
	closer.Add(in.FormatContext.Free)

	if err := in.FormatContext.OpenInput(path, nil, nil); err != nil {
		return nil, fmt.Errorf("%w '%s': %w", framesource.ErrOpen, path, err)
	}
	closer.Add(in.FormatContext.CloseInput)

	if err := in.FormatContext.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("%w: unable to get stream info of '%s': %w", framesource.ErrOpen, path, err)
	}

	for _, stream := range in.FormatContext.Streams() {
		if stream.CodecParameters().MediaType() != astiav.MediaTypeVideo {
			logger.Tracef(ctx, "stream %d is not a video stream, skipping", stream.Index())
			continue
		}
		in.VideoStream = stream
		break
	}
	if in.VideoStream == nil {
		return nil, fmt.Errorf("%w in '%s'", framesource.ErrNoVideoStream, path)
	}
	return in, nil
}

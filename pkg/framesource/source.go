// Package framesource defines the decoded-frame producer consumed by the
// playback loop.
package framesource

import (
	"context"
	"errors"

	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

// Source yields decoded frames that are already scaled to the target size.
type Source interface {
	// DeclaredFPS returns the average frame rate declared by the container,
	// or a non-positive value if it is unknown.
	DeclaredFPS() float64

	// TimeBase returns the codec time base as a rational num/den.
	TimeBase() (num, den int)

	// NextFrame returns io.EOF at the end of the stream. An error wrapping
	// ErrDecode means only this frame is lost and reading may continue.
	NextFrame(ctx context.Context) (*frame.RGB, error)

	// SeekToStart rewinds to the beginning; false if that is not possible.
	SeekToStart(ctx context.Context) bool

	// Close releases all resources; it is safe to call more than once.
	Close() error
}

// Opener opens a source for a file, scaling frames to width x height.
type Opener interface {
	Open(ctx context.Context, path string, width, height int) (Source, error)
}

type OpenerFunc func(ctx context.Context, path string, width, height int) (Source, error)

func (fn OpenerFunc) Open(ctx context.Context, path string, width, height int) (Source, error) {
	return fn(ctx, path, width, height)
}

var (
	// file errors: the file is skipped
	ErrOpen             = errors.New("unable to open the input")
	ErrNoVideoStream    = errors.New("no video stream found")
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrCodecParameters  = errors.New("unable to copy codec parameters")

	// setup errors: the whole run is aborted
	ErrScaler = errors.New("unable to initialize the scaler")

	// frame errors: the frame is skipped
	ErrDecode = errors.New("unable to decode a frame")
)

// IsFileError reports whether the error makes only the current file unplayable.
func IsFileError(err error) bool {
	return errors.Is(err, ErrOpen) ||
		errors.Is(err, ErrNoVideoStream) ||
		errors.Is(err, ErrUnsupportedCodec) ||
		errors.Is(err, ErrCodecParameters)
}

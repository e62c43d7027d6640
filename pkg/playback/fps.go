package playback

import (
	"errors"
	"math"
	"time"
)

var ErrNoFrameRate = errors.New("unable to determine the frame rate")

// FrameWait returns the interval between two frames. The declared frame rate
// is used when it is positive, otherwise the reciprocal of the time base.
func FrameWait(
	fps float64,
	timeBaseNum, timeBaseDen int,
) (time.Duration, error) {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		fps = 0
		if timeBaseNum != 0 {
			fps = float64(timeBaseDen) / float64(timeBaseNum)
		}
	}
	if fps <= 0 {
		return 0, ErrNoFrameRate
	}
	micros := math.Round(1_000_000 / fps)
	return time.Duration(micros) * time.Microsecond, nil
}

package framestream

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ledplayer/pkg/frame"
)

func testFrame(width, height int, seed byte) *frame.RGB {
	f := frame.NewRGB(width, height)
	for i := range f.Pix {
		f.Pix[i] = seed + byte(i*7)
	}
	return f
}

func writeFrames(t *testing.T, w *Writer, n int) ([]*frame.RGB, []uint32) {
	t.Helper()
	var (
		frames []*frame.RGB
		delays []uint32
	)
	for i := 0; i < n; i++ {
		f := testFrame(w.Width(), w.Height(), byte(i))
		delay := uint32(33333 + i)
		require.NoError(t, w.Append(f, delay))
		frames = append(frames, f)
		delays = append(delays, delay)
	}
	return frames, delays
}

func TestRoundTrip(t *testing.T) {
	for _, compressed := range []bool{false, true} {
		t.Run(map[bool]string{false: "raw", true: "zstd"}[compressed], func(t *testing.T) {
			var buf bytes.Buffer
			var opts []Option
			if compressed {
				opts = append(opts, WithCompression(zstd.SpeedFastest))
			}
			w, err := NewWriter(&buf, 8, 4, opts...)
			require.NoError(t, err)
			frames, delays := writeFrames(t, w, 17)
			require.NoError(t, w.Close())
			require.EqualValues(t, 17, w.FramesWritten())
			require.EqualValues(t, buf.Len(), w.BytesWritten())

			r, err := NewReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, 8, r.Width())
			assert.Equal(t, 4, r.Height())
			assert.Equal(t, compressed, r.Compressed())

			idx := 0
			for rec, err := range r.All() {
				require.NoError(t, err)
				require.Less(t, idx, len(frames))
				assert.Equal(t, frames[idx].Pix, rec.Frame.Pix, "record #%d", idx)
				assert.Equal(t, delays[idx], rec.DelayMicros, "record #%d", idx)
				idx++
			}
			assert.Equal(t, len(frames), idx)

			_, _, err = r.Next()
			assert.ErrorIs(t, err, io.EOF)
			require.NoError(t, r.Close())
		})
	}
}

func TestEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, 2, 2)
	require.NoError(t, err)

	r, err := NewReader(&buf)
	require.NoError(t, err)
	_, _, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTruncatedStreamKeepsCompletePrefix(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 4, 4)
	require.NoError(t, err)
	frames, _ := writeFrames(t, w, 3)

	data := buf.Bytes()[:buf.Len()-5]
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		f, _, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, frames[i].Pix, f.Pix)
	}
	_, _, err = r.Next()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestAppendWrongSize(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 4, 4)
	require.NoError(t, err)
	err = w.Append(frame.NewRGB(5, 4), 1000)
	assert.ErrorIs(t, err, ErrFrameSize)
	assert.Zero(t, w.FramesWritten())
}

type failingWriter struct {
	allowed int
}

func (w *failingWriter) Write(b []byte) (int, error) {
	if w.allowed <= 0 {
		return 0, errors.New("disk is full")
	}
	w.allowed--
	return len(b), nil
}

func TestAppendIOError(t *testing.T) {
	w, err := NewWriter(&failingWriter{allowed: 2}, 2, 2)
	require.NoError(t, err)
	require.NoError(t, w.Append(frame.NewRGB(2, 2), 1))
	require.Error(t, w.Append(frame.NewRGB(2, 2), 1))
	assert.EqualValues(t, 1, w.FramesWritten())
}

func TestBadHeader(t *testing.T) {
	_, err := NewReader(bytes.NewReader(make([]byte, fileHeaderSize)))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = NewReader(bytes.NewReader([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestCreateAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video.stream")
	w, err := Create(path, 3, 2)
	require.NoError(t, err)
	frames, delays := writeFrames(t, w, 5)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	for i := range frames {
		f, delay, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, frames[i].Pix, f.Pix)
		assert.Equal(t, delays[i], delay)
	}
	_, _, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestHeaderDimensions(t *testing.T) {
	large := fileHeader{
		Version:   FormatVersion,
		Width:     maxDimension - 1,
		Height:    maxDimension - 1,
		FrameSize: uint32((maxDimension - 1) * (maxDimension - 1) * frame.BytesPerPixel),
	}
	buf, err := large.MarshalBinary()
	require.NoError(t, err)
	var parsed fileHeader
	require.NoError(t, parsed.UnmarshalBinary(buf))
	assert.Equal(t, large.FrameSize, parsed.FrameSize)

	for _, h := range []fileHeader{
		{Version: FormatVersion, Width: maxDimension, Height: 1, FrameSize: maxDimension * 3},
		// 65535*65535*3 wraps around in 32 bits to this value
		{Version: FormatVersion, Width: 65535, Height: 65535, FrameSize: 4294574083},
	} {
		buf, err := h.MarshalBinary()
		require.NoError(t, err)
		assert.Error(t, new(fileHeader).UnmarshalBinary(buf), "%dx%d", h.Width, h.Height)
	}
}

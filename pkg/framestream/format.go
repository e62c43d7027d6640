package framestream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	FileMagic   = uint32(0x4C45444D)
	RecordMagic = uint32(0x4652414D)

	FormatVersion = uint16(1)

	fileHeaderSize   = 24
	recordHeaderSize = 16

	maxDimension = 1 << 15
)

type Flags uint16

const (
	FlagZstd = Flags(1 << iota)
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

var (
	ErrBadMagic           = errors.New("bad magic value")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTruncated          = errors.New("the stream is truncated")
	ErrFrameSize          = errors.New("frame size mismatch")
)

type fileHeader struct {
	Version   uint16
	Flags     Flags
	Width     uint16
	Height    uint16
	FrameSize uint32
}

func (h fileHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], FileMagic)
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	binary.LittleEndian.PutUint16(buf[6:], uint16(h.Flags))
	binary.LittleEndian.PutUint16(buf[8:], h.Width)
	binary.LittleEndian.PutUint16(buf[10:], h.Height)
	binary.LittleEndian.PutUint32(buf[12:], h.FrameSize)
	// buf[16:24] is reserved
	return buf, nil
}

func (h *fileHeader) UnmarshalBinary(buf []byte) error {
	if len(buf) < fileHeaderSize {
		return fmt.Errorf("%w: file header is %d bytes, expected %d", ErrTruncated, len(buf), fileHeaderSize)
	}
	if magic := binary.LittleEndian.Uint32(buf[0:]); magic != FileMagic {
		return fmt.Errorf("%w: 0x%08X in the file header", ErrBadMagic, magic)
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:])
	if h.Version != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	h.Flags = Flags(binary.LittleEndian.Uint16(buf[6:]))
	h.Width = binary.LittleEndian.Uint16(buf[8:])
	h.Height = binary.LittleEndian.Uint16(buf[10:])
	h.FrameSize = binary.LittleEndian.Uint32(buf[12:])
	if h.Width == 0 || h.Height == 0 || h.Width >= maxDimension || h.Height >= maxDimension {
		return fmt.Errorf("invalid frame size %dx%d in the file header", h.Width, h.Height)
	}
	if expected := uint64(h.Width) * uint64(h.Height) * 3; uint64(h.FrameSize) != expected {
		return fmt.Errorf("%w: header says %d bytes per frame, but %dx%d requires %d", ErrFrameSize, h.FrameSize, h.Width, h.Height, expected)
	}
	return nil
}

type recordHeader struct {
	PayloadLength uint32
	DelayMicros   uint32
}

func (h recordHeader) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], RecordMagic)
	binary.LittleEndian.PutUint32(buf[4:], h.PayloadLength)
	binary.LittleEndian.PutUint32(buf[8:], h.DelayMicros)
	binary.LittleEndian.PutUint32(buf[12:], 0)
}

func (h *recordHeader) parse(buf []byte) error {
	if magic := binary.LittleEndian.Uint32(buf[0:]); magic != RecordMagic {
		return fmt.Errorf("%w: 0x%08X in a record header", ErrBadMagic, magic)
	}
	h.PayloadLength = binary.LittleEndian.Uint32(buf[4:])
	h.DelayMicros = binary.LittleEndian.Uint32(buf[8:])
	return nil
}

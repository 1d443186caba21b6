package project

import (
	"fmt"
	"io"
)

// PayloadRange returns the offset and length of the bytes that follow the
// record header of s in its track cache. Key records have no payload.
func PayloadRange(s SubSequence) (off, n int64) {
	b := s.Base()
	switch r := s.(type) {
	case *FrameSubSequence:
		return b.StreamPosition + FrameRecordHeaderSize, int64(r.PixelsLength)
	case *CursorSubSequence:
		return b.StreamPosition + CursorRecordHeaderSize, int64(r.PixelsLength)
	default:
		return b.StreamPosition + KeyRecordSize, 0
	}
}

// OpenPayload returns a reader over the payload of s in the track cache src,
// without decoding anything else.
func OpenPayload(src io.ReaderAt, s SubSequence) *io.SectionReader {
	off, n := PayloadRange(s)
	return io.NewSectionReader(src, off, n)
}

// ReadPayload reads the whole payload of s.
func ReadPayload(src io.ReaderAt, s SubSequence) ([]byte, error) {
	sr := OpenPayload(src, s)
	buf := make([]byte, sr.Size())
	if _, err := io.ReadFull(sr, buf); err != nil {
		return nil, fmt.Errorf("project: read payload at %d: %w", s.Base().StreamPosition, err)
	}
	return buf, nil
}

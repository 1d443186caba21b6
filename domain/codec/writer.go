package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrStringTooLong is returned when a string does not fit its length prefix.
var ErrStringTooLong = errors.New("codec: string too long for length prefix")

// Writer encodes little-endian primitives onto an io.Writer. The first error
// is sticky: once set, later calls are no-ops and Err reports it. Offset
// tracks the absolute stream position so callers can record where a record
// starts without seeking.
type Writer struct {
	w   io.Writer
	off int64
	err error
	buf [8]byte
}

// NewWriter wraps w. offset is the stream position of w at the time of the
// call (0 for a freshly created file).
func NewWriter(w io.Writer, offset int64) *Writer {
	return &Writer{w: w, off: offset}
}

// Offset reports the current absolute stream position.
func (w *Writer) Offset() int64 { return w.off }

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.off += int64(n)
	if err != nil {
		w.err = err
	}
}

func (w *Writer) Byte(v byte) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

// Bool writes a single byte, 1 for true.
func (w *Writer) Bool(v bool) {
	if v {
		w.Byte(1)
		return
	}
	w.Byte(0)
}

func (w *Writer) Uint16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.write(w.buf[:2])
}

func (w *Writer) Int16(v int16) { w.Uint16(uint16(v)) }

func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

// Float32 writes v as an IEEE-754 single.
func (w *Writer) Float32(v float64) { w.Uint32(math.Float32bits(float32(v))) }

func (w *Writer) Bytes(p []byte) { w.write(p) }

// PascalString writes a 1-byte length followed by the UTF-8 bytes of s.
func (w *Writer) PascalString(s string) {
	if w.err != nil {
		return
	}
	if len(s) > math.MaxUint8 {
		w.err = fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
		return
	}
	w.Byte(byte(len(s)))
	w.write([]byte(s))
}

// PascalStringUint32 writes a 4-byte length followed by the UTF-8 bytes of s.
func (w *Writer) PascalStringUint32(s string) {
	if w.err != nil {
		return
	}
	if uint64(len(s)) > math.MaxUint32 {
		w.err = fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
		return
	}
	w.Uint32(uint32(len(s)))
	w.write([]byte(s))
}

// CopyRange copies exactly n bytes starting at off in src.
func (w *Writer) CopyRange(src io.ReaderAt, off, n int64) {
	if w.err != nil || n == 0 {
		return
	}
	copied, err := CopyRange(w.w, src, off, n)
	w.off += copied
	if err != nil {
		w.err = err
	}
}

// CopyRange copies the sub-range [off, off+n) of src into dst. A source that
// ends before the range does yields io.ErrUnexpectedEOF.
func CopyRange(dst io.Writer, src io.ReaderAt, off, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	section := io.NewSectionReader(src, off, n)
	copied, err := io.CopyN(dst, section, n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return copied, err
}

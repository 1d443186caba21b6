package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MaxStringLength bounds length-prefixed strings accepted by Reader so a
// corrupt prefix cannot trigger a huge allocation.
const MaxStringLength = 16 << 20

// Reader decodes little-endian primitives with a sticky first error, the
// mirror image of Writer. Truncated input surfaces as io.ErrUnexpectedEOF.
type Reader struct {
	r   io.Reader
	off int64
	err error
	buf [8]byte
}

// NewReader wraps r positioned at offset.
func NewReader(r io.Reader, offset int64) *Reader {
	return &Reader{r: r, off: offset}
}

func (r *Reader) Offset() int64 { return r.off }

func (r *Reader) Err() error { return r.err }

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, p)
	r.off += int64(n)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return false
	}
	return true
}

func (r *Reader) Byte() byte {
	if !r.read(r.buf[:1]) {
		return 0
	}
	return r.buf[0]
}

func (r *Reader) Bool() bool { return r.Byte() != 0 }

func (r *Reader) Uint16() uint16 {
	if !r.read(r.buf[:2]) {
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[:2])
}

func (r *Reader) Int16() int16 { return int16(r.Uint16()) }

func (r *Reader) Uint32() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

func (r *Reader) Int32() int32 { return int32(r.Uint32()) }

func (r *Reader) Uint64() uint64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

func (r *Reader) Int64() int64 { return int64(r.Uint64()) }

// Float32 reads an IEEE-754 single and widens it.
func (r *Reader) Float32() float64 { return float64(math.Float32frombits(r.Uint32())) }

// Bytes reads exactly n bytes.
func (r *Reader) Bytes(n int) []byte {
	if r.err != nil || n <= 0 {
		return nil
	}
	p := make([]byte, n)
	if !r.read(p) {
		return nil
	}
	return p
}

func (r *Reader) PascalString() string {
	n := r.Byte()
	return string(r.Bytes(int(n)))
}

func (r *Reader) PascalStringUint32() string {
	n := r.Uint32()
	if r.err != nil {
		return ""
	}
	if n > MaxStringLength {
		r.err = fmt.Errorf("%w: prefix %d exceeds %d", ErrStringTooLong, n, MaxStringLength)
		return ""
	}
	return string(r.Bytes(int(n)))
}

// Skip discards n bytes.
func (r *Reader) Skip(n int64) {
	if r.err != nil || n <= 0 {
		return
	}
	copied, err := io.CopyN(io.Discard, r.r, n)
	r.off += copied
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

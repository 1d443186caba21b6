package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestWriterReaderPrimitives(t *testing.T) {
	convey.Convey("primitives written by Writer decode with Reader", t, func() {
		var buf bytes.Buffer
		w := NewWriter(&buf, 0)
		w.Byte(7)
		w.Bool(true)
		w.Uint16(0xBEEF)
		w.Int16(-120)
		w.Uint32(0xDEADBEEF)
		w.Int32(-5)
		w.Uint64(1 << 40)
		w.Int64(-1)
		w.Float32(0.5)
		w.PascalString("Frames")
		w.PascalStringUint32("#FF000000")
		convey.So(w.Err(), convey.ShouldBeNil)
		convey.So(w.Offset(), convey.ShouldEqual, int64(buf.Len()))

		r := NewReader(bytes.NewReader(buf.Bytes()), 0)
		convey.So(r.Byte(), convey.ShouldEqual, 7)
		convey.So(r.Bool(), convey.ShouldBeTrue)
		convey.So(r.Uint16(), convey.ShouldEqual, 0xBEEF)
		convey.So(r.Int16(), convey.ShouldEqual, -120)
		convey.So(r.Uint32(), convey.ShouldEqual, uint32(0xDEADBEEF))
		convey.So(r.Int32(), convey.ShouldEqual, -5)
		convey.So(r.Uint64(), convey.ShouldEqual, uint64(1<<40))
		convey.So(r.Int64(), convey.ShouldEqual, -1)
		convey.So(r.Float32(), convey.ShouldEqual, 0.5)
		convey.So(r.PascalString(), convey.ShouldEqual, "Frames")
		convey.So(r.PascalStringUint32(), convey.ShouldEqual, "#FF000000")
		convey.So(r.Err(), convey.ShouldBeNil)
		convey.So(r.Offset(), convey.ShouldEqual, w.Offset())
	})
}

func TestWriterByteLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 100)
	w.Uint16(3)
	w.PascalString("ab")
	w.Int64(42)
	if w.Err() != nil {
		t.Fatalf("unexpected error: %v", w.Err())
	}
	if w.Offset() != 100+2+1+2+8 {
		t.Fatalf("offset mismatch: got %d", w.Offset())
	}
	b := buf.Bytes()
	if binary.LittleEndian.Uint16(b[0:2]) != 3 {
		t.Fatalf("uint16 mismatch: %v", b[0:2])
	}
	if b[2] != 2 || string(b[3:5]) != "ab" {
		t.Fatalf("pascal string mismatch: %v", b[2:5])
	}
	if int64(binary.LittleEndian.Uint64(b[5:13])) != 42 {
		t.Fatalf("int64 mismatch: %v", b[5:13])
	}
}

func TestPascalStringTooLong(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	w.PascalString(strings.Repeat("x", 256))
	if !errors.Is(w.Err(), ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", w.Err())
	}
	w.Byte(1)
	if buf.Len() != 0 {
		t.Fatalf("writer should be inert after error, wrote %d bytes", buf.Len())
	}
}

func TestReaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	w.Uint64(9)
	w.PascalStringUint32("background")
	encoded := buf.Bytes()

	for i := 0; i < len(encoded); i++ {
		r := NewReader(bytes.NewReader(encoded[:i]), 0)
		r.Uint64()
		r.PascalStringUint32()
		if !errors.Is(r.Err(), io.ErrUnexpectedEOF) {
			t.Fatalf("expected unexpected EOF for length %d, got %v", i, r.Err())
		}
	}
}

func TestReaderRejectsHugeStringPrefix(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, 0).Uint32(MaxStringLength + 1)
	r := NewReader(bytes.NewReader(buf.Bytes()), 0)
	if s := r.PascalStringUint32(); s != "" || !errors.Is(r.Err(), ErrStringTooLong) {
		t.Fatalf("expected rejection, got %q err=%v", s, r.Err())
	}
}

func TestCopyRange(t *testing.T) {
	convey.Convey("CopyRange copies a bounded sub-range", t, func() {
		src := bytes.NewReader([]byte("0123456789"))

		convey.Convey("inside the source", func() {
			var dst bytes.Buffer
			n, err := CopyRange(&dst, src, 3, 4)
			convey.So(err, convey.ShouldBeNil)
			convey.So(n, convey.ShouldEqual, 4)
			convey.So(dst.String(), convey.ShouldEqual, "3456")
		})

		convey.Convey("past the end of the source", func() {
			var dst bytes.Buffer
			_, err := CopyRange(&dst, src, 8, 5)
			convey.So(errors.Is(err, io.ErrUnexpectedEOF), convey.ShouldBeTrue)
		})

		convey.Convey("through a Writer keeps the offset", func() {
			var dst bytes.Buffer
			w := NewWriter(&dst, 10)
			w.CopyRange(src, 0, 10)
			convey.So(w.Err(), convey.ShouldBeNil)
			convey.So(w.Offset(), convey.ShouldEqual, 20)
			convey.So(dst.String(), convey.ShouldEqual, "0123456789")
		})
	})
}

func TestReaderSkip(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3, 4, 5}), 0)
	r.Skip(3)
	if b := r.Byte(); b != 4 || r.Offset() != 4 {
		t.Fatalf("skip mismatch: byte=%d offset=%d", b, r.Offset())
	}
	r.Skip(5)
	if !errors.Is(r.Err(), io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", r.Err())
	}
}

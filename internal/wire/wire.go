// Package wire implements the compact little-endian binary encoding shared by
// instructions, queue records and action envelopes: fixed-width integers,
// u32-length-prefixed strings and byte sequences, 32-byte identities, and
// u8 variant tags. There is no padding and no field names on the wire.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

var (
	ErrShortBuffer  = errors.New("wire: short buffer")
	ErrTrailingData = errors.New("wire: trailing bytes")
	ErrInvalidBool  = errors.New("wire: invalid bool")
	ErrInvalidUTF8  = errors.New("wire: invalid utf-8 string")
	ErrTooLong      = errors.New("wire: length exceeds u32")
)

// Writer appends encoded values to a growing buffer. It records the first
// value a Reader would refuse; Err reports it.
type Writer struct {
	buf []byte
	err error
}

func NewWriter(capacity int) *Writer { return &Writer{buf: make([]byte, 0, capacity)} }

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }
func (w *Writer) Err() error    { return w.err }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) U64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) I64(v int64)  { w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v)) }

func (w *Writer) Identity(id identity.Identity) { w.buf = append(w.buf, id[:]...) }

// ByteSeq writes a u32 length followed by the raw bytes.
func (w *Writer) ByteSeq(b []byte) {
	if err := CheckLen(len(b)); err != nil {
		w.fail(err)
	}
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// String writes a u32 length followed by the UTF-8 bytes of s.
func (w *Writer) String(s string) {
	if err := CheckLen(len(s)); err != nil {
		w.fail(err)
	}
	if !utf8.ValidString(s) {
		w.fail(fmt.Errorf("%w: at offset %d", ErrInvalidUTF8, len(w.buf)))
	}
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// CheckLen reports whether n fits a u32 length prefix.
func CheckLen(n int) error {
	if uint64(n) > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrTooLong, n)
	}
	return nil
}

// Reader consumes encoded values from a buffer. The first failure sticks:
// later reads return zero values and Err reports the original cause.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

func (r *Reader) Err() error     { return r.err }
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.err = fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d", ErrShortBuffer, what, n, r.off, r.Remaining())
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1, "u8")
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool {
	b := r.take(1, "bool")
	if b == nil {
		return false
	}
	switch b[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		r.err = fmt.Errorf("%w: %d at offset %d", ErrInvalidBool, b[0], r.off-1)
		return false
	}
}

func (r *Reader) U32() uint32 {
	b := r.take(4, "u32")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8, "u64")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) I64() int64 { return int64(r.U64()) }

func (r *Reader) Identity() identity.Identity {
	var id identity.Identity
	b := r.take(identity.Size, "identity")
	if b != nil {
		copy(id[:], b)
	}
	return id
}

// ByteSeq reads a u32-prefixed byte sequence and returns a copy.
func (r *Reader) ByteSeq() []byte {
	n := r.U32()
	if r.err != nil {
		return nil
	}
	b := r.take(int(n), "byte sequence")
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func (r *Reader) String() string {
	n := r.U32()
	if r.err != nil {
		return ""
	}
	b := r.take(int(n), "string")
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.err = ErrInvalidUTF8
		return ""
	}
	return string(b)
}

// Finish returns the sticky error, or ErrTrailingData if bytes remain.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingData, r.Remaining())
	}
	return nil
}

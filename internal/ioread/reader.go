// Package ioread provides a little-endian cursor reader over an in-memory
// byte slice, the primitive the TOC and directory-index parsers are built
// on.
package ioread

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrUnexpectedEOF is returned when a read would run past the end of the
// underlying slice.
var ErrUnexpectedEOF = errors.New("unexpected end of buffer")

// Reader is a cursor over a byte slice. It never copies the backing slice;
// ReadBytes returns sub-slices of it, which is safe because callers treat
// the TOC buffer as immutable for the container's lifetime.
type Reader struct {
	buf []byte
	pos int
}

// New returns a Reader positioned at the start of buf.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current cursor offset.
func (r *Reader) Position() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(abs int) error {
	if abs < 0 || abs > len(r.buf) {
		return errors.Wrapf(ErrUnexpectedEOF, "seek to %d (len %d)", abs, len(r.buf))
	}
	r.pos = abs
	return nil
}

// Advance moves the cursor forward by n bytes without reading them.
func (r *Reader) Advance(n int) error {
	return r.Seek(r.pos + n)
}

func (r *Reader) checkAvail(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return errors.Wrapf(ErrUnexpectedEOF, "read %d bytes at %d (len %d)", n, r.pos, len(r.buf))
	}
	return nil
}

// ReadBytes returns a sub-slice of the underlying buffer of length n and
// advances the cursor. The returned slice aliases the Reader's backing
// array; callers must not mutate it.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.checkAvail(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadInto copies len(dst) bytes into dst and advances the cursor.
func (r *Reader) ReadInto(dst []byte) error {
	b, err := r.ReadBytes(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads a signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadI16 reads a little-endian int16.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32 reads a little-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadArray reads count consecutive elements, calling elem with the Reader
// positioned at the start of each.
func ReadArray[T any](r *Reader, count int, elem func(*Reader) (T, error)) ([]T, error) {
	out := make([]T, count)
	for i := range out {
		v, err := elem(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

package classfile

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Reader reads big-endian primitives from a byte source and tracks the
// offset of the next unread byte.
type Reader struct {
	r   io.Reader
	off int64
	buf [4]byte
}

// NewReader returns a Reader positioned at offset 0 of r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.off
}

func (r *Reader) fill(n int) ([]byte, error) {
	got, err := io.ReadFull(r.r, r.buf[:n])
	r.off += int64(got)
	if err != nil {
		return nil, &TruncatedInputError{Offset: r.off - int64(got), Need: n, Have: got}
	}
	return r.buf[:n], nil
}

// ReadU1 reads one unsigned byte.
func (r *Reader) ReadU1() (uint8, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU2 reads a big-endian uint16.
func (r *Reader) ReadU2() (uint16, error) {
	b, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU4 reads a big-endian uint32.
func (r *Reader) ReadU4() (uint32, error) {
	b, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadBytes reads exactly n bytes into a freshly allocated slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	// Copy instead of preallocating so a bogus length cannot force a huge
	// allocation before the stream runs out.
	var buf bytes.Buffer
	got, err := io.CopyN(&buf, r.r, int64(n))
	r.off += got
	if err != nil {
		return nil, &TruncatedInputError{Offset: r.off - got, Need: n, Have: int(got)}
	}
	return buf.Bytes(), nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int64) error {
	got, err := io.CopyN(io.Discard, r.r, n)
	r.off += got
	if err != nil {
		return &TruncatedInputError{Offset: r.off - got, Need: int(n), Have: int(got)}
	}
	return nil
}

// atEOF reports whether the source has no more bytes. It consumes one byte
// when one is available.
func (r *Reader) atEOF() bool {
	_, err := r.fill(1)
	return err != nil
}

// Package binary provides low-level big-endian I/O for HFS+ structure parsing.
package binary

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// Order is the byte order of every on-disk HFS+ structure.
var Order = binary.BigEndian

// ReadExact reads exactly n bytes at off. A short read, including one that
// reports io.EOF, is an I/O error.
func ReadExact(r io.ReaderAt, off int64, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.ReadAt(buf, off)
	if got == n {
		// io.ReaderAt may return io.EOF alongside a full read at the end of input.
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, &fserr.SourceError{Offset: off, Length: n, Err: err}
}

// Reader reads big-endian values sequentially from an io.ReaderAt.
type Reader struct {
	r   io.ReaderAt
	pos int64
}

// NewReader creates a reader positioned at offset 0.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf, err := ReadExact(r.r, r.pos, n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return Order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return Order.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return Order.Uint64(buf), nil
}

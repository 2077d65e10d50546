package decmpfs

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/cockroachdb/errors"

	hbin "github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// BlockSize is the uncompressed size of every resource fork block except
// the last.
const BlockSize = 0x10000

// resourceHeaderSize is the size of the resource fork header. Its fields
// are big-endian: data offset, map offset, data length, map length.
const resourceHeaderSize = 16

type sizer interface {
	Size() int64
}

type block struct {
	offset uint32
	size   uint32
}

// ResourceReader reads the contents of a file compressed into its resource
// fork. It decodes one block per read at most and keeps the last decoded
// block.
type ResourceReader struct {
	src     io.ReaderAt
	size    uint64
	base    int64
	blocks  []block
	decoder Decoder

	mu     sync.Mutex
	cached int
	buf    []byte
}

// NewResourceReader returns a reader over the compressed resource fork rsrc
// of a file described by h.
func NewResourceReader(rsrc io.ReaderAt, h *Header) (*ResourceReader, error) {
	if h.Inline() {
		return nil, fserr.Formatf("decmpfs type %d keeps its data inline", h.Type)
	}
	d, err := decoderFor(h.Type)
	if err != nil {
		return nil, err
	}

	rh, err := hbin.ReadExact(rsrc, 0, resourceHeaderSize)
	if err != nil {
		return nil, errors.Wrap(err, "reading resource fork header")
	}
	dataOffset := hbin.Order.Uint32(rh[0:])

	// The data area starts with a big-endian length, then the block table.
	head, err := hbin.ReadExact(rsrc, int64(dataOffset), 8)
	if err != nil {
		return nil, errors.Wrap(err, "reading block table")
	}
	n := binary.LittleEndian.Uint32(head[4:])

	if h.UncompressedSize > math.MaxInt64 {
		return nil, fserr.Formatf("decmpfs size %d out of range", h.UncompressedSize)
	}
	want := h.UncompressedSize / BlockSize
	if h.UncompressedSize%BlockSize != 0 {
		want++
	}
	if uint64(n) != want {
		return nil, fserr.Formatf("block table has %d blocks, %d bytes need %d", n, h.UncompressedSize, want)
	}
	if s, ok := rsrc.(sizer); ok && int64(dataOffset)+8+8*int64(n) > s.Size() {
		return nil, fserr.Formatf("block table of %d blocks overruns resource fork of %d bytes", n, s.Size())
	}

	table, err := hbin.ReadExact(rsrc, int64(dataOffset)+8, int(n)*8)
	if err != nil {
		return nil, errors.Wrap(err, "reading block table")
	}
	blocks := make([]block, n)
	for i := range blocks {
		blocks[i] = block{
			offset: binary.LittleEndian.Uint32(table[8*i:]),
			size:   binary.LittleEndian.Uint32(table[8*i+4:]),
		}
	}

	return &ResourceReader{
		src:     rsrc,
		size:    h.UncompressedSize,
		base:    int64(dataOffset) + 4,
		blocks:  blocks,
		decoder: d,
		cached:  -1,
	}, nil
}

// Size returns the uncompressed size of the file.
func (r *ResourceReader) Size() int64 {
	return int64(r.size)
}

// ReadAt implements io.ReaderAt over the uncompressed contents.
func (r *ResourceReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Newf("decmpfs: negative offset %d", off)
	}
	if uint64(off) >= r.size {
		return 0, io.EOF
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) && uint64(off)+uint64(n) < r.size {
		pos := uint64(off) + uint64(n)
		i := int(pos / BlockSize)
		data, err := r.block(i)
		if err != nil {
			return n, err
		}
		n += copy(p[n:], data[pos%BlockSize:])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// block returns decoded block i. r.mu must be held.
func (r *ResourceReader) block(i int) ([]byte, error) {
	if i == r.cached {
		return r.buf, nil
	}
	b := r.blocks[i]
	raw, err := hbin.ReadExact(r.src, r.base+int64(b.offset), int(b.size))
	if err != nil {
		return nil, errors.Wrapf(err, "reading compressed block %d", i)
	}

	want := min(uint64(BlockSize), r.size-uint64(i)*BlockSize)
	out, err := r.decoder.Decode(raw, int(want))
	if err != nil {
		return nil, errors.Wrapf(err, "block %d", i)
	}
	if uint64(len(out)) != want {
		return nil, fserr.Formatf("block %d decodes to %d bytes, want %d", i, len(out), want)
	}

	r.cached, r.buf = i, out
	return out, nil
}

package fork

import (
	"io"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
	"github.com/robert-malhotra/go-hfsplus/internal/keys"
)

// Buffer reads the logical bytes of one fork. It holds no mutable state and
// may be used from several goroutines if the volume source allows it.
type Buffer struct {
	src       io.ReaderAt
	blockSize uint64
	fileID    uint32
	forkType  keys.ForkType
	fork      ForkData
	overflow  Overflow
}

// New returns a buffer over fork fd of file fileID. overflow may be nil for
// forks whose extents are all inline, such as the extents file itself. A
// blockSize of zero makes every read of a non-empty fork fail with a format
// error.
func New(src io.ReaderAt, blockSize uint32, fileID uint32, ft keys.ForkType, fd ForkData, overflow Overflow) *Buffer {
	return &Buffer{
		src:       src,
		blockSize: uint64(blockSize),
		fileID:    fileID,
		forkType:  ft,
		fork:      fd,
		overflow:  overflow,
	}
}

// Size returns the logical size of the fork in bytes.
func (b *Buffer) Size() int64 {
	return int64(b.fork.LogicalSize)
}

// Fork returns the fork descriptor the buffer reads.
func (b *Buffer) Fork() ForkData {
	return b.fork
}

// Read returns up to n bytes starting at logical offset pos. Reads that run
// past the logical size are clamped; a read at or after the end returns no
// bytes and no error.
func (b *Buffer) Read(pos uint64, n uint32) ([]byte, error) {
	if pos >= b.fork.LogicalSize {
		return []byte{}, nil
	}
	want := min(uint64(n), b.fork.LogicalSize-pos)
	out := make([]byte, want)
	got, err := b.read(out, pos)
	if err != nil {
		return nil, err
	}
	return out[:got], nil
}

// ReadAt implements io.ReaderAt. It returns io.EOF when p extends past the
// logical size of the fork.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Newf("hfsplus: negative offset %d", off)
	}
	pos := uint64(off)
	if pos >= b.fork.LogicalSize {
		return 0, io.EOF
	}
	want := min(uint64(len(p)), b.fork.LogicalSize-pos)
	got, err := b.read(p[:want], pos)
	if err != nil {
		return got, err
	}
	if got < len(p) {
		return got, io.EOF
	}
	return got, nil
}

// read fills dst from pos, one extent at a time, in ascending block order.
func (b *Buffer) read(dst []byte, pos uint64) (int, error) {
	total := 0
	for total < len(dst) {
		cur := pos + uint64(total)
		ext, extStart, err := b.findExtent(cur)
		if err != nil {
			return total, err
		}

		extSize := uint64(ext.BlockCount) * b.blockSize
		inExtent := cur - extStart
		toRead := min(uint64(len(dst)-total), extSize-inExtent)
		if toRead == 0 {
			break
		}

		phys := uint64(ext.StartBlock)*b.blockSize + inExtent
		if phys > math.MaxInt64 {
			return total, fserr.Formatf("extent of cnid %d maps past the addressable range", b.fileID)
		}
		data, err := binary.ReadExact(b.src, int64(phys), int(toRead))
		if err != nil {
			return total, errors.Wrapf(err, "reading cnid %d %s fork at %d", b.fileID, b.forkType, cur)
		}
		total += copy(dst[total:], data)
	}
	return total, nil
}

// findExtent returns the extent holding logical byte pos and the logical
// byte offset at which that extent starts.
func (b *Buffer) findExtent(pos uint64) (Extent, uint64, error) {
	if b.blockSize == 0 {
		return Extent{}, 0, fserr.Formatf("cnid %d: zero allocation block size", b.fileID)
	}
	block := pos / b.blockSize
	var seen uint64

	for _, e := range b.fork.Extents {
		if seen+uint64(e.BlockCount) > block {
			return e, seen * b.blockSize, nil
		}
		seen += uint64(e.BlockCount)
	}

	for seen < uint64(b.fork.TotalBlocks) {
		if b.overflow == nil {
			return Extent{}, 0, &fserr.MissingExtentError{FileID: b.fileID, BlocksSeen: uint32(seen)}
		}
		exts, ok, err := b.overflow.Extents(b.fileID, b.forkType, uint32(seen))
		if err != nil {
			return Extent{}, 0, err
		}
		if !ok {
			return Extent{}, 0, &fserr.MissingExtentError{FileID: b.fileID, BlocksSeen: uint32(seen)}
		}

		before := seen
		for _, e := range exts {
			if seen+uint64(e.BlockCount) > block {
				return e, seen * b.blockSize, nil
			}
			seen += uint64(e.BlockCount)
		}
		if seen == before {
			return Extent{}, 0, fserr.Formatf("overflow record for cnid %d at block %d holds no blocks", b.fileID, before)
		}
	}

	return Extent{}, 0, &fserr.BeyondEndOfForkError{FileID: b.fileID, Block: block, TotalBlocks: b.fork.TotalBlocks}
}

// WriteAt always fails: forks are read-only.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	return 0, errors.Wrap(fserr.ErrUnsupported, "fork write")
}

// Truncate always fails: forks are read-only.
func (b *Buffer) Truncate(size int64) error {
	return errors.Wrap(fserr.ErrUnsupported, "fork truncate")
}

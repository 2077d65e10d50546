// Package fork maps the logical byte space of an HFS+ fork onto volume blocks.
//
// A fork lists up to eight extents inline in its catalog record. Files more
// fragmented than that keep the remaining extents in the Extents-Overflow
// B-tree, keyed by (file id, fork type, first logical block of the record).
// [Buffer] hides both cases behind byte-addressed reads.
package fork

import (
	"math"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// Sizes of the on-disk structures.
const (
	ExtentSize      = 8
	InlineExtents   = 8
	ExtentRecordLen = ExtentSize * InlineExtents
	ForkDataSize    = 16 + ExtentRecordLen
)

// Extent is a contiguous run of allocation blocks.
type Extent struct {
	StartBlock uint32
	BlockCount uint32
}

// ForkData describes one fork of a file.
type ForkData struct {
	LogicalSize uint64
	ClumpSize   uint32
	TotalBlocks uint32
	Extents     [InlineExtents]Extent
}

// ParseForkData decodes an 80-byte fork descriptor.
func ParseForkData(b []byte) (ForkData, error) {
	if len(b) < ForkDataSize {
		return ForkData{}, fserr.Formatf("fork data needs %d bytes, got %d", ForkDataSize, len(b))
	}
	fd := ForkData{
		LogicalSize: binary.Order.Uint64(b[0:]),
		ClumpSize:   binary.Order.Uint32(b[8:]),
		TotalBlocks: binary.Order.Uint32(b[12:]),
	}
	if fd.LogicalSize > math.MaxInt64 {
		return ForkData{}, fserr.Formatf("fork logical size %d out of range", fd.LogicalSize)
	}
	copy(fd.Extents[:], ParseExtents(b[16:ForkDataSize]))
	return fd, nil
}

// ParseExtents decodes consecutive extent descriptors. Trailing bytes that do
// not form a whole descriptor are ignored.
func ParseExtents(b []byte) []Extent {
	exts := make([]Extent, len(b)/ExtentSize)
	for i := range exts {
		exts[i] = Extent{
			StartBlock: binary.Order.Uint32(b[i*ExtentSize:]),
			BlockCount: binary.Order.Uint32(b[i*ExtentSize+4:]),
		}
	}
	return exts
}

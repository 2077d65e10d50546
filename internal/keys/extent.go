package keys

import (
	"fmt"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// ForkType selects one of a file's two data streams.
type ForkType uint8

const (
	DataFork     ForkType = 0x00
	ResourceFork ForkType = 0xFF
)

func (f ForkType) String() string {
	switch f {
	case DataFork:
		return "data"
	case ResourceFork:
		return "resource"
	}
	return fmt.Sprintf("fork(0x%02x)", uint8(f))
}

// extentKeyLength is the fixed key length of the extents overflow tree.
const extentKeyLength = 10

// ExtentKey orders the extents overflow B-tree. StartBlock is the logical
// block of the fork at which the record's first extent begins.
type ExtentKey struct {
	FileID     uint32
	Fork       ForkType
	StartBlock uint32
}

// ParseExtentKey decodes an extent key from the start of b.
func ParseExtentKey(b []byte) (ExtentKey, int, error) {
	total, err := keyLength(b, "extent", extentKeyLength)
	if err != nil {
		return ExtentKey{}, 0, err
	}
	k := ExtentKey{
		Fork:       ForkType(b[2]),
		FileID:     binary.Order.Uint32(b[4:]),
		StartBlock: binary.Order.Uint32(b[8:]),
	}
	if k.Fork != DataFork && k.Fork != ResourceFork {
		return ExtentKey{}, 0, fserr.Formatf("extent key for cnid %d has fork type 0x%02x", k.FileID, uint8(k.Fork))
	}
	return k, total, nil
}

// Compare orders by FileID, then Fork (data before resource), then StartBlock.
func (k ExtentKey) Compare(other ExtentKey) int {
	if c := cmpUint32(k.FileID, other.FileID); c != 0 {
		return c
	}
	if k.Fork != other.Fork {
		if k.Fork < other.Fork {
			return -1
		}
		return 1
	}
	return cmpUint32(k.StartBlock, other.StartBlock)
}

// Bytes encodes the key in its on-disk form.
func (k ExtentKey) Bytes() []byte {
	out := make([]byte, 2+extentKeyLength)
	binary.Order.PutUint16(out, extentKeyLength)
	out[2] = byte(k.Fork)
	binary.Order.PutUint32(out[4:], k.FileID)
	binary.Order.PutUint32(out[8:], k.StartBlock)
	return out
}

func (k ExtentKey) String() string {
	return fmt.Sprintf("%d/%s@%d", k.FileID, k.Fork, k.StartBlock)
}

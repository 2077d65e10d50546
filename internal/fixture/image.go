package fixture

import (
	"github.com/robert-malhotra/go-hfsplus/internal/binary"
)

// Extent is a run of blocks in an Image.
type Extent struct {
	StartBlock uint32
	BlockCount uint32
}

// Image is a growable block device image.
type Image struct {
	BlockSize int
	buf       []byte
	next      uint32
}

// NewImage returns an image whose first free block is firstFree.
func NewImage(blockSize int, firstFree uint32) *Image {
	return &Image{
		BlockSize: blockSize,
		buf:       make([]byte, int(firstFree)*blockSize),
		next:      firstFree,
	}
}

// Place writes data into freshly allocated extents of the given block
// counts, leaving one unused block between extents so none are adjacent.
// The counts must cover data.
func (im *Image) Place(data []byte, counts ...uint32) []Extent {
	var exts []Extent
	for _, c := range counts {
		e := Extent{StartBlock: im.next, BlockCount: c}
		im.grow(e.StartBlock + c + 1)
		n := int(c) * im.BlockSize
		chunk := data[:min(n, len(data))]
		copy(im.buf[int(e.StartBlock)*im.BlockSize:], chunk)
		data = data[len(chunk):]
		exts = append(exts, e)
		im.next = e.StartBlock + c + 1
	}
	if len(data) > 0 {
		panic("fixture: extents too small for data")
	}
	return exts
}

// WriteAt copies data to an absolute byte offset, growing the image.
func (im *Image) WriteAt(off int, data []byte) {
	end := off + len(data)
	im.grow(uint32((end + im.BlockSize - 1) / im.BlockSize))
	copy(im.buf[off:], data)
}

func (im *Image) grow(blocks uint32) {
	if need := int(blocks) * im.BlockSize; need > len(im.buf) {
		im.buf = append(im.buf, make([]byte, need-len(im.buf))...)
	}
}

// Bytes returns the image contents.
func (im *Image) Bytes() []byte {
	return im.buf
}

// TotalBlocks sums the block counts of exts.
func TotalBlocks(exts []Extent) uint32 {
	var n uint32
	for _, e := range exts {
		n += e.BlockCount
	}
	return n
}

// ForkData encodes an 80-byte fork descriptor with up to 8 inline extents.
func ForkData(logicalSize uint64, totalBlocks uint32, inline []Extent) []byte {
	b := make([]byte, 16, 80)
	binary.Order.PutUint64(b[0:], logicalSize)
	binary.Order.PutUint32(b[12:], totalBlocks)
	return append(b, ExtentRecord(inline)...)
}

// ExtentRecord encodes up to 8 extents as a 64-byte extent record.
func ExtentRecord(exts []Extent) []byte {
	if len(exts) > 8 {
		panic("fixture: extent record holds at most 8 extents")
	}
	b := make([]byte, 64)
	for i, e := range exts {
		binary.Order.PutUint32(b[8*i:], e.StartBlock)
		binary.Order.PutUint32(b[8*i+4:], e.BlockCount)
	}
	return b
}

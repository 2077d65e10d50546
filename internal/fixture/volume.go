package fixture

import (
	"github.com/robert-malhotra/go-hfsplus/internal/binary"
)

// VolumeHeader holds the volume header fields tests care about. Forks are
// 80-byte encodings as returned by ForkData; nil leaves a fork empty.
type VolumeHeader struct {
	Signature   uint16
	BlockSize   uint32
	TotalBlocks uint32
	FileCount   uint32
	FolderCount uint32
	NextCNID    uint32

	ExtentsFile    []byte
	CatalogFile    []byte
	AttributesFile []byte
}

// Bytes encodes the 512-byte volume header.
func (v VolumeHeader) Bytes() []byte {
	b := make([]byte, 512)
	sig := v.Signature
	if sig == 0 {
		sig = 0x482B
	}
	binary.Order.PutUint16(b[0:], sig)
	binary.Order.PutUint16(b[2:], 4)
	binary.Order.PutUint32(b[4:], 1<<8) // cleanly unmounted
	binary.Order.PutUint32(b[32:], v.FileCount)
	binary.Order.PutUint32(b[36:], v.FolderCount)
	binary.Order.PutUint32(b[40:], v.BlockSize)
	binary.Order.PutUint32(b[44:], v.TotalBlocks)
	binary.Order.PutUint32(b[64:], v.NextCNID)
	copy(b[192:], v.ExtentsFile)
	copy(b[272:], v.CatalogFile)
	copy(b[352:], v.AttributesFile)
	return b
}

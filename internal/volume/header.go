// Package volume parses the HFS+ volume header.
//
// The volume header sits 1024 bytes into the volume and is the entry point
// for any HFS+ or HFSX volume: it carries the allocation block size and the
// fork descriptors of the special files (extents overflow, catalog,
// attributes) that hold the volume's B-trees.
package volume

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fork"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// Offset and size of the volume header.
const (
	HeaderOffset = 1024
	HeaderSize   = 512
)

// Volume signatures.
const (
	SignatureHFSPlus uint16 = 0x482B // "H+"
	SignatureHFSX    uint16 = 0x4858 // "HX"
	SignatureHFS     uint16 = 0x4244 // "BD", classic HFS or an HFS wrapper
)

// Catalog node ids of the special files.
const (
	RootParentID     uint32 = 1
	RootFolderID     uint32 = 2
	ExtentsFileID    uint32 = 3
	CatalogFileID    uint32 = 4
	BadBlocksFileID  uint32 = 5
	AllocationFileID uint32 = 6
	StartupFileID    uint32 = 7
	AttributesFileID uint32 = 8
	FirstUserID      uint32 = 16
)

// Volume attribute bits.
const (
	AttrUnmounted uint32 = 1 << 8
	AttrJournaled uint32 = 1 << 13
)

// Header is the decoded volume header. Dates are raw HFS+ timestamps.
type Header struct {
	Signature          uint16
	Version            uint16
	Attributes         uint32
	LastMountedVersion uint32
	JournalInfoBlock   uint32
	CreateDate         uint32
	ModifyDate         uint32
	BackupDate         uint32
	CheckedDate        uint32
	FileCount          uint32
	FolderCount        uint32
	BlockSize          uint32
	TotalBlocks        uint32
	FreeBlocks         uint32
	NextAllocation     uint32
	RsrcClumpSize      uint32
	DataClumpSize      uint32
	NextCatalogID      uint32
	WriteCount         uint32
	EncodingsBitmap    uint64
	FinderInfo         [8]uint32

	AllocationFile fork.ForkData
	ExtentsFile    fork.ForkData
	CatalogFile    fork.ForkData
	AttributesFile fork.ForkData
	StartupFile    fork.ForkData
}

// IsHFSX reports whether the volume is the case-sensitive capable variant.
func (h *Header) IsHFSX() bool {
	return h.Signature == SignatureHFSX
}

// Read parses the volume header of the volume in r.
func Read(r io.ReaderAt) (*Header, error) {
	raw, err := binary.ReadExact(r, HeaderOffset, HeaderSize)
	if err != nil {
		return nil, errors.Wrap(err, "reading volume header")
	}
	br := binary.NewReader(bytes.NewReader(raw))

	h := &Header{}
	fields := []interface{}{
		&h.Signature, &h.Version, &h.Attributes, &h.LastMountedVersion,
		&h.JournalInfoBlock, &h.CreateDate, &h.ModifyDate, &h.BackupDate,
		&h.CheckedDate, &h.FileCount, &h.FolderCount, &h.BlockSize,
		&h.TotalBlocks, &h.FreeBlocks, &h.NextAllocation, &h.RsrcClumpSize,
		&h.DataClumpSize, &h.NextCatalogID, &h.WriteCount, &h.EncodingsBitmap,
	}
	for _, f := range fields {
		if err := readField(br, f); err != nil {
			return nil, err
		}
	}
	for i := range h.FinderInfo {
		if h.FinderInfo[i], err = br.ReadUint32(); err != nil {
			return nil, err
		}
	}

	switch h.Signature {
	case SignatureHFSPlus, SignatureHFSX:
	case SignatureHFS:
		return nil, fserr.Formatf("classic HFS volume or HFS wrapper (signature 0x%04x) is not supported", h.Signature)
	default:
		return nil, fserr.Formatf("not an HFS+ volume: signature 0x%04x", h.Signature)
	}

	bs := h.BlockSize
	if bs < 512 || bs&(bs-1) != 0 {
		return nil, fserr.Formatf("invalid allocation block size %d", bs)
	}

	for _, dst := range []*fork.ForkData{&h.AllocationFile, &h.ExtentsFile, &h.CatalogFile, &h.AttributesFile, &h.StartupFile} {
		b, err := br.ReadBytes(fork.ForkDataSize)
		if err != nil {
			return nil, err
		}
		if *dst, err = fork.ParseForkData(b); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func readField(br *binary.Reader, f interface{}) error {
	var err error
	switch p := f.(type) {
	case *uint16:
		*p, err = br.ReadUint16()
	case *uint32:
		*p, err = br.ReadUint32()
	case *uint64:
		*p, err = br.ReadUint64()
	}
	return err
}

package btree

import (
	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// HeaderRecordSize is the minimum size of the header record. Volumes
// written by Apple tools pad it to 106 bytes.
const HeaderRecordSize = 104

// Header record attribute bits.
const (
	AttrBadClose          uint32 = 0x00000001
	AttrBigKeys           uint32 = 0x00000002
	AttrVariableIndexKeys uint32 = 0x00000004
)

// Key compare types (HFSX catalog only).
const (
	CompareCaseFolding uint8 = 0xCF
	CompareBinary      uint8 = 0xBC
)

// Node sizes accepted by the reader.
const (
	MinNodeSize = 512
	MaxNodeSize = 32768
)

// HeaderRecord is the tree-wide metadata held by the first record of the
// header node. It is read once when the tree is opened.
type HeaderRecord struct {
	TreeDepth      uint16
	RootNode       uint32
	LeafRecords    uint32
	FirstLeafNode  uint32
	LastLeafNode   uint32
	NodeSize       uint16
	MaxKeyLength   uint16
	TotalNodes     uint32
	FreeNodes      uint32
	ClumpSize      uint32
	TreeType       uint8
	KeyCompareType uint8
	Attributes     uint32
}

// ParseHeaderRecord decodes a header record from b.
func ParseHeaderRecord(b []byte) (HeaderRecord, error) {
	if len(b) < HeaderRecordSize {
		return HeaderRecord{}, &fserr.TruncatedNodeError{End: HeaderRecordSize, Size: len(b)}
	}
	return HeaderRecord{
		TreeDepth:     binary.Order.Uint16(b[0:]),
		RootNode:      binary.Order.Uint32(b[2:]),
		LeafRecords:   binary.Order.Uint32(b[6:]),
		FirstLeafNode: binary.Order.Uint32(b[10:]),
		LastLeafNode:  binary.Order.Uint32(b[14:]),
		NodeSize:      binary.Order.Uint16(b[18:]),
		MaxKeyLength:  binary.Order.Uint16(b[20:]),
		TotalNodes:    binary.Order.Uint32(b[22:]),
		FreeNodes:     binary.Order.Uint32(b[26:]),
		// b[30:32] reserved
		ClumpSize:      binary.Order.Uint32(b[32:]),
		TreeType:       b[36],
		KeyCompareType: b[37],
		Attributes:     binary.Order.Uint32(b[38:]),
	}, nil
}

// Validate checks the fields the reader depends on.
func (h HeaderRecord) Validate() error {
	ns := int(h.NodeSize)
	if ns < MinNodeSize || ns > MaxNodeSize || ns&(ns-1) != 0 {
		return fserr.Formatf("invalid node size %d", h.NodeSize)
	}
	if h.RootNode != 0 && h.RootNode >= h.TotalNodes {
		return fserr.Formatf("root node %d outside tree of %d nodes", h.RootNode, h.TotalNodes)
	}
	return nil
}

// HeaderNode is the parsed content of node 0.
type HeaderNode struct {
	Record   HeaderRecord
	UserData []byte
	Map      []byte // allocation bitmap, passed through uninterpreted
}

// Package fixture builds small in-memory HFS+ structures for tests: B-tree
// node images, fork descriptors and block images with scattered extents.
package fixture

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
)

// Node kinds as stored on disk.
const (
	KindLeaf   int8 = -1
	KindIndex  int8 = 0
	KindHeader int8 = 1
	KindMap    int8 = 2
)

// Node encodes one node of the given size holding records in order.
// It panics if the records do not fit.
func Node(size int, kind int8, height uint8, flink, blink uint32, records [][]byte) []byte {
	b := make([]byte, size)
	binary.Order.PutUint32(b[0:], flink)
	binary.Order.PutUint32(b[4:], blink)
	b[8] = byte(kind)
	b[9] = height
	binary.Order.PutUint16(b[10:], uint16(len(records)))

	off := 14
	for i, rec := range records {
		binary.Order.PutUint16(b[size-2*(i+1):], uint16(off))
		off += copy(b[off:], rec)
	}
	trailer := size - 2*(len(records)+1)
	if off > trailer {
		panic(fmt.Sprintf("fixture: %d bytes of records overflow %d-byte node", off-14, size))
	}
	binary.Order.PutUint16(b[size-2*(len(records)+1):], uint16(off))
	return b
}

// Record is one leaf record of a tree fixture.
type Record struct {
	Key     []byte
	Payload []byte
}

// Tree describes a B-tree to build. Records must already be sorted.
type Tree struct {
	NodeSize  int
	PerNode   int // records per leaf and index node
	Records   []Record
	FreeNodes int // unused nodes appended after the tree

	// CompareType is the key compare type of the header record. Zero
	// writes case folding.
	CompareType uint8
}

// Header holds the header record values Build wrote.
type Header struct {
	TreeDepth   uint16
	RootNode    uint32
	FirstLeaf   uint32
	LastLeaf    uint32
	TotalNodes  uint32
	LeafRecords uint32
	CompareType uint8
}

// Build lays the tree out as node 0 (header), then leaves, then index levels
// bottom up, and returns the image and its header values.
func (t Tree) Build() ([]byte, Header) {
	size := t.NodeSize
	per := t.PerNode
	if per <= 0 {
		per = 4
	}

	var nodes [][]byte
	var h Header
	nextID := uint32(1)

	// Leaves.
	var level []ref
	var levelRecs [][][]byte
	for i := 0; i < len(t.Records); i += per {
		chunk := t.Records[i:min(i+per, len(t.Records))]
		var recs [][]byte
		for _, r := range chunk {
			recs = append(recs, append(append([]byte(nil), r.Key...), r.Payload...))
		}
		level = append(level, ref{key: chunk[0].Key, id: nextID})
		levelRecs = append(levelRecs, recs)
		nextID++
	}
	nodes = append(nodes, emitLevel(size, KindLeaf, 1, idsOf(level), levelRecs)...)
	if len(level) > 0 {
		h.TreeDepth = 1
		h.FirstLeaf = level[0].id
		h.LastLeaf = level[len(level)-1].id
	}

	// Index levels.
	height := uint8(1)
	for len(level) > 1 {
		height++
		var up []ref
		var upRecs [][][]byte
		for i := 0; i < len(level); i += per {
			chunk := level[i:min(i+per, len(level))]
			var recs [][]byte
			for _, c := range chunk {
				rec := append([]byte(nil), c.key...)
				rec = binary.Order.AppendUint32(rec, c.id)
				recs = append(recs, rec)
			}
			up = append(up, ref{key: chunk[0].key, id: nextID})
			upRecs = append(upRecs, recs)
			nextID++
		}
		nodes = append(nodes, emitLevel(size, KindIndex, height, idsOf(up), upRecs)...)
		level = up
		h.TreeDepth = uint16(height)
	}
	if len(level) == 1 {
		h.RootNode = level[0].id
	}

	h.TotalNodes = nextID + uint32(t.FreeNodes)
	h.LeafRecords = uint32(len(t.Records))
	h.CompareType = t.CompareType

	img := make([]byte, 0, int(h.TotalNodes)*size)
	img = append(img, HeaderNode(size, h)...)
	for _, n := range nodes {
		img = append(img, n...)
	}
	img = append(img, make([]byte, t.FreeNodes*size)...)
	return img, h
}

func emitLevel(size int, kind int8, height uint8, ids []uint32, recs [][][]byte) [][]byte {
	out := make([][]byte, len(recs))
	for i := range recs {
		var flink, blink uint32
		if i+1 < len(ids) {
			flink = ids[i+1]
		}
		if i > 0 {
			blink = ids[i-1]
		}
		out[i] = Node(size, kind, height, flink, blink, recs[i])
	}
	return out
}

type ref struct {
	key []byte
	id  uint32
}

func idsOf(refs []ref) []uint32 {
	ids := make([]uint32, len(refs))
	for i, r := range refs {
		ids[i] = r.id
	}
	return ids
}

// HeaderNode encodes node 0 for a tree with the given header values.
func HeaderNode(size int, h Header) []byte {
	hr := make([]byte, 106)
	binary.Order.PutUint16(hr[0:], h.TreeDepth)
	binary.Order.PutUint32(hr[2:], h.RootNode)
	binary.Order.PutUint32(hr[6:], h.LeafRecords)
	binary.Order.PutUint32(hr[10:], h.FirstLeaf)
	binary.Order.PutUint32(hr[14:], h.LastLeaf)
	binary.Order.PutUint16(hr[18:], uint16(size))
	binary.Order.PutUint16(hr[20:], 516)
	binary.Order.PutUint32(hr[22:], h.TotalNodes)
	binary.Order.PutUint32(hr[26:], 0)
	binary.Order.PutUint32(hr[32:], uint32(size))
	hr[36] = 0    // HFS+ tree
	hr[37] = 0xCF // case folding
	if h.CompareType != 0 {
		hr[37] = h.CompareType
	}
	binary.Order.PutUint32(hr[38:], 0x6)

	userData := make([]byte, 128)
	mapRec := make([]byte, size-14-len(hr)-len(userData)-2*4)
	for i := uint32(0); i < h.TotalNodes && int(i/8) < len(mapRec); i++ {
		mapRec[i/8] |= 0x80 >> (i % 8)
	}
	return Node(size, KindHeader, 0, 0, 0, [][]byte{hr, userData, mapRec})
}

// CountingReaderAt counts ReadAt calls against an in-memory image.
type CountingReaderAt struct {
	Data  []byte
	reads atomic.Int64
}

func (c *CountingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.reads.Add(1)
	if off < 0 || off >= int64(len(c.Data)) {
		return 0, io.EOF
	}
	n := copy(p, c.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Reads returns the number of ReadAt calls so far.
func (c *CountingReaderAt) Reads() int64 { return c.reads.Load() }

// Reset zeroes the read counter.
func (c *CountingReaderAt) Reset() { c.reads.Store(0) }

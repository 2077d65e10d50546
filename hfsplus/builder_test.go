package hfsplus

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-hfsplus/internal/btree"
	"github.com/robert-malhotra/go-hfsplus/internal/fixture"
	"github.com/robert-malhotra/go-hfsplus/internal/keys"
	"github.com/robert-malhotra/go-hfsplus/internal/volume"
)

const (
	testBlockSize = 512
	testNodeSize  = 4096
)

type catEntry struct {
	key     keys.CatalogKey
	payload []byte
}

type extEntry struct {
	key     keys.ExtentKey
	payload []byte
}

type attrEntry struct {
	key     keys.AttributeKey
	payload []byte
}

// builder assembles a complete volume image: special file trees, catalog
// records and file data scattered over non-adjacent extents.
type builder struct {
	img     *fixture.Image
	catalog []catEntry
	extents []extEntry
	attrs   []attrEntry

	// caseSensitive builds an HFSX volume whose catalog is in binary order.
	caseSensitive bool
}

func newBuilder() *builder {
	// Blocks 0-3 hold the boot blocks and the volume header.
	return &builder{img: fixture.NewImage(testBlockSize, 4)}
}

// split divides the blocks needed for size bytes into pieces extents.
func split(size, pieces int) []uint32 {
	blocks := (size + testBlockSize - 1) / testBlockSize
	counts := make([]uint32, pieces)
	for i := range counts {
		counts[i] = uint32(blocks / pieces)
		if i < blocks%pieces {
			counts[i]++
		}
	}
	return counts
}

// placeFork writes data in pieces extents and returns the 80-byte fork
// descriptor. Extents past the eighth go to the extents overflow tree.
func (b *builder) placeFork(fileID uint32, ft keys.ForkType, data []byte, pieces int) []byte {
	if len(data) == 0 {
		return fixture.ForkData(0, 0, nil)
	}
	exts := b.img.Place(data, split(len(data), pieces)...)
	for i := 8; i < len(exts); i += 8 {
		b.extents = append(b.extents, extEntry{
			key:     keys.ExtentKey{FileID: fileID, Fork: ft, StartBlock: fixture.TotalBlocks(exts[:i])},
			payload: fixture.ExtentRecord(exts[i:min(i+8, len(exts))]),
		})
	}
	return fixture.ForkData(uint64(len(data)), fixture.TotalBlocks(exts), exts[:min(8, len(exts))])
}

func threadRecord(typ RecordType, parent uint32, name string) []byte {
	rec := make([]byte, 8)
	binary.BigEndian.PutUint16(rec, uint16(typ))
	binary.BigEndian.PutUint32(rec[4:], parent)
	return append(rec, keys.EncodeName(name)...)
}

func (b *builder) folder(parent uint32, name string, id, valence uint32) {
	rec := make([]byte, folderRecordSize)
	binary.BigEndian.PutUint16(rec, uint16(RecordFolder))
	binary.BigEndian.PutUint32(rec[4:], valence)
	binary.BigEndian.PutUint32(rec[8:], id)
	b.catalog = append(b.catalog,
		catEntry{keys.CatalogKey{ParentID: parent, Name: name}, rec},
		catEntry{keys.CatalogKey{ParentID: id}, threadRecord(RecordFolderThread, parent, name)},
	)
}

func (b *builder) fileForks(parent uint32, name string, id uint32, dataFork, rsrcFork []byte) {
	rec := make([]byte, fileRecordSize)
	binary.BigEndian.PutUint16(rec, uint16(RecordFile))
	binary.BigEndian.PutUint32(rec[8:], id)
	copy(rec[88:], dataFork)
	copy(rec[168:], rsrcFork)
	b.catalog = append(b.catalog,
		catEntry{keys.CatalogKey{ParentID: parent, Name: name}, rec},
		catEntry{keys.CatalogKey{ParentID: id}, threadRecord(RecordFileThread, parent, name)},
	)
}

// file adds a file whose data fork holds data spread over pieces extents
// and whose resource fork holds rsrc in two extents.
func (b *builder) file(parent uint32, name string, id uint32, data []byte, pieces int, rsrc []byte) {
	df := b.placeFork(id, DataFork, data, pieces)
	rf := b.placeFork(id, ResourceFork, rsrc, 2)
	b.fileForks(parent, name, id, df, rf)
}

func (b *builder) inlineAttr(fileID uint32, name string, value []byte) {
	rec := make([]byte, inlineAttrHeaderSize)
	binary.BigEndian.PutUint32(rec, attrInlineData)
	binary.BigEndian.PutUint32(rec[12:], uint32(len(value)))
	b.attrs = append(b.attrs, attrEntry{keys.AttributeKey{FileID: fileID, Name: name}, append(rec, value...)})
}

// forkAttr stores value in its own fork of pieces extents. Extents past the
// eighth go to extents records in the attributes tree.
func (b *builder) forkAttr(fileID uint32, name string, value []byte, pieces int) {
	exts := b.img.Place(value, split(len(value), pieces)...)
	rec := make([]byte, 8)
	binary.BigEndian.PutUint32(rec, attrForkData)
	rec = append(rec, fixture.ForkData(uint64(len(value)), fixture.TotalBlocks(exts), exts[:min(8, len(exts))])...)
	b.attrs = append(b.attrs, attrEntry{keys.AttributeKey{FileID: fileID, Name: name}, rec})

	for i := 8; i < len(exts); i += 8 {
		ext := make([]byte, 8)
		binary.BigEndian.PutUint32(ext, attrExtents)
		ext = append(ext, fixture.ExtentRecord(exts[i:min(i+8, len(exts))])...)
		key := keys.AttributeKey{FileID: fileID, StartBlock: fixture.TotalBlocks(exts[:i]), Name: name}
		b.attrs = append(b.attrs, attrEntry{key, ext})
	}
}

func tree[E any](entries []E, compareType uint8, cmp func(a, b E) int, enc func(E) fixture.Record) []byte {
	slices.SortFunc(entries, cmp)
	recs := make([]fixture.Record, len(entries))
	for i, e := range entries {
		recs[i] = enc(e)
	}
	def := fixture.Tree{NodeSize: testNodeSize, PerNode: 3, Records: recs, FreeNodes: 1, CompareType: compareType}
	img, _ := def.Build()
	return img
}

// build lays out the catalog over catalogPieces extents, the attributes
// tree over two, then the extents overflow tree and the volume header.
func (b *builder) build(catalogPieces int) []byte {
	var compareType uint8
	sig := volume.SignatureHFSPlus
	if b.caseSensitive {
		compareType, sig = btree.CompareBinary, volume.SignatureHFSX
		for i := range b.catalog {
			b.catalog[i].key.CaseSensitive = true
		}
	}

	catImg := tree(b.catalog, compareType,
		func(x, y catEntry) int { return x.key.Compare(y.key) },
		func(e catEntry) fixture.Record { return fixture.Record{Key: e.key.Bytes(), Payload: e.payload} })
	catFork := b.placeFork(volume.CatalogFileID, DataFork, catImg, catalogPieces)

	var attrFork []byte
	if len(b.attrs) > 0 {
		attrImg := tree(b.attrs, 0,
			func(x, y attrEntry) int { return x.key.Compare(y.key) },
			func(e attrEntry) fixture.Record { return fixture.Record{Key: e.key.Bytes(), Payload: e.payload} })
		attrFork = b.placeFork(volume.AttributesFileID, DataFork, attrImg, 2)
	}

	extImg := tree(b.extents, 0,
		func(x, y extEntry) int { return x.key.Compare(y.key) },
		func(e extEntry) fixture.Record { return fixture.Record{Key: e.key.Bytes(), Payload: e.payload} })
	extFork := b.placeFork(volume.ExtentsFileID, DataFork, extImg, 1)

	vh := fixture.VolumeHeader{
		Signature:      sig,
		BlockSize:      testBlockSize,
		TotalBlocks:    uint32(len(b.img.Bytes()) / testBlockSize),
		NextCNID:       64,
		ExtentsFile:    extFork,
		CatalogFile:    catFork,
		AttributesFile: attrFork,
	}
	b.img.WriteAt(volume.HeaderOffset, vh.Bytes())
	return b.img.Bytes()
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("compress: %v", err)
	}
	return buf.Bytes()
}

func decmpfsAttr(typ uint32, size int, payload []byte) []byte {
	b := make([]byte, 16, 16+len(payload))
	copy(b, "fpmc")
	binary.LittleEndian.PutUint32(b[4:], typ)
	binary.LittleEndian.PutUint64(b[8:], uint64(size))
	return append(b, payload...)
}

// compressedResourceFork lays out zlib-compressed 64 KiB blocks of data the
// way decmpfs stores them in a resource fork.
func compressedResourceFork(t *testing.T, data []byte) []byte {
	var blocks [][]byte
	for off := 0; off < len(data); off += 0x10000 {
		blocks = append(blocks, compress(t, data[off:min(off+0x10000, len(data))]))
	}

	const dataOffset = 0x100
	b := make([]byte, dataOffset+8+8*len(blocks))
	binary.BigEndian.PutUint32(b[0:], dataOffset)
	binary.LittleEndian.PutUint32(b[dataOffset+4:], uint32(len(blocks)))
	off := uint32(4 + 8*len(blocks))
	for i, blk := range blocks {
		binary.LittleEndian.PutUint32(b[dataOffset+8+8*i:], off)
		binary.LittleEndian.PutUint32(b[dataOffset+12+8*i:], uint32(len(blk)))
		off += uint32(len(blk))
	}
	for _, blk := range blocks {
		b = append(b, blk...)
	}
	binary.BigEndian.PutUint32(b[dataOffset:], uint32(len(b)-dataOffset-4))
	return b
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*13) ^ byte(i>>9) ^ seed
	}
	return b
}

package decmpfs

import (
	"encoding/binary"
	"math"

	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// AttributeName is the extended attribute that marks a compressed file.
const AttributeName = "com.apple.decmpfs"

// HeaderSize is the size of the decmpfs header at the start of the
// attribute data.
const HeaderSize = 16

// Compression types.
const (
	TypeZlibInline    uint32 = 3
	TypeZlibResource  uint32 = 4
	TypeLZVNInline    uint32 = 7
	TypeLZVNResource  uint32 = 8
	TypeRawInline     uint32 = 9
	TypeRawResource   uint32 = 10
	TypeLZFSEInline   uint32 = 11
	TypeLZFSEResource uint32 = 12
)

var magic = [4]byte{'f', 'p', 'm', 'c'}

// Header is a parsed decmpfs attribute.
type Header struct {
	Type             uint32
	UncompressedSize uint64

	// Data is the attribute data following the header. For inline types it
	// holds the compressed file contents.
	Data []byte
}

// ParseHeader parses the data of a com.apple.decmpfs attribute. The header
// fields are little-endian, unlike the rest of the volume.
func ParseHeader(attr []byte) (*Header, error) {
	if len(attr) < HeaderSize {
		return nil, fserr.Formatf("decmpfs attribute too short: %d bytes", len(attr))
	}
	if [4]byte(attr[0:4]) != magic {
		return nil, fserr.Formatf("bad decmpfs magic %q", attr[0:4])
	}
	h := &Header{
		Type:             binary.LittleEndian.Uint32(attr[4:]),
		UncompressedSize: binary.LittleEndian.Uint64(attr[8:]),
		Data:             attr[HeaderSize:],
	}
	if h.UncompressedSize > math.MaxInt64 {
		return nil, fserr.Formatf("decmpfs size %d out of range", h.UncompressedSize)
	}
	return h, nil
}

// Inline reports whether the compressed data is stored in the attribute.
func (h *Header) Inline() bool {
	return h.Type%2 == 1
}

// Decode returns the file contents of an inline compressed file.
func (h *Header) Decode() ([]byte, error) {
	if !h.Inline() {
		return nil, fserr.Formatf("decmpfs type %d keeps its data in the resource fork", h.Type)
	}
	d, err := decoderFor(h.Type)
	if err != nil {
		return nil, err
	}
	if h.UncompressedSize > uint64(maxInline) {
		return nil, fserr.Formatf("inline decmpfs size %d is too large", h.UncompressedSize)
	}
	out, err := d.Decode(h.Data, int(h.UncompressedSize))
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != h.UncompressedSize {
		return nil, fserr.Formatf("inline decmpfs data decodes to %d bytes, header says %d", len(out), h.UncompressedSize)
	}
	return out, nil
}

// maxInline bounds inline contents; real volumes only inline small files.
const maxInline = 1 << 24

package decmpfs

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// rawMarker prefixes a chunk stored without compression.
const rawMarker = 0xFF

// Decoder expands one compressed chunk into at most limit bytes.
type Decoder interface {
	Decode(input []byte, limit int) ([]byte, error)
}

// Registry maps compression types to their chunk decoder.
var Registry = map[uint32]Decoder{
	TypeZlibInline:   zlibChunk{},
	TypeZlibResource: zlibChunk{},
}

// typeNames names known compression types for error messages.
var typeNames = map[uint32]string{
	TypeZlibInline:    "zlib (inline)",
	TypeZlibResource:  "zlib (resource fork)",
	TypeLZVNInline:    "LZVN (inline)",
	TypeLZVNResource:  "LZVN (resource fork)",
	TypeRawInline:     "uncompressed (inline)",
	TypeRawResource:   "uncompressed (resource fork)",
	TypeLZFSEInline:   "LZFSE (inline)",
	TypeLZFSEResource: "LZFSE (resource fork)",
}

// Supported reports whether compression type t can be decoded.
func Supported(t uint32) bool {
	_, ok := Registry[t]
	return ok
}

func decoderFor(t uint32) (Decoder, error) {
	d, ok := Registry[t]
	if !ok {
		if name, known := typeNames[t]; known {
			return nil, errors.Wrapf(fserr.ErrUnsupported, "decmpfs %s compression (type %d)", name, t)
		}
		return nil, errors.Wrapf(fserr.ErrUnsupported, "decmpfs compression type %d", t)
	}
	return d, nil
}

// zlibChunk decodes a zlib stream, or returns the chunk as is when it
// starts with the raw marker.
type zlibChunk struct{}

func (zlibChunk) Decode(input []byte, limit int) ([]byte, error) {
	if len(input) > 0 && input[0] == rawMarker {
		if len(input)-1 > limit {
			return nil, fserr.Formatf("raw decmpfs chunk of %d bytes exceeds %d", len(input)-1, limit)
		}
		return input[1:], nil
	}

	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fserr.Formatf("zlib reader: %v", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fserr.Formatf("zlib decompress: %v", err)
	}
	if len(out) > limit {
		return nil, fserr.Formatf("zlib chunk expands past %d bytes", limit)
	}
	return out, nil
}

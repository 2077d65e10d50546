package keys

import (
	"fmt"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// attributeKeyMin covers pad, file id, start block and an empty name.
const attributeKeyMin = 12

// AttributeKey orders the attributes B-tree: by file, then by attribute name.
// StartBlock is non-zero only for extent continuation records of large
// attributes and breaks ties between them.
type AttributeKey struct {
	FileID     uint32
	StartBlock uint32
	Name       string
}

// ParseAttributeKey decodes an attribute key from the start of b.
func ParseAttributeKey(b []byte) (AttributeKey, int, error) {
	total, err := keyLength(b, "attribute", attributeKeyMin)
	if err != nil {
		return AttributeKey{}, 0, err
	}
	k := AttributeKey{
		FileID:     binary.Order.Uint32(b[4:]),
		StartBlock: binary.Order.Uint32(b[8:]),
	}
	name, _, err := DecodeName(b[12:total])
	if err != nil {
		return AttributeKey{}, 0, fserr.Formatf("attribute key for cnid %d: %v", k.FileID, err)
	}
	k.Name = name
	return k, total, nil
}

// Compare orders by FileID, then by FoldCompare on Name, then StartBlock.
func (k AttributeKey) Compare(other AttributeKey) int {
	if c := cmpUint32(k.FileID, other.FileID); c != 0 {
		return c
	}
	if c := FoldCompare(k.Name, other.Name); c != 0 {
		return c
	}
	return cmpUint32(k.StartBlock, other.StartBlock)
}

// Bytes encodes the key in its on-disk form.
func (k AttributeKey) Bytes() []byte {
	name := EncodeName(k.Name)
	out := make([]byte, 12, 12+len(name))
	binary.Order.PutUint16(out, uint16(10+len(name)))
	binary.Order.PutUint32(out[4:], k.FileID)
	binary.Order.PutUint32(out[8:], k.StartBlock)
	return append(out, name...)
}

func (k AttributeKey) String() string {
	return fmt.Sprintf("%d:%s", k.FileID, k.Name)
}

package keys

import (
	"fmt"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// catalogKeyMin is the smallest catalog key length: parent id plus an empty name.
const catalogKeyMin = 6

// CatalogKey orders the catalog B-tree: by parent folder, then by name.
// Thread records use the folder's own CNID as ParentID and an empty name.
//
// CaseSensitive selects the binary name order of case-sensitive HFSX
// catalogs. Two keys compare in binary order if either one sets it.
type CatalogKey struct {
	ParentID      uint32
	Name          string
	CaseSensitive bool
}

// ParseCatalogKey decodes a catalog key from the start of b.
func ParseCatalogKey(b []byte) (CatalogKey, int, error) {
	total, err := keyLength(b, "catalog", catalogKeyMin)
	if err != nil {
		return CatalogKey{}, 0, err
	}
	k := CatalogKey{ParentID: binary.Order.Uint32(b[2:])}
	name, _, err := DecodeName(b[6:total])
	if err != nil {
		return CatalogKey{}, 0, fserr.Formatf("catalog key for parent %d: %v", k.ParentID, err)
	}
	k.Name = name
	return k, total, nil
}

// ParseBinaryCatalogKey decodes a catalog key of a case-sensitive HFSX
// catalog.
func ParseBinaryCatalogKey(b []byte) (CatalogKey, int, error) {
	k, n, err := ParseCatalogKey(b)
	k.CaseSensitive = err == nil
	return k, n, err
}

// Compare orders by ParentID, then by Name: FoldCompare by default,
// BinaryCompare for case-sensitive keys.
func (k CatalogKey) Compare(other CatalogKey) int {
	if c := cmpUint32(k.ParentID, other.ParentID); c != 0 {
		return c
	}
	if k.CaseSensitive || other.CaseSensitive {
		return BinaryCompare(k.Name, other.Name)
	}
	return FoldCompare(k.Name, other.Name)
}

// Bytes encodes the key in its on-disk form.
func (k CatalogKey) Bytes() []byte {
	name := EncodeName(k.Name)
	out := make([]byte, 6, 6+len(name))
	binary.Order.PutUint16(out, uint16(4+len(name)))
	binary.Order.PutUint32(out[2:], k.ParentID)
	return append(out, name...)
}

func (k CatalogKey) String() string {
	return fmt.Sprintf("%d:%s", k.ParentID, k.Name)
}

package fork

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/btree"
	"github.com/robert-malhotra/go-hfsplus/internal/keys"
)

// Overflow finds continuation extents of a fork. startBlock is the number of
// blocks already accounted for; ok is false when no record starts there.
type Overflow interface {
	Extents(fileID uint32, ft keys.ForkType, startBlock uint32) (exts []Extent, ok bool, err error)
}

// TreeOverflow looks extents up in an Extents-Overflow B-tree.
type TreeOverflow struct {
	Tree *btree.Tree[keys.ExtentKey]
}

// Extents implements Overflow.
func (o TreeOverflow) Extents(fileID uint32, ft keys.ForkType, startBlock uint32) ([]Extent, bool, error) {
	key := keys.ExtentKey{FileID: fileID, Fork: ft, StartBlock: startBlock}
	payload, ok, err := o.Tree.Find(key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "looking up overflow extents %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	return ParseExtents(payload), true, nil
}

package hfsplus

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/btree"
	"github.com/robert-malhotra/go-hfsplus/internal/fork"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
	"github.com/robert-malhotra/go-hfsplus/internal/keys"
)

// Attribute record types.
const (
	attrInlineData uint32 = 0x10
	attrForkData   uint32 = 0x20
	attrExtents    uint32 = 0x30
)

const (
	inlineAttrHeaderSize = 16
	maxAttributeSize     = 1 << 30
)

// Attribute returns the value of extended attribute name of file fileID.
// Values stored inline and values stored in their own fork are both
// supported. ok is false when the attribute does not exist.
func (v *Volume) Attribute(fileID uint32, name string) ([]byte, bool, error) {
	if v.closed {
		return nil, false, ErrClosed
	}
	if v.attributes == nil {
		return nil, false, nil
	}

	key := keys.AttributeKey{FileID: fileID, Name: name}
	payload, ok, err := v.attributes.Find(key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "looking up attribute %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	if len(payload) < 4 {
		return nil, false, fserr.Formatf("attribute record %s of %d bytes", key, len(payload))
	}

	switch typ := binary.Order.Uint32(payload); typ {
	case attrInlineData:
		if len(payload) < inlineAttrHeaderSize {
			return nil, false, fserr.Formatf("inline attribute %s truncated", key)
		}
		size := int(binary.Order.Uint32(payload[12:]))
		if inlineAttrHeaderSize+size > len(payload) {
			return nil, false, fserr.Formatf("inline attribute %s claims %d bytes, record holds %d",
				key, size, len(payload)-inlineAttrHeaderSize)
		}
		return payload[inlineAttrHeaderSize : inlineAttrHeaderSize+size], true, nil

	case attrForkData:
		fd, err := fork.ParseForkData(payload[min(8, len(payload)):])
		if err != nil {
			return nil, false, errors.Wrapf(err, "attribute %s", key)
		}
		if fd.LogicalSize > maxAttributeSize {
			return nil, false, fserr.Formatf("attribute %s of %d bytes is too large", key, fd.LogicalSize)
		}
		ov := attrOverflow{tree: v.attributes, name: name}
		buf := fork.New(v.src, v.blockSize, fileID, keys.DataFork, fd, ov)
		data, err := buf.Read(0, uint32(fd.LogicalSize))
		if err != nil {
			return nil, false, errors.Wrapf(err, "reading attribute %s", key)
		}
		return data, true, nil

	default:
		return nil, false, fserr.Formatf("attribute %s has record type 0x%x", key, typ)
	}
}

// Attributes lists the names of the extended attributes of file fileID.
func (v *Volume) Attributes(fileID uint32) ([]string, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if v.attributes == nil {
		return nil, nil
	}

	var names []string
	err := v.attributes.VisitRange(func(k keys.AttributeKey, payload []byte) btree.Verdict {
		switch {
		case k.FileID < fileID:
			return btree.Before
		case k.FileID > fileID:
			return btree.After
		}
		// Extents records continue a fork-data attribute already listed.
		if payload != nil && k.StartBlock == 0 {
			names = append(names, k.Name)
		}
		return btree.Within
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing attributes of %d", fileID)
	}
	return names, nil
}

// attrOverflow finds the continuation extents of a fork-data attribute,
// which live in the attributes tree rather than the extents overflow tree.
type attrOverflow struct {
	tree *btree.Tree[keys.AttributeKey]
	name string
}

func (o attrOverflow) Extents(fileID uint32, _ keys.ForkType, startBlock uint32) ([]fork.Extent, bool, error) {
	key := keys.AttributeKey{FileID: fileID, StartBlock: startBlock, Name: o.name}
	payload, ok, err := o.tree.Find(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(payload) < 8+fork.ExtentRecordLen || binary.Order.Uint32(payload) != attrExtents {
		return nil, false, fserr.Formatf("attribute %s is not an extents record", key)
	}
	return fork.ParseExtents(payload[8 : 8+fork.ExtentRecordLen]), true, nil
}

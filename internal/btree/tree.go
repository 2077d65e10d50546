package btree

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// maxDescent bounds the number of nodes visited on one root-to-leaf path.
// HFS+ trees are at most 8 levels deep; anything longer is a cycle.
const maxDescent = 32

// Verdict is a visitor's judgement of a key relative to the range it wants.
type Verdict int

const (
	Before Verdict = iota // key sorts before the range
	Within                // key is inside the range
	After                 // key sorts after the range
)

// Visitor is called by VisitRange. While descending index nodes payload is
// nil and the verdict only steers the descent; at leaf nodes payload holds
// the record data.
type Visitor[K any] func(key K, payload []byte) Verdict

// Option configures a Tree.
type Option func(*options)

type options struct {
	cacheBytes int64
}

// WithNodeCache caches raw nodes up to maxBytes. Caching is off by default.
func WithNodeCache(maxBytes int64) Option {
	return func(o *options) {
		if maxBytes > 0 {
			o.cacheBytes = maxBytes
		}
	}
}

// Tree is a read-only view of one B-tree stored in data.
type Tree[K Key[K]] struct {
	data   io.ReaderAt
	decode KeyDecoder[K]
	header *HeaderNode
	cache  *nodeCache
}

// Open reads the header node from data and returns a tree ready for lookups.
// data must not change while the tree is in use.
func Open[K Key[K]](data io.ReaderAt, decode KeyDecoder[K], opts ...Option) (*Tree[K], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	// The node size is only known after reading the header record, which is
	// always the first record of node 0.
	head, err := binary.ReadExact(data, 0, DescriptorSize+HeaderRecordSize)
	if err != nil {
		return nil, errors.Wrap(err, "reading b-tree header record")
	}
	desc, err := ParseDescriptor(head, 0)
	if err != nil {
		return nil, err
	}
	if desc.Kind != KindHeader {
		return nil, fserr.Formatf("node 0 is a %s node, expected header", desc.Kind)
	}
	hr, err := ParseHeaderRecord(head[DescriptorSize:])
	if err != nil {
		return nil, err
	}
	if err := hr.Validate(); err != nil {
		return nil, err
	}

	t := &Tree[K]{data: data, decode: decode}
	t.header = &HeaderNode{Record: hr}
	node, err := t.readNode(0)
	if err != nil {
		return nil, errors.Wrap(err, "reading b-tree header node")
	}
	if node.Kind != KindHeader {
		return nil, fserr.Formatf("node 0 is a %s node, expected header", node.Kind)
	}
	t.header = node.Header

	if o.cacheBytes > 0 {
		t.cache, err = newNodeCache(o.cacheBytes)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Header returns the header record.
func (t *Tree[K]) Header() HeaderRecord {
	return t.header.Record
}

// UserData returns the opaque user data record of the header node.
func (t *Tree[K]) UserData() []byte {
	return t.header.UserData
}

// MapRecord returns the opaque map record of the header node.
func (t *Tree[K]) MapRecord() []byte {
	return t.header.Map
}

// Close releases the node cache, if any.
func (t *Tree[K]) Close() {
	if t.cache != nil {
		t.cache.close()
		t.cache = nil
	}
}

// ReadNode reads and parses the node with the given id.
func (t *Tree[K]) ReadNode(id uint32) (*Node[K], error) {
	return t.readNode(id)
}

func (t *Tree[K]) readNode(id uint32) (*Node[K], error) {
	hr := t.header.Record
	if id >= hr.TotalNodes {
		return nil, fserr.Formatf("node %d outside tree of %d nodes", id, hr.TotalNodes)
	}
	size := int(hr.NodeSize)

	var raw []byte
	if t.cache != nil {
		raw, _ = t.cache.get(id)
	}
	if raw == nil {
		var err error
		raw, err = binary.ReadExact(t.data, int64(id)*int64(size), size)
		if err != nil {
			return nil, errors.Wrapf(err, "reading node %d", id)
		}
		if t.cache != nil {
			t.cache.put(id, raw)
		}
	}
	return ParseNode(id, raw, t.decode)
}

// Find returns the payload stored under key. An absent key is reported as
// (nil, false, nil).
func (t *Tree[K]) Find(key K) ([]byte, bool, error) {
	id := t.header.Record.RootNode
	if id == 0 {
		return nil, false, nil
	}

	for depth := 0; depth < maxDescent; depth++ {
		node, err := t.readNode(id)
		if err != nil {
			return nil, false, err
		}

		switch node.Kind {
		case KindIndex:
			child, ok := childFor(node.Index, key)
			if !ok {
				return nil, false, nil
			}
			id = child

		case KindLeaf:
			for _, rec := range node.Leaf {
				c := rec.Key.Compare(key)
				if c == 0 {
					return rec.Payload, true, nil
				}
				if c > 0 {
					break
				}
			}
			return nil, false, nil

		default:
			return nil, false, fserr.Formatf("unexpected %s node %d during descent", node.Kind, id)
		}
	}
	return nil, false, fserr.Formatf("descent exceeded %d levels", maxDescent)
}

// childFor picks the last record whose key is <= key. The first record's key
// bounds the whole subtree from below.
func childFor[K Key[K]](recs []IndexRecord[K], key K) (uint32, bool) {
	if len(recs) == 0 || recs[0].Key.Compare(key) > 0 {
		return 0, false
	}
	for i := range recs {
		if i+1 == len(recs) || recs[i+1].Key.Compare(key) > 0 {
			return recs[i].Child, true
		}
	}
	return 0, false
}

// VisitRange walks the tree in ascending key order, descending only into
// subtrees the visitor may want and stopping at the first leaf record judged
// After.
func (t *Tree[K]) VisitRange(v Visitor[K]) error {
	root := t.header.Record.RootNode
	if root == 0 {
		return nil
	}
	_, err := t.visit(root, v, 0)
	return err
}

// visit reports whether the scan is finished.
func (t *Tree[K]) visit(id uint32, v Visitor[K], depth int) (bool, error) {
	if depth >= maxDescent {
		return true, fserr.Formatf("descent exceeded %d levels", maxDescent)
	}
	node, err := t.readNode(id)
	if err != nil {
		return true, err
	}

	switch node.Kind {
	case KindIndex:
		recs := node.Index
		for i := range recs {
			if v(recs[i].Key, nil) == After {
				return true, nil
			}
			if i+1 < len(recs) && v(recs[i+1].Key, nil) == Before {
				continue
			}
			done, err := t.visit(recs[i].Child, v, depth+1)
			if err != nil || done {
				return true, err
			}
		}
		return false, nil

	case KindLeaf:
		for _, rec := range node.Leaf {
			if v(rec.Key, rec.Payload) == After {
				return true, nil
			}
		}
		return false, nil

	default:
		return true, fserr.Formatf("unexpected %s node %d during descent", node.Kind, id)
	}
}

// Insert always fails: the tree is read-only.
func (t *Tree[K]) Insert(key K, payload []byte) error {
	return errors.Wrap(fserr.ErrUnsupported, "b-tree insert")
}

// Delete always fails: the tree is read-only.
func (t *Tree[K]) Delete(key K) error {
	return errors.Wrap(fserr.ErrUnsupported, "b-tree delete")
}

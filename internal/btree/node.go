package btree

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// Key is the ordering every B-tree key type provides.
type Key[K any] interface {
	Compare(other K) int
}

// KeyDecoder decodes a key from the start of a record and returns the number
// of bytes the key occupies, including its length field.
type KeyDecoder[K any] func(b []byte) (K, int, error)

// IndexRecord points at the child subtree whose smallest key is Key.
type IndexRecord[K any] struct {
	Key   K
	Child uint32
}

// LeafRecord is a key and the record data that follows it.
type LeafRecord[K any] struct {
	Key     K
	Payload []byte
}

// Node is one parsed node. Exactly one of Header, Index, Leaf or Map is
// populated, selected by Kind.
type Node[K any] struct {
	ID uint32
	Descriptor

	Header *HeaderNode
	Index  []IndexRecord[K]
	Leaf   []LeafRecord[K]
	Map    [][]byte
}

// ParseNode parses a complete node. len(b) is the node size.
func ParseNode[K Key[K]](id uint32, b []byte, decode KeyDecoder[K]) (*Node[K], error) {
	desc, err := ParseDescriptor(b, 0)
	if err != nil {
		var kindErr *fserr.UnknownNodeKindError
		if errors.As(err, &kindErr) {
			kindErr.NodeID = id
		}
		var truncErr *fserr.TruncatedNodeError
		if errors.As(err, &truncErr) {
			truncErr.NodeID = id
		}
		return nil, err
	}

	spans, err := recordSpans(id, b, int(desc.NumRecords))
	if err != nil {
		return nil, err
	}

	n := &Node[K]{ID: id, Descriptor: desc}
	switch desc.Kind {
	case KindHeader:
		n.Header, err = parseHeaderNode(id, b, spans)
	case KindIndex:
		n.Index, err = parseIndexRecords(id, b, spans, decode)
	case KindLeaf:
		n.Leaf, err = parseLeafRecords(id, b, spans, decode)
	case KindMap:
		for _, s := range spans {
			n.Map = append(n.Map, b[s.start:s.end])
		}
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

type span struct {
	start, end int
}

// recordSpans reads the record-offset trailer of a node.
func recordSpans(id uint32, b []byte, count int) ([]span, error) {
	size := len(b)
	trailer := size - 2*(count+1)
	if trailer < DescriptorSize {
		return nil, &fserr.TruncatedNodeError{NodeID: id, Offset: trailer, End: size, Size: size}
	}

	offsetAt := func(i int) int {
		return int(binary.Order.Uint16(b[size-2*(i+1):]))
	}

	spans := make([]span, count)
	for i := range spans {
		s := span{start: offsetAt(i), end: offsetAt(i + 1)}
		if s.start < DescriptorSize || s.end < s.start || s.end > trailer {
			return nil, &fserr.TruncatedNodeError{NodeID: id, Offset: s.start, End: s.end, Size: trailer}
		}
		spans[i] = s
	}
	return spans, nil
}

func parseHeaderNode(id uint32, b []byte, spans []span) (*HeaderNode, error) {
	if len(spans) != 3 {
		return nil, fserr.Formatf("header node %d has %d records, expected 3", id, len(spans))
	}
	rec := b[spans[0].start:spans[0].end]
	hr, err := ParseHeaderRecord(rec)
	if err != nil {
		var truncErr *fserr.TruncatedNodeError
		if errors.As(err, &truncErr) {
			truncErr.NodeID = id
			truncErr.Offset = spans[0].start
		}
		return nil, err
	}
	return &HeaderNode{
		Record:   hr,
		UserData: b[spans[1].start:spans[1].end],
		Map:      b[spans[2].start:spans[2].end],
	}, nil
}

func parseIndexRecords[K Key[K]](id uint32, b []byte, spans []span, decode KeyDecoder[K]) ([]IndexRecord[K], error) {
	recs := make([]IndexRecord[K], len(spans))
	for i, s := range spans {
		rec := b[s.start:s.end]
		key, n, err := decode(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d record %d", id, i)
		}
		if n+4 > len(rec) {
			return nil, &fserr.TruncatedNodeError{NodeID: id, Offset: s.start, End: s.start + n + 4, Size: s.end}
		}
		if i > 0 && recs[i-1].Key.Compare(key) >= 0 {
			return nil, fserr.Formatf("index node %d: record %d out of order", id, i)
		}
		recs[i] = IndexRecord[K]{Key: key, Child: binary.Order.Uint32(rec[n:])}
	}
	return recs, nil
}

func parseLeafRecords[K Key[K]](id uint32, b []byte, spans []span, decode KeyDecoder[K]) ([]LeafRecord[K], error) {
	recs := make([]LeafRecord[K], len(spans))
	for i, s := range spans {
		rec := b[s.start:s.end]
		key, n, err := decode(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d record %d", id, i)
		}
		if i > 0 && recs[i-1].Key.Compare(key) >= 0 {
			return nil, fserr.Formatf("leaf node %d: record %d out of order", id, i)
		}
		recs[i] = LeafRecord[K]{Key: key, Payload: rec[n:]}
	}
	return recs, nil
}

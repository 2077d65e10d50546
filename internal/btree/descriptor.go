package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// DescriptorSize is the size of the header common to every node.
const DescriptorSize = 14

// Kind is the node kind stored in a node descriptor.
type Kind int8

const (
	KindLeaf   Kind = -1
	KindIndex  Kind = 0
	KindHeader Kind = 1
	KindMap    Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindIndex:
		return "index"
	case KindHeader:
		return "header"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", int8(k))
}

func (k Kind) valid() bool {
	return k >= KindLeaf && k <= KindMap
}

// Descriptor is the fixed header at the start of every node.
type Descriptor struct {
	ForwardLink  uint32 // next node of the same kind and height, 0 if none
	BackwardLink uint32 // previous node of the same kind and height, 0 if none
	Kind         Kind
	Height       uint8
	NumRecords   uint16
}

// ParseDescriptor decodes the node descriptor at b[off:]. It performs no
// validation beyond recognizing the node kind.
func ParseDescriptor(b []byte, off int) (Descriptor, error) {
	if off < 0 || off+DescriptorSize > len(b) {
		return Descriptor{}, &fserr.TruncatedNodeError{Offset: off, End: off + DescriptorSize, Size: len(b)}
	}
	d := b[off:]
	desc := Descriptor{
		ForwardLink:  binary.Order.Uint32(d[0:]),
		BackwardLink: binary.Order.Uint32(d[4:]),
		Kind:         Kind(int8(d[8])),
		Height:       d[9],
		NumRecords:   binary.Order.Uint16(d[10:]),
		// d[12:14] reserved
	}
	if !desc.Kind.valid() {
		return Descriptor{}, &fserr.UnknownNodeKindError{Kind: int8(desc.Kind)}
	}
	return desc, nil
}

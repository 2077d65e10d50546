package hfsplus

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/btree"
	"github.com/robert-malhotra/go-hfsplus/internal/fork"
	"github.com/robert-malhotra/go-hfsplus/internal/keys"
	"github.com/robert-malhotra/go-hfsplus/internal/volume"
)

// Special catalog node ids.
const (
	RootParentID = volume.RootParentID
	RootFolderID = volume.RootFolderID
)

// ForkType selects the data or resource fork of a file.
type ForkType = keys.ForkType

// VolumeHeader is the parsed volume header.
type VolumeHeader = volume.Header

// Fork reads the logical bytes of one fork through its extents.
type Fork = fork.Buffer

// ForkData is the on-disk description of a fork: its sizes and first
// eight extents.
type ForkData = fork.ForkData

// Extent is a contiguous run of allocation blocks.
type Extent = fork.Extent

// Fork types.
const (
	DataFork     = keys.DataFork
	ResourceFork = keys.ResourceFork
)

// Volume is an open HFS+ or HFSX volume.
type Volume struct {
	src       io.ReaderAt
	header    *volume.Header
	blockSize uint32
	overflow  fork.Overflow
	closed    bool

	// caseSensitive is set for HFSX catalogs kept in binary name order.
	caseSensitive bool

	extents    *btree.Tree[keys.ExtentKey]
	catalog    *btree.Tree[keys.CatalogKey]
	attributes *btree.Tree[keys.AttributeKey] // nil when the volume has none
}

// Open reads the volume header from src and opens the extents overflow,
// catalog and attributes trees. src must not change while the volume is open.
func Open(src io.ReaderAt, opts ...Option) (*Volume, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	hdr, err := volume.Read(src)
	if err != nil {
		return nil, errors.Wrap(err, "reading volume header")
	}

	v := &Volume{
		src:       src,
		header:    hdr,
		blockSize: hdr.BlockSize,
	}
	if o.blockSize != 0 {
		v.blockSize = o.blockSize
	}

	var treeOpts []btree.Option
	if o.cacheBytes > 0 {
		treeOpts = append(treeOpts, btree.WithNodeCache(o.cacheBytes))
	}

	// The extents file cannot overflow into itself.
	extFork := fork.New(src, v.blockSize, volume.ExtentsFileID, keys.DataFork, hdr.ExtentsFile, nil)
	v.extents, err = btree.Open[keys.ExtentKey](extFork, keys.ParseExtentKey, treeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "opening extents overflow tree")
	}
	v.overflow = fork.TreeOverflow{Tree: v.extents}

	catFork := fork.New(src, v.blockSize, volume.CatalogFileID, keys.DataFork, hdr.CatalogFile, v.overflow)
	v.catalog, err = btree.Open[keys.CatalogKey](catFork, keys.ParseCatalogKey, treeOpts...)
	if err != nil {
		v.Close()
		return nil, errors.Wrap(err, "opening catalog tree")
	}
	// The compare type is only known once the header node is read.
	if hdr.IsHFSX() && v.catalog.Header().KeyCompareType == btree.CompareBinary {
		v.catalog.Close()
		v.caseSensitive = true
		v.catalog, err = btree.Open[keys.CatalogKey](catFork, keys.ParseBinaryCatalogKey, treeOpts...)
		if err != nil {
			v.Close()
			return nil, errors.Wrap(err, "opening catalog tree")
		}
	}

	if hdr.AttributesFile.LogicalSize > 0 {
		attrFork := fork.New(src, v.blockSize, volume.AttributesFileID, keys.DataFork, hdr.AttributesFile, v.overflow)
		v.attributes, err = btree.Open[keys.AttributeKey](attrFork, keys.ParseAttributeKey, treeOpts...)
		if err != nil {
			v.Close()
			return nil, errors.Wrap(err, "opening attributes tree")
		}
	}

	return v, nil
}

// Close releases the node caches. The source is not closed.
func (v *Volume) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	if v.extents != nil {
		v.extents.Close()
	}
	if v.catalog != nil {
		v.catalog.Close()
	}
	if v.attributes != nil {
		v.attributes.Close()
	}
	return nil
}

// Header returns the parsed volume header.
func (v *Volume) Header() *VolumeHeader {
	return v.header
}

// BlockSize returns the allocation block size in use.
func (v *Volume) BlockSize() uint32 {
	return v.blockSize
}

// IsHFSX reports whether the volume carries the HFSX signature.
func (v *Volume) IsHFSX() bool {
	return v.header.IsHFSX()
}

// CaseSensitive reports whether catalog names compare case-sensitively.
func (v *Volume) CaseSensitive() bool {
	return v.caseSensitive
}

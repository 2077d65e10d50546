// Package fserr defines the error categories shared by the HFS+ reader packages.
//
// Every failure returned by the engine belongs to exactly one category:
//
//   - [ErrFormat]: the on-disk structure is corrupt or not understood
//   - [ErrIO]: the bytes could not be fetched (short read, missing extent)
//   - [ErrUnsupported]: the caller attempted a write or the data uses a
//     feature the reader does not implement
//
// Typed errors unwrap to their category, so errors.Is works with both the
// standard library and github.com/cockroachdb/errors.
package fserr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error categories.
var (
	ErrFormat      = errors.New("hfsplus: format error")
	ErrIO          = errors.New("hfsplus: i/o error")
	ErrUnsupported = errors.New("hfsplus: unsupported operation")
)

// Formatf returns a format error carrying the given detail.
func Formatf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrFormat, format, args...)
}

// UnknownNodeKindError reports a node descriptor whose kind byte is not one of
// the known node kinds.
type UnknownNodeKindError struct {
	NodeID uint32
	Kind   int8
}

func (e *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("hfsplus: node %d has unknown kind %d", e.NodeID, e.Kind)
}

func (e *UnknownNodeKindError) Unwrap() error { return ErrFormat }

// TruncatedNodeError reports a record span (or fixed structure) that runs past
// the end of the node holding it.
type TruncatedNodeError struct {
	NodeID uint32
	Offset int
	End    int
	Size   int
}

func (e *TruncatedNodeError) Error() string {
	return fmt.Sprintf("hfsplus: node %d truncated: span [%d, %d) exceeds %d bytes",
		e.NodeID, e.Offset, e.End, e.Size)
}

func (e *TruncatedNodeError) Unwrap() error { return ErrFormat }

// MissingExtentError reports that the Extents-Overflow tree has no record
// covering the blocks a fork still declares.
type MissingExtentError struct {
	FileID     uint32
	BlocksSeen uint32
}

func (e *MissingExtentError) Error() string {
	return fmt.Sprintf("hfsplus: missing extent from extents overflow file: cnid=%d, blocksSeen=%d",
		e.FileID, e.BlocksSeen)
}

func (e *MissingExtentError) Unwrap() error { return ErrIO }

// BeyondEndOfForkError reports a logical block past every extent of a fork.
type BeyondEndOfForkError struct {
	FileID      uint32
	Block       uint64
	TotalBlocks uint32
}

func (e *BeyondEndOfForkError) Error() string {
	return fmt.Sprintf("hfsplus: block %d of cnid=%d is beyond end of fork (%d blocks)",
		e.Block, e.FileID, e.TotalBlocks)
}

func (e *BeyondEndOfForkError) Unwrap() error { return ErrIO }

// SourceError wraps a failure from the backing byte source.
type SourceError struct {
	Offset int64
	Length int
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("hfsplus: reading %d bytes at offset %d: %v", e.Length, e.Offset, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is reports SourceError as part of the ErrIO category while keeping the
// underlying cause reachable through Unwrap.
func (e *SourceError) Is(target error) bool { return target == ErrIO }

// Package hfsplus reads HFS+ and HFSX volumes.
//
// A [Volume] is opened over any io.ReaderAt holding the raw volume. It
// exposes catalog lookups by parent id and name, folder listings, extended
// attributes and file contents, including files stored with transparent
// (decmpfs) compression. Volumes are read-only.
package hfsplus

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// Error categories. Every error returned by this package matches exactly one
// of ErrFormat, ErrIO or ErrUnsupported, or one of the lookup errors below.
var (
	ErrFormat      = fserr.ErrFormat
	ErrIO          = fserr.ErrIO
	ErrUnsupported = fserr.ErrUnsupported
)

// Lookup errors.
var (
	ErrNotFound     = errors.New("hfsplus: not found")
	ErrNotFile      = errors.New("hfsplus: not a file")
	ErrNotDirectory = errors.New("hfsplus: not a directory")
	ErrClosed       = errors.New("hfsplus: volume is closed")
)

// Typed errors, usable with errors.As.
type (
	UnknownNodeKindError = fserr.UnknownNodeKindError
	TruncatedNodeError   = fserr.TruncatedNodeError
	MissingExtentError   = fserr.MissingExtentError
	BeyondEndOfForkError = fserr.BeyondEndOfForkError
	SourceError          = fserr.SourceError
)

package hfsplus

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/decmpfs"
	"github.com/robert-malhotra/go-hfsplus/internal/fork"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// OpenFork returns a reader over the raw bytes of one fork of a file record.
func (v *Volume) OpenFork(rec *CatalogRecord, ft ForkType) (*Fork, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if !rec.IsFile() {
		return nil, errors.Wrapf(ErrNotFile, "catalog node %d is a %s", rec.ID, rec.Type)
	}
	fd := rec.DataFork
	if ft == ResourceFork {
		fd = rec.ResourceFork
	}
	return fork.New(v.src, v.blockSize, rec.ID, ft, fd, v.overflow), nil
}

// Content returns a reader over the contents of a file and its size. Files
// stored with decmpfs compression are decoded; compression types that are
// not supported fall back to the data fork, which is then usually empty.
func (v *Volume) Content(rec *CatalogRecord) (io.ReaderAt, int64, error) {
	data, err := v.OpenFork(rec, DataFork)
	if err != nil {
		return nil, 0, err
	}

	attr, ok, err := v.Attribute(rec.ID, decmpfs.AttributeName)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return data, data.Size(), nil
	}

	h, err := decmpfs.ParseHeader(attr)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "file %d", rec.ID)
	}
	if !decmpfs.Supported(h.Type) {
		return data, data.Size(), nil
	}

	if h.Inline() {
		b, err := h.Decode()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "decompressing file %d", rec.ID)
		}
		return bytes.NewReader(b), int64(len(b)), nil
	}

	rsrc, err := v.OpenFork(rec, ResourceFork)
	if err != nil {
		return nil, 0, err
	}
	r, err := decmpfs.NewResourceReader(rsrc, h)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decompressing file %d", rec.ID)
	}
	return r, r.Size(), nil
}

// MaxReadFileSize bounds the files ReadFile loads into memory. Larger files
// are read through Content.
const MaxReadFileSize = 1 << 31

// ReadFile returns the whole contents of a file.
func (v *Volume) ReadFile(rec *CatalogRecord) ([]byte, error) {
	r, size, err := v.Content(rec)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fserr.Formatf("file %d has negative size %d", rec.ID, size)
	}
	if size > MaxReadFileSize {
		return nil, errors.Wrapf(ErrUnsupported, "file %d of %d bytes is too large to read whole", rec.ID, size)
	}
	out := make([]byte, size)
	if _, err := r.ReadAt(out, 0); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "reading file %d", rec.ID)
	}
	return out, nil
}

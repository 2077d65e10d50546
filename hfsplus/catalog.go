package hfsplus

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/btree"
	"github.com/robert-malhotra/go-hfsplus/internal/fork"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
	"github.com/robert-malhotra/go-hfsplus/internal/keys"
)

// RecordType identifies the kind of a catalog record.
type RecordType int16

// Catalog record types.
const (
	RecordFolder       RecordType = 1
	RecordFile         RecordType = 2
	RecordFolderThread RecordType = 3
	RecordFileThread   RecordType = 4
)

func (t RecordType) String() string {
	switch t {
	case RecordFolder:
		return "folder"
	case RecordFile:
		return "file"
	case RecordFolderThread:
		return "folder thread"
	case RecordFileThread:
		return "file thread"
	default:
		return "unknown"
	}
}

// On-disk record sizes.
const (
	folderRecordSize = 88
	fileRecordSize   = 248
	threadHeaderSize = 8
)

// CatalogRecord is a decoded catalog leaf record. Which fields are set
// depends on Type.
type CatalogRecord struct {
	Type  RecordType
	Flags uint16

	// ID is the catalog node id of a folder or file.
	ID uint32

	// Valence is the number of direct children of a folder.
	Valence uint32

	DataFork     ForkData
	ResourceFork ForkData

	// ParentID and Name locate the folder or file a thread record points to.
	ParentID uint32
	Name     string
}

// IsFolder reports whether the record is a folder.
func (r *CatalogRecord) IsFolder() bool { return r.Type == RecordFolder }

// IsFile reports whether the record is a file.
func (r *CatalogRecord) IsFile() bool { return r.Type == RecordFile }

// IsThread reports whether the record is a folder or file thread.
func (r *CatalogRecord) IsThread() bool {
	return r.Type == RecordFolderThread || r.Type == RecordFileThread
}

func parseCatalogRecord(b []byte) (*CatalogRecord, error) {
	if len(b) < 2 {
		return nil, fserr.Formatf("catalog record of %d bytes", len(b))
	}
	rec := &CatalogRecord{Type: RecordType(int16(binary.Order.Uint16(b)))}

	switch rec.Type {
	case RecordFolder:
		if len(b) < folderRecordSize {
			return nil, fserr.Formatf("folder record needs %d bytes, got %d", folderRecordSize, len(b))
		}
		rec.Flags = binary.Order.Uint16(b[2:])
		rec.Valence = binary.Order.Uint32(b[4:])
		rec.ID = binary.Order.Uint32(b[8:])

	case RecordFile:
		if len(b) < fileRecordSize {
			return nil, fserr.Formatf("file record needs %d bytes, got %d", fileRecordSize, len(b))
		}
		rec.Flags = binary.Order.Uint16(b[2:])
		rec.ID = binary.Order.Uint32(b[8:])
		var err error
		if rec.DataFork, err = fork.ParseForkData(b[88:]); err != nil {
			return nil, err
		}
		if rec.ResourceFork, err = fork.ParseForkData(b[168:]); err != nil {
			return nil, err
		}

	case RecordFolderThread, RecordFileThread:
		if len(b) < threadHeaderSize {
			return nil, fserr.Formatf("thread record needs %d bytes, got %d", threadHeaderSize, len(b))
		}
		rec.ParentID = binary.Order.Uint32(b[4:])
		name, _, err := keys.DecodeName(b[threadHeaderSize:])
		if err != nil {
			return nil, errors.Wrap(err, "thread record")
		}
		rec.Name = name

	default:
		return nil, fserr.Formatf("unknown catalog record type %d", rec.Type)
	}
	return rec, nil
}

// Entry is one child of a folder.
type Entry struct {
	Name   string
	Record *CatalogRecord
}

// Lookup returns the record stored under (parentID, name). Names compare
// case-insensitively unless the volume is case-sensitive HFSX. A missing
// record is reported as ErrNotFound.
func (v *Volume) Lookup(parentID uint32, name string) (*CatalogRecord, error) {
	if v.closed {
		return nil, ErrClosed
	}
	key := keys.CatalogKey{ParentID: parentID, Name: name, CaseSensitive: v.caseSensitive}
	payload, ok, err := v.catalog.Find(key)
	if err != nil {
		return nil, errors.Wrapf(err, "looking up %s", key)
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", key)
	}
	rec, err := parseCatalogRecord(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", key)
	}
	return rec, nil
}

// ByID returns the folder or file record with the given catalog node id and
// the name it is stored under, following its thread record.
func (v *Volume) ByID(id uint32) (*CatalogRecord, string, error) {
	thread, err := v.Lookup(id, "")
	if err != nil {
		return nil, "", err
	}
	if !thread.IsThread() {
		return nil, "", fserr.Formatf("record under (%d, \"\") is a %s, not a thread", id, thread.Type)
	}
	rec, err := v.Lookup(thread.ParentID, thread.Name)
	if err != nil {
		return nil, "", err
	}
	return rec, thread.Name, nil
}

// Children lists the folders and files whose parent is parentID, in catalog
// order. Thread records are skipped. Listing a file fails with
// ErrNotDirectory.
func (v *Volume) Children(parentID uint32) ([]Entry, error) {
	if v.closed {
		return nil, ErrClosed
	}

	var out []Entry
	var perr error
	err := v.catalog.VisitRange(func(k keys.CatalogKey, payload []byte) btree.Verdict {
		switch {
		case k.ParentID < parentID:
			return btree.Before
		case k.ParentID > parentID:
			return btree.After
		}
		if payload == nil {
			return btree.Within
		}
		rec, err := parseCatalogRecord(payload)
		if err != nil {
			perr = errors.Wrapf(err, "decoding %s", k)
			return btree.After
		}
		if !rec.IsThread() {
			out = append(out, Entry{Name: k.Name, Record: rec})
		}
		return btree.Within
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing children of %d", parentID)
	}
	if perr != nil {
		return nil, perr
	}
	if len(out) == 0 {
		// Only a file thread tells a file apart from an empty or unknown folder.
		thread, err := v.Lookup(parentID, "")
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err == nil && thread.Type == RecordFileThread {
			return nil, errors.Wrapf(ErrNotDirectory, "catalog node %d is a file", parentID)
		}
	}
	return out, nil
}

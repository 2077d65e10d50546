package volume

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-hfsplus/internal/fixture"
	"github.com/robert-malhotra/go-hfsplus/internal/fork"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

func image(vh fixture.VolumeHeader) []byte {
	img := make([]byte, HeaderOffset+HeaderSize)
	copy(img[HeaderOffset:], vh.Bytes())
	return img
}

func TestReadHeader(t *testing.T) {
	catalog := []fixture.Extent{{StartBlock: 20, BlockCount: 4}, {StartBlock: 90, BlockCount: 2}}
	vh := fixture.VolumeHeader{
		BlockSize:   4096,
		TotalBlocks: 1000,
		FileCount:   12,
		FolderCount: 3,
		NextCNID:    40,
		ExtentsFile: fixture.ForkData(4*4096, 4, []fixture.Extent{{StartBlock: 8, BlockCount: 4}}),
		CatalogFile: fixture.ForkData(6*4096, 6, catalog),
	}

	h, err := Read(bytes.NewReader(image(vh)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Signature != SignatureHFSPlus || h.Version != 4 || h.IsHFSX() {
		t.Errorf("unexpected signature/version: 0x%04x/%d", h.Signature, h.Version)
	}
	if h.BlockSize != 4096 || h.TotalBlocks != 1000 || h.NextCatalogID != 40 {
		t.Errorf("unexpected sizes: %+v", h)
	}
	if h.FileCount != 12 || h.FolderCount != 3 {
		t.Errorf("unexpected counts: files %d folders %d", h.FileCount, h.FolderCount)
	}
	if h.Attributes&AttrUnmounted == 0 {
		t.Error("expected unmounted attribute")
	}
	if h.ExtentsFile.Extents[0] != (fork.Extent{StartBlock: 8, BlockCount: 4}) {
		t.Errorf("unexpected extents file: %+v", h.ExtentsFile)
	}
	if h.CatalogFile.LogicalSize != 6*4096 || h.CatalogFile.TotalBlocks != 6 {
		t.Errorf("unexpected catalog file: %+v", h.CatalogFile)
	}
	if h.CatalogFile.Extents[1] != (fork.Extent{StartBlock: 90, BlockCount: 2}) {
		t.Errorf("unexpected catalog extents: %+v", h.CatalogFile.Extents)
	}
	if h.AttributesFile.LogicalSize != 0 {
		t.Errorf("expected empty attributes file, got %+v", h.AttributesFile)
	}
}

func TestReadHeaderHFSX(t *testing.T) {
	h, err := Read(bytes.NewReader(image(fixture.VolumeHeader{Signature: SignatureHFSX, BlockSize: 512})))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !h.IsHFSX() {
		t.Error("expected HFSX volume")
	}
}

func TestReadHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"too short", make([]byte, 1100), fserr.ErrIO},
		{"no signature", make([]byte, 2048), fserr.ErrFormat},
		{"classic HFS", image(fixture.VolumeHeader{Signature: SignatureHFS, BlockSize: 512}), fserr.ErrFormat},
		{"zero block size", image(fixture.VolumeHeader{}), fserr.ErrFormat},
		{"odd block size", image(fixture.VolumeHeader{BlockSize: 1000}), fserr.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

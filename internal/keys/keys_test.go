package keys

import (
	"errors"
	"sort"
	"testing"

	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

func TestFoldCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 0},
		{"ABC", "abc", 0},
		{"Readme", "README", 0},
		{"abc", "abd", -1},
		{"abd", "ABC", 1},
		{"ab", "abc", -1},
		{"", "a", -1},
		{"Ünïcode", "ünÏCODE", 0},
		{"a", "B", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := FoldCompare(tt.a, tt.b); got != tt.want {
				t.Errorf("FoldCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := FoldCompare(tt.b, tt.a); got != -tt.want {
				t.Errorf("FoldCompare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestBinaryCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 0},
		{"ABC", "abc", -1},
		{"Beta", "alpha", -1},
		{"ab", "abc", -1},
		{"\uFFFD", "\U0001F600", 1}, // surrogates sort below U+E000
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := BinaryCompare(tt.a, tt.b); got != tt.want {
				t.Errorf("BinaryCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := BinaryCompare(tt.b, tt.a); got != -tt.want {
				t.Errorf("BinaryCompare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestCaseSensitiveCatalogKey(t *testing.T) {
	k := CatalogKey{ParentID: 2, Name: "Readme"}
	got, _, err := ParseBinaryCatalogKey(k.Bytes())
	if err != nil {
		t.Fatalf("ParseBinaryCatalogKey failed: %v", err)
	}
	if !got.CaseSensitive || got.Name != k.Name {
		t.Errorf("unexpected key %+v", got)
	}

	upper := CatalogKey{ParentID: 2, Name: "README"}
	if k.Compare(upper) != 0 {
		t.Error("expected folded keys to match")
	}
	if got.Compare(upper) == 0 {
		t.Error("expected case-sensitive keys to differ")
	}
	if got.Compare(CatalogKey{ParentID: 1, Name: "zzz"}) <= 0 {
		t.Error("expected parent id to dominate")
	}
}

func TestCatalogKeyParse(t *testing.T) {
	k := CatalogKey{ParentID: 2, Name: "Documents"}
	raw := append(k.Bytes(), 0xAA, 0xBB) // trailing record data

	got, n, err := ParseCatalogKey(raw)
	if err != nil {
		t.Fatalf("ParseCatalogKey failed: %v", err)
	}
	if got != k {
		t.Errorf("expected %v, got %v", k, got)
	}
	if n != len(raw)-2 {
		t.Errorf("expected %d bytes consumed, got %d", len(raw)-2, n)
	}
	if n != 8+2*len("Documents") {
		t.Errorf("unexpected key size %d", n)
	}
}

func TestCatalogKeyOrder(t *testing.T) {
	ordered := []CatalogKey{
		{ParentID: 1, Name: "zzz"},
		{ParentID: 2, Name: ""},
		{ParentID: 2, Name: "alpha"},
		{ParentID: 2, Name: "Beta"},
		{ParentID: 2, Name: "gamma"},
		{ParentID: 16, Name: "a"},
	}
	shuffled := []CatalogKey{ordered[3], ordered[5], ordered[0], ordered[4], ordered[2], ordered[1]}
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i].Compare(shuffled[j]) < 0 })

	for i := range ordered {
		if shuffled[i] != ordered[i] {
			t.Errorf("position %d: expected %v, got %v", i, ordered[i], shuffled[i])
		}
	}
}

func TestExtentKeyParseAndOrder(t *testing.T) {
	k := ExtentKey{FileID: 20, Fork: ResourceFork, StartBlock: 96}
	got, n, err := ParseExtentKey(k.Bytes())
	if err != nil {
		t.Fatalf("ParseExtentKey failed: %v", err)
	}
	if got != k || n != 12 {
		t.Errorf("expected %v/12, got %v/%d", k, got, n)
	}

	tests := []struct {
		name string
		a, b ExtentKey
		want int
	}{
		{"file id first", ExtentKey{1, ResourceFork, 99}, ExtentKey{2, DataFork, 0}, -1},
		{"data before resource", ExtentKey{5, DataFork, 99}, ExtentKey{5, ResourceFork, 0}, -1},
		{"start block last", ExtentKey{5, DataFork, 10}, ExtentKey{5, DataFork, 8}, 1},
		{"equal", ExtentKey{5, DataFork, 8}, ExtentKey{5, DataFork, 8}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExtentKeyBadForkType(t *testing.T) {
	raw := ExtentKey{FileID: 3}.Bytes()
	raw[2] = 0x7F

	_, _, err := ParseExtentKey(raw)
	if !errors.Is(err, fserr.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestAttributeKeyParseAndOrder(t *testing.T) {
	k := AttributeKey{FileID: 30, Name: "com.apple.decmpfs"}
	got, n, err := ParseAttributeKey(k.Bytes())
	if err != nil {
		t.Fatalf("ParseAttributeKey failed: %v", err)
	}
	if got != k {
		t.Errorf("expected %v, got %v", k, got)
	}
	if n != 14+2*len(k.Name) {
		t.Errorf("unexpected key size %d", n)
	}

	// 'F' sorts before 'd' in binary order but after it once folded.
	a := AttributeKey{FileID: 30, Name: "com.apple.decmpfs"}
	b := AttributeKey{FileID: 30, Name: "com.apple.FinderInfo"}
	if a.Compare(b) >= 0 {
		t.Errorf("expected %v < %v", a, b)
	}
	if b.Compare(a) <= 0 {
		t.Errorf("expected %v > %v", b, a)
	}
	if (AttributeKey{FileID: 29, Name: "z"}).Compare(a) >= 0 {
		t.Error("expected file id to dominate")
	}
}

func TestKeyParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) error
		data  []byte
	}{
		{"catalog empty", func(b []byte) error { _, _, err := ParseCatalogKey(b); return err }, nil},
		{"catalog too short", func(b []byte) error { _, _, err := ParseCatalogKey(b); return err }, []byte{0, 4, 0, 0, 0, 1}},
		{"catalog overruns record", func(b []byte) error { _, _, err := ParseCatalogKey(b); return err }, []byte{0, 40, 0, 0, 0, 1, 0, 0}},
		{"catalog name overruns key", func(b []byte) error { _, _, err := ParseCatalogKey(b); return err }, []byte{0, 6, 0, 0, 0, 1, 0, 9}},
		{"extent short", func(b []byte) error { _, _, err := ParseExtentKey(b); return err }, []byte{0, 10, 0}},
		{"attribute short", func(b []byte) error { _, _, err := ParseAttributeKey(b); return err }, []byte{0, 2, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, fserr.ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

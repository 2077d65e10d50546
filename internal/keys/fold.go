// Package keys implements the sort keys of the HFS+ B-trees.
//
// Each key type decodes from the front of a B-tree record and reports how many
// bytes it occupied, so the node parser can find the data (or child pointer)
// that follows it:
//
//   - [CatalogKey]: parent folder CNID plus node name
//   - [ExtentKey]: file CNID, fork type and first logical block
//   - [AttributeKey]: file CNID plus attribute name
//
// Names are compared with [FoldCompare], a case-insensitive ordinal order,
// except in case-sensitive HFSX catalogs, which use [BinaryCompare].
package keys

import (
	"unicode"
	"unicode/utf16"

	"github.com/robert-malhotra/go-hfsplus/internal/binary"
	"github.com/robert-malhotra/go-hfsplus/internal/fserr"
)

// FoldCompare compares two names code point by code point after case folding.
// It is locale independent and defines a total order.
func FoldCompare(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	for i := 0; i < len(ar) && i < len(br); i++ {
		x, y := fold(ar[i]), fold(br[i])
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return cmpInt(len(ar), len(br))
}

// BinaryCompare compares two names by their UTF-16 code units, the order of
// case-sensitive HFSX catalogs.
func BinaryCompare(a, b string) int {
	au := utf16.Encode([]rune(a))
	bu := utf16.Encode([]rune(b))
	for i := 0; i < len(au) && i < len(bu); i++ {
		if au[i] != bu[i] {
			if au[i] < bu[i] {
				return -1
			}
			return 1
		}
	}
	return cmpInt(len(au), len(bu))
}

func fold(r rune) rune {
	return unicode.ToLower(r)
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DecodeName decodes an HFSUniStr255 (u16 length then UTF-16BE units) and
// returns the string and the bytes it used.
func DecodeName(b []byte) (string, int, error) {
	if len(b) < 2 {
		return "", 0, fserr.Formatf("name length truncated")
	}
	n := int(binary.Order.Uint16(b))
	if n > 255 {
		return "", 0, fserr.Formatf("name length %d exceeds 255", n)
	}
	if len(b) < 2+2*n {
		return "", 0, fserr.Formatf("name of %d units truncated at %d bytes", n, len(b))
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.Order.Uint16(b[2+2*i:])
	}
	return string(utf16.Decode(units)), 2 + 2*n, nil
}

// EncodeName encodes s as an HFSUniStr255.
func EncodeName(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2+2*len(units))
	binary.Order.PutUint16(out, uint16(len(units)))
	for i, u := range units {
		binary.Order.PutUint16(out[2+2*i:], u)
	}
	return out
}

// keyLength reads the leading key length field and checks the declared key
// fits in b. It returns the total size, length field included.
func keyLength(b []byte, kind string, min int) (int, error) {
	if len(b) < 2 {
		return 0, fserr.Formatf("%s key length truncated", kind)
	}
	kl := int(binary.Order.Uint16(b))
	if kl < min {
		return 0, fserr.Formatf("%s key length %d below minimum %d", kind, kl, min)
	}
	if 2+kl > len(b) {
		return 0, fserr.Formatf("%s key length %d exceeds record of %d bytes", kind, kl, len(b))
	}
	return 2 + kl, nil
}

// Package decmpfs decodes HFS+ transparent file compression.
//
// A compressed file carries an extended attribute named "com.apple.decmpfs"
// whose data starts with a 16-byte header:
//
//	offset  size  field
//	0       4     magic "fpmc"
//	4       4     compression type (little-endian)
//	8       8     uncompressed size (little-endian)
//
// # Supported Types
//
//   - Type 3: the compressed data follows the header inside the attribute.
//     It is either a zlib stream or, when the first byte is 0xFF, the raw
//     file contents.
//
//   - Type 4: the data lives in the file's resource fork as a table of
//     independently compressed 64 KiB blocks. Each block is a zlib stream
//     or a 0xFF-prefixed raw block. [ResourceReader] decodes blocks on
//     demand.
//
// Other types (LZVN, LZFSE) are reported as unsupported by [Supported]; the
// caller decides how to fall back.
package decmpfs

// Package btree implements a read-only reader for HFS+ style paged B-trees.
//
// The catalog, extents overflow and attributes files of an HFS+ volume are all
// stored as the same kind of B-tree: a sequence of fixed-size nodes, the first
// of which is a header node describing the tree. This package parses those
// nodes and walks them; the key format is supplied by the caller.
//
// # Node Layout
//
// Every node starts with a 14-byte [Descriptor] and ends with a record-offset
// trailer: recordCount+1 big-endian u16 offsets stored backward from the end
// of the node, delimiting each record and the start of free space.
//
//   - Header nodes hold exactly three records: the [HeaderRecord], an opaque
//     user data record and an opaque map record
//   - Index nodes hold (key, child node id) records in ascending key order
//   - Leaf nodes hold (key, payload) records in ascending key order
//   - Map nodes hold opaque allocation bitmap continuation data
//
// # Traversal
//
//   - [Tree.Find] descends from the root to the single leaf that may hold a key
//   - [Tree.VisitRange] enumerates records, letting a [Visitor] prune subtrees
//     and stop the scan by returning [Before], [Within] or [After]
//
// Nodes are not retained between calls. The backing data must not change for
// the lifetime of a [Tree]; that guarantee is what makes the optional node
// cache installed by [WithNodeCache] invisible to callers.
package btree

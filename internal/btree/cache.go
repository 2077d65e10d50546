package btree

import (
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

// nodeCache holds raw node bytes keyed by node id. Parsed nodes are not
// cached: payload slices handed to callers must not alias shared state.
type nodeCache struct {
	c *ristretto.Cache[uint32, []byte]
}

func newNodeCache(maxBytes int64) (*nodeCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[uint32, []byte]{
		// ten counters per node that fits in maxBytes
		NumCounters: max(maxBytes/MinNodeSize*10, 100),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating node cache")
	}
	return &nodeCache{c: c}, nil
}

func (nc *nodeCache) get(id uint32) ([]byte, bool) {
	raw, ok := nc.c.Get(id)
	if !ok {
		return nil, false
	}
	// Parsing hands out sub-slices; give each reader its own copy.
	return append([]byte(nil), raw...), true
}

func (nc *nodeCache) put(id uint32, raw []byte) {
	nc.c.Set(id, append([]byte(nil), raw...), int64(len(raw)))
}

func (nc *nodeCache) close() {
	nc.c.Close()
}

package hfsplus

// Option configures Open.
type Option func(*options)

type options struct {
	cacheBytes int64
	blockSize  uint32
}

// WithNodeCache caches up to maxBytes of raw B-tree nodes per tree.
func WithNodeCache(maxBytes int64) Option {
	return func(o *options) {
		if maxBytes > 0 {
			o.cacheBytes = maxBytes
		}
	}
}

// WithBlockSize overrides the allocation block size recorded in the volume
// header. size must be a power of two of at least 512; other values are
// ignored.
func WithBlockSize(size uint32) Option {
	return func(o *options) {
		if size >= 512 && size&(size-1) == 0 {
			o.blockSize = size
		}
	}
}

package cache

// ScopedKeyer prefixes every key of an inner Keyer. The API server uses it
// to keep its entries apart from CLI entries when both share one Redis.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, defaulting to [DefaultKeyer] when nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// CircuitKey implements [Keyer].
func (k *ScopedKeyer) CircuitKey(root, name string, opts CircuitKeyOpts) string {
	return k.prefix + k.inner.CircuitKey(root, name, opts)
}

// ArtifactKey implements [Keyer].
func (k *ScopedKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, opts)
}

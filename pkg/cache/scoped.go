package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis instance without trampling each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "gauzecut:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TrialKey generates a prefixed key for trial outcome caching.
func (k *ScopedKeyer) TrialKey(shapeHash string, opts TrialKeyOpts) string {
	return k.prefix + k.inner.TrialKey(shapeHash, opts)
}

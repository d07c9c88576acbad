package cache

// Keyer builds cache keys.
type Keyer interface {
	// LOCKey returns the key for the line-count report of a canonical
	// source directory.
	LOCKey(dir string) string
}

// DefaultKeyer namespaces keys by entry kind and a schema version.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// locSchema changes whenever line counting changes in a way that makes old
// entries wrong.
const locSchema = 1

// LOCKey implements Keyer.
func (DefaultKeyer) LOCKey(dir string) string {
	return hashKey("loc", locSchema, dir)
}

// ScopedKeyer wraps a Keyer with a prefix so several projects or teams can
// share one Redis instance without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ci:")
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
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LOCKey implements Keyer.
func (k *ScopedKeyer) LOCKey(dir string) string {
	return k.prefix + k.inner.LOCKey(dir)
}

package cache

// Keyer generates cache keys.
type Keyer interface {
	// ClipboardKey is the slot holding the copied subtree.
	ClipboardKey() string
	// ArtifactKey identifies a rendered export of a map.
	ArtifactKey(mapHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an export's bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Font   string `json:"font,omitempty"`
}

// DefaultKeyer generates unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a keyer without a prefix.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ClipboardKey returns the fixed clipboard slot key.
func (DefaultKeyer) ClipboardKey() string { return "clipboard" }

// ArtifactKey hashes the map hash together with the render options.
func (DefaultKeyer) ArtifactKey(mapHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", mapHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so several stores or users can
// share one cache directory without seeing each other's clipboard.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "sqlite:/home/me/maps.db:")
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

// ClipboardKey returns the prefixed clipboard key.
func (k *ScopedKeyer) ClipboardKey() string {
	return k.prefix + k.inner.ClipboardKey()
}

// ArtifactKey returns a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(mapHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(mapHash, opts)
}

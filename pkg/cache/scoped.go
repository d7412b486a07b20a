package cache

// ScopedKeyer wraps a Keyer with a prefix so several users of one backend
// do not see each other's entries.
//
// Example usage:
//
//	// Plans generated through the HTTP API
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
//
//	// Plans generated by the CLI
//	cliKeyer := NewDefaultKeyer()
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

// PlanKey generates a prefixed key for plan caching.
func (k *ScopedKeyer) PlanKey(configHash, buildingID string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(configHash, buildingID, opts)
}

// GraphKey generates a prefixed key for graph caching.
func (k *ScopedKeyer) GraphKey(planID string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(planID, opts)
}

package cache

// ScopedKeyer puts every key of an inner Keyer under a namespace, so
// staging and production can share one Redis without reading each other's
// reports. The CLI builds one from the cache.scope setting:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer prefixes the keys of inner. A nil inner means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SourceKey(uri string) string { return k.prefix + k.inner.SourceKey(uri) }

func (k *ScopedKeyer) ReportKey(inputHash string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(inputHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(inputHash, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)

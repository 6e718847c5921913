// Package observability lets the define packages report what they do
// without importing a metrics backend.
//
// Three hook sets cover a run: [PipelineHooks] for the parse, normalize
// and render stages, [CacheHooks] for cache traffic by key kind, and
// [SourceHooks] for input fetches. Until a binary installs its own, every
// set is a no-op. The serve command installs the Prometheus collectors
// from internal/metrics:
//
//	m := metrics.New()
//	m.Install() // SetPipelineHooks(m), SetCacheHooks(m), SetSourceHooks(m)
//
// and the pipeline reports through the current set:
//
//	start := time.Now()
//	observability.Pipeline().OnParseStart(ctx, "xlsx")
//	model, diags, err := workbook.Load(r)
//	observability.Pipeline().OnParseComplete(ctx, "xlsx", len(diags), time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks observes the stages of a conversion. Format is "xml" or
// "xlsx".
type PipelineHooks interface {
	OnParseStart(ctx context.Context, format string)
	OnParseComplete(ctx context.Context, format string, diagnostics int, duration time.Duration, err error)
	OnNormalizeComplete(ctx context.Context, diagnostics int, duration time.Duration, err error)
	// OnRenderComplete reports the size in bytes of the written artifact.
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks observes cache traffic. KeyType is "source", "report" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// SourceHooks observes input fetches. Scheme is "file" or "s3". OnFetch
// fires once per fetch, failed ones included.
type SourceHooks interface {
	OnFetch(ctx context.Context, scheme string, size int, duration time.Duration, err error)
}

type (
	NoopPipelineHooks struct{}
	NoopCacheHooks    struct{}
	NoopSourceHooks   struct{}
)

func (NoopPipelineHooks) OnParseStart(context.Context, string)                                {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, time.Duration, error)  {}
func (NoopPipelineHooks) OnNormalizeComplete(context.Context, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}
func (NoopCacheHooks) OnCacheHit(context.Context, string)                                     {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)                                    {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)                                {}
func (NoopSourceHooks) OnFetch(context.Context, string, int, time.Duration, error)            {}

// slot holds one installed hook set. Loads are lock-free, so the hot path
// in the pipeline pays a single atomic read.
type slot[T any] struct {
	p    atomic.Pointer[T]
	noop T
}

func (s *slot[T]) get() T {
	if h := s.p.Load(); h != nil {
		return *h
	}
	return s.noop
}

func (s *slot[T]) set(h T) { s.p.Store(&h) }
func (s *slot[T]) reset()  { s.p.Store(nil) }

var (
	pipelineSlot = slot[PipelineHooks]{noop: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{noop: NoopCacheHooks{}}
	sourceSlot   = slot[SourceHooks]{noop: NoopSourceHooks{}}
)

// SetPipelineHooks installs h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.set(h)
	}
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetSourceHooks installs h. A nil h is ignored.
func SetSourceHooks(h SourceHooks) {
	if h != nil {
		sourceSlot.set(h)
	}
}

func Pipeline() PipelineHooks { return pipelineSlot.get() }
func Cache() CacheHooks       { return cacheSlot.get() }
func Source() SourceHooks     { return sourceSlot.get() }

// Reset puts the no-op hooks back. Tests that install collectors call it
// in t.Cleanup.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	sourceSlot.reset()
}

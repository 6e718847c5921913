package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/definekit/pkg/cache"
	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/observability"
)

// Cache key kinds reported to observability hooks.
const (
	keyTypeReport   = "report"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ArtifactTTL overrides cache.TTLArtifact when positive.
	ArtifactTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedArtifact is the cache envelope of a rendered artifact. The report
// travels with it so that a hit can return the original diagnostics.
type cachedArtifact struct {
	Report   Report `json:"report"`
	Artifact []byte `json:"artifact"`
}

// Execute runs the complete parse → normalize → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Format == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "format is required")
	}

	inputHash := opts.InputHash()
	cacheKey := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts())

	if !opts.Refresh {
		if data, hit := r.get(ctx, keyTypeArtifact, cacheKey); hit {
			var cached cachedArtifact
			if err := json.Unmarshal(data, &cached); err == nil {
				r.Logger.Debug("artifact from cache", "format", opts.Format, "hash", inputHash[:12])
				return &Result{
					Report:        cached.Report,
					Artifact:      cached.Artifact,
					DefineVersion: opts.OutputDefineVersion(cached.Report.DefineVersion),
					CacheInfo:     CacheInfo{ReportHit: true, ArtifactHit: true},
				}, nil
			}
		}
	}

	result := &Result{}
	m, err := r.prepare(ctx, opts, inputHash, result)
	if err != nil {
		return nil, err
	}

	renderStart := time.Now()
	artifact, err := Render(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifact = artifact
	result.DefineVersion = opts.OutputDefineVersion(result.Report.DefineVersion)
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered output",
		"format", opts.Format,
		"bytes", len(artifact),
		"duration", result.Stats.RenderTime)

	if !cache.Enabled(r.Cache) {
		return result, nil
	}
	if data, err := json.Marshal(cachedArtifact{Report: result.Report, Artifact: artifact}); err == nil {
		r.set(ctx, keyTypeArtifact, cacheKey, data, r.artifactTTL())
	}
	r.storeReport(ctx, opts, inputHash, result.Report)
	return result, nil
}

// CheckWithCacheInfo parses and normalizes the input and returns its report
// together with whether it came from the cache.
func (r *Runner) CheckWithCacheInfo(ctx context.Context, opts Options) (*Report, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForParse(); err != nil {
		return nil, false, err
	}

	inputHash := opts.InputHash()
	cacheKey := r.Keyer.ReportKey(inputHash, opts.ReportKeyOpts())
	if !opts.Refresh {
		if data, hit := r.get(ctx, keyTypeReport, cacheKey); hit {
			var report Report
			if err := json.Unmarshal(data, &report); err == nil {
				return &report, true, nil
			}
		}
	}

	result := &Result{}
	if _, err := r.prepare(ctx, opts, inputHash, result); err != nil {
		return nil, false, err
	}
	r.storeReport(ctx, opts, inputHash, result.Report)
	return &result.Report, false, nil
}

// Check is a convenience wrapper that calls CheckWithCacheInfo and discards the cache hit info.
func (r *Runner) Check(ctx context.Context, opts Options) (*Report, error) {
	report, _, err := r.CheckWithCacheInfo(ctx, opts)
	return report, err
}

// Prepare parses and normalizes the input without touching the cache and
// returns the model with its report. Callers that need the model itself,
// such as the lineage renderer, use this.
func (r *Runner) Prepare(ctx context.Context, opts Options) (*define.Model, *Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForParse(); err != nil {
		return nil, nil, err
	}
	result := &Result{}
	m, err := r.prepare(ctx, opts, opts.InputHash(), result)
	if err != nil {
		return nil, nil, err
	}
	return m, &result.Report, nil
}

// prepare runs the parse and normalize stages and fills result.
func (r *Runner) prepare(ctx context.Context, opts Options, inputHash string, result *Result) (*define.Model, error) {
	parseStart := time.Now()
	m, diags, err := Parse(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Stats.ParseTime = time.Since(parseStart)

	r.Logger.Info("parsed input",
		"format", opts.InputFormat,
		"datasets", m.Datasets.Len(),
		"diagnostics", len(diags),
		"duration", result.Stats.ParseTime)

	normStart := time.Now()
	diags.Add(Normalize(ctx, m, opts)...)
	result.Stats.NormalizeTime = time.Since(normStart)

	r.Logger.Info("normalized model",
		"variables", m.Variables.Len(),
		"warnings", diags.Count(define.SeverityWarning),
		"errors", diags.Count(define.SeverityError),
		"duration", result.Stats.NormalizeTime)

	result.Model = m
	result.Report = newReport(opts.InputFormat, inputHash, m, diags)
	return m, nil
}

func newReport(format, inputHash string, m *define.Model, diags define.Diagnostics) Report {
	rep := Report{
		InputHash:   inputHash,
		InputFormat: format,
		Counts:      CountModel(m),
		Diagnostics: diags,
	}
	if s := m.Study; s != nil {
		rep.FileOID = s.FileOID
		if rep.FileOID == "" {
			rep.FileOID = define.FileOID(s.Name, s.VersionName)
		}
		rep.Study = s.Name
		rep.DefineVersion = s.DefineVersion
	}
	return rep
}

func (r *Runner) storeReport(ctx context.Context, opts Options, inputHash string, report Report) {
	if data, err := json.Marshal(report); err == nil {
		r.set(ctx, keyTypeReport, r.Keyer.ReportKey(inputHash, opts.ReportKeyOpts()), data, cache.TTLReport)
	}
}

// get reads from the cache. Backend errors are logged and treated as misses.
func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// set writes to the cache. Failures are logged; the result is still returned.
func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) artifactTTL() time.Duration {
	if r.ArtifactTTL > 0 {
		return r.ArtifactTTL
	}
	return cache.TTLArtifact
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// Package source reads definekit inputs from local paths and S3.
//
// Inputs are named by URI. A plain path or a file:// URI is read from the
// local file system; an s3://bucket/key URI is fetched with the AWS SDK.
// Remote fetches are retried on transient failures with
// [cache.Backoff] and, when a cache is configured, reused for
// [cache.TTLSource].
//
//	l := source.NewLoader(source.Options{S3: s3Fetcher, Cache: c})
//	in, err := l.Load(ctx, "s3://specs/CDISC01/define.xlsx")
//	// in.Name == "define.xlsx", in.Data holds the bytes
package source

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/definekit/pkg/cache"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/observability"
)

// URI schemes.
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
)

// Input is a loaded input document.
type Input struct {
	// Name is the base name, used for format detection.
	Name string
	// URI is the location the input was loaded from.
	URI string
	// Data holds the raw bytes.
	Data []byte
}

// Location is a parsed input URI.
type Location struct {
	Scheme string
	Bucket string // s3 only
	Path   string // local path or object key
}

// ParseURI splits an input URI. Anything without a recognised scheme is a
// local path.
func ParseURI(uri string) (Location, error) {
	if uri == "" {
		return Location{}, errors.New(errors.ErrCodeInvalidPath, "empty input location")
	}
	switch {
	case strings.HasPrefix(uri, "s3://"):
		u, err := url.Parse(uri)
		if err != nil {
			return Location{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "parse %q", uri)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.New(errors.ErrCodeInvalidPath, "%q must have the form s3://bucket/key", uri)
		}
		return Location{Scheme: SchemeS3, Bucket: u.Host, Path: key}, nil
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return Location{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "parse %q", uri)
		}
		return Location{Scheme: SchemeFile, Path: filepath.FromSlash(u.Path)}, nil
	}
	return Location{Scheme: SchemeFile, Path: uri}, nil
}

// Fetcher reads one object from a remote store.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Options configures a Loader.
type Options struct {
	// S3 fetches s3:// inputs. Without it they are rejected.
	S3 Fetcher

	// Cache stores remote inputs. Defaults to a NullCache.
	Cache cache.Cache
	Keyer cache.Keyer

	// Backoff retries transient S3 failures. The zero value means
	// cache.DefaultBackoff.
	Backoff cache.Backoff

	// MaxBytes bounds the input size. Zero means DefaultMaxBytes.
	MaxBytes int64

	Logger *log.Logger
}

// DefaultMaxBytes is the default input size limit.
const DefaultMaxBytes = 256 << 20

// Loader loads inputs by URI.
type Loader struct {
	opts Options
}

// NewLoader creates a Loader, filling in defaults.
func NewLoader(opts Options) *Loader {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Backoff.Attempts == 0 {
		opts.Backoff = cache.DefaultBackoff
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Loader{opts: opts}
}

// Load reads the input at uri.
func (l *Loader) Load(ctx context.Context, uri string) (*Input, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	var data []byte
	switch loc.Scheme {
	case SchemeS3:
		data, err = l.loadS3(ctx, uri, loc)
	default:
		data, err = l.loadFile(loc.Path)
	}
	observability.Source().OnFetch(ctx, loc.Scheme, len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	l.opts.Logger.Debug("loaded input", "uri", uri, "bytes", len(data), "duration", time.Since(start))
	return &Input{Name: path.Base(filepath.ToSlash(loc.Path)), URI: uri, Data: data}, nil
}

func (l *Loader) loadFile(p string) ([]byte, error) {
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", p)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", p)
	}
	defer f.Close()
	return l.readLimited(f, p)
}

func (l *Loader) readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.opts.MaxBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %s", name)
	}
	if int64(len(data)) > l.opts.MaxBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s exceeds %d bytes", name, l.opts.MaxBytes)
	}
	return data, nil
}

func (l *Loader) loadS3(ctx context.Context, uri string, loc Location) ([]byte, error) {
	if l.opts.S3 == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "s3 inputs are not configured")
	}
	if err := errors.ValidatePath(loc.Path); err != nil {
		return nil, err
	}
	key := l.opts.Keyer.SourceKey(uri)
	if data, hit, err := l.opts.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "source")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "source")

	var data []byte
	err := l.opts.Backoff.Retry(ctx, func() error {
		var ferr error
		data, ferr = l.opts.S3.Fetch(ctx, loc.Bucket, loc.Path)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.opts.MaxBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s exceeds %d bytes", uri, l.opts.MaxBytes)
	}
	if err := l.opts.Cache.Set(ctx, key, data, cache.TTLSource); err != nil {
		l.opts.Logger.Warn("cache write failed", "key", key, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "source", len(data))
	}
	return data, nil
}

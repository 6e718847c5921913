package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/definekit/pkg/cache"
	"github.com/matzehuels/definekit/pkg/errors"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		wantErr bool
	}{
		{"define.xml", Location{Scheme: SchemeFile, Path: "define.xml"}, false},
		{"/tmp/spec.xlsx", Location{Scheme: SchemeFile, Path: "/tmp/spec.xlsx"}, false},
		{"file:///tmp/spec.xlsx", Location{Scheme: SchemeFile, Path: filepath.FromSlash("/tmp/spec.xlsx")}, false},
		{"s3://specs/CDISC01/define.xml", Location{Scheme: SchemeS3, Bucket: "specs", Path: "CDISC01/define.xml"}, false},
		{"s3://specs", Location{}, true},
		{"s3:///key", Location{}, true},
		{"", Location{}, true},
	}
	for _, tt := range tests {
		got, err := ParseURI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseURI(%q) err = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseURI(%q) = %+v, want %+v", tt.uri, got, tt.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "define.xml")
	if err := os.WriteFile(p, []byte("<ODM/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(Options{})

	in, err := l.Load(context.Background(), p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if in.Name != "define.xml" || string(in.Data) != "<ODM/>" {
		t.Errorf("input = %q %q", in.Name, in.Data)
	}

	_, err = l.Load(context.Background(), filepath.Join(dir, "missing.xml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
}

func TestLoadFileTooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.xml")
	if err := os.WriteFile(p, bytes.Repeat([]byte("x"), 11), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader(Options{MaxBytes: 10}).Load(context.Background(), p)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestLoadS3NotConfigured(t *testing.T) {
	_, err := NewLoader(Options{}).Load(context.Background(), "s3://b/k.xml")
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

// fakeS3 serves GET requests for path-style object URLs. Each entry in
// failures is returned once, in order, before the object itself.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]string
	failures []int
	requests int
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	resp := func(code int, body string) *http.Response {
		return &http.Response{
			StatusCode: code,
			Header:     http.Header{"Content-Type": {"application/xml"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}
	}
	if len(f.failures) > 0 {
		code := f.failures[0]
		f.failures = f.failures[1:]
		return resp(code, "<Error><Code>SlowDown</Code><Message>try later</Message></Error>"), nil
	}
	body, ok := f.objects[strings.TrimPrefix(req.URL.Path, "/")]
	if !ok {
		return resp(http.StatusNotFound, "<Error><Code>NoSuchKey</Code><Message>no such key</Message></Error>"), nil
	}
	r := resp(http.StatusOK, body)
	r.Header.Set("Content-Type", "application/octet-stream")
	return r, nil
}

func newFakeFetcher(t *testing.T, f *fakeS3) *S3Fetcher {
	t.Helper()
	fetcher, err := NewS3Fetcher(context.Background(), S3Config{
		Region:          "us-east-1",
		Endpoint:        "https://s3.test.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: f},
	})
	if err != nil {
		t.Fatalf("NewS3Fetcher: %v", err)
	}
	return fetcher
}

func TestLoadS3(t *testing.T) {
	f := &fakeS3{objects: map[string]string{"specs/CDISC01/define.xml": "<ODM/>"}}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	l := NewLoader(Options{S3: newFakeFetcher(t, f), Cache: c})
	ctx := context.Background()

	in, err := l.Load(ctx, "s3://specs/CDISC01/define.xml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if in.Name != "define.xml" || string(in.Data) != "<ODM/>" {
		t.Errorf("input = %q %q", in.Name, in.Data)
	}

	// The second load is served from the cache.
	if _, err := l.Load(ctx, "s3://specs/CDISC01/define.xml"); err != nil {
		t.Fatal(err)
	}
	if f.requests != 1 {
		t.Errorf("requests = %d, want 1", f.requests)
	}
}

func TestLoadS3Missing(t *testing.T) {
	f := &fakeS3{objects: map[string]string{}}
	l := NewLoader(Options{S3: newFakeFetcher(t, f)})
	_, err := l.Load(context.Background(), "s3://specs/none.xml")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
	if f.requests != 1 {
		t.Errorf("missing objects should not be retried: %d requests", f.requests)
	}
}

func TestLoadS3RetriesServerErrors(t *testing.T) {
	f := &fakeS3{
		objects:  map[string]string{"specs/define.xml": "<ODM/>"},
		failures: []int{http.StatusServiceUnavailable},
	}
	l := NewLoader(Options{
		S3:      newFakeFetcher(t, f),
		Backoff: cache.Backoff{Attempts: 2, Delay: time.Millisecond},
	})
	in, err := l.Load(context.Background(), "s3://specs/define.xml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(in.Data) != "<ODM/>" || f.requests != 2 {
		t.Errorf("data %q after %d requests", in.Data, f.requests)
	}
}

func TestLoadS3RejectsTraversal(t *testing.T) {
	f := &fakeS3{objects: map[string]string{}}
	l := NewLoader(Options{S3: newFakeFetcher(t, f)})
	_, err := l.Load(context.Background(), "s3://specs/a/../../etc/passwd")
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("err = %v, want INVALID_PATH", err)
	}
}

// Package pipeline runs the definekit data flow end to end.
//
// One run reads a Define-XML document or a metadata workbook, normalizes
// the resulting model and optionally serializes it again. The CLI and the
// HTTP server both go through this package so that they report the same
// diagnostics and produce the same bytes for the same input.
//
// # Stages
//
//  1. Parse: bind markup with [markup.Bind] or import a workbook with
//     [workbook.Load], depending on the input format
//  2. Normalize: run [normalize.Run] on the model
//  3. Render: write the model as Define-XML or as a workbook
//
// # Caching
//
// A [Runner] caches check reports and rendered artifacts under keys derived
// from the SHA-256 of the input bytes and the options that affect the
// output. A cached artifact is returned together with the diagnostics of
// the run that produced it, so a cache hit is indistinguishable from a
// fresh run except for [Result.Model], which is nil.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:    data,
//	    Filename: "define.xml",
//	    Format:   pipeline.FormatXLSX,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("define.xlsx", res.Artifact, 0o644)
package pipeline

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/definekit/pkg/cache"
	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/markup"
)

// Input and output formats.
const (
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
)

// ValidFormats is the set of supported formats.
var ValidFormats = map[string]bool{
	FormatXML:  true,
	FormatXLSX: true,
}

// ValidDefineVersions is the set of Define-XML versions the writer produces.
var ValidDefineVersions = map[string]bool{
	markup.DefineVersion20: true,
	markup.DefineVersion21: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests; the input
// itself travels separately.
type Options struct {
	// Parse options
	Input       []byte `json:"-"`
	Filename    string `json:"filename,omitempty"`
	InputFormat string `json:"input_format,omitempty"` // detected when empty

	// Normalize options
	MergeSupplemental bool `json:"merge_supplemental,omitempty"`

	// Render options
	Format         string `json:"format,omitempty"`
	DefineVersion  string `json:"define_version,omitempty"` // overrides the study's version
	Stylesheet     string `json:"stylesheet,omitempty"`
	OmitStylesheet bool   `json:"omit_stylesheet,omitempty"`
	Language       string `json:"language,omitempty"`

	// Refresh bypasses cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger      `json:"-"`
	Now    func() time.Time `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the normalized model. It is nil when the result came from
	// the cache.
	Model *define.Model

	// Report summarizes the input and lists every diagnostic.
	Report Report

	// Artifact is the serialized output in Options.Format.
	Artifact []byte

	// DefineVersion is the Define-XML version the artifact was written as.
	DefineVersion string

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which results came from the cache.
	CacheInfo CacheInfo
}

// Report is the cacheable summary of a parse and normalize run.
type Report struct {
	InputHash   string `json:"input_hash"`
	InputFormat string `json:"input_format"`
	FileOID     string `json:"file_oid,omitempty"`
	Study       string `json:"study,omitempty"`

	// DefineVersion is the version the input declares.
	DefineVersion string `json:"define_version,omitempty"`

	Counts      Counts             `json:"counts"`
	Diagnostics define.Diagnostics `json:"diagnostics"`
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Report) HasErrors() bool { return r.Diagnostics.HasErrors() }

// Counts lists the number of records per table.
type Counts struct {
	Standards    int `json:"standards"`
	Documents    int `json:"documents"`
	Datasets     int `json:"datasets"`
	Variables    int `json:"variables"`
	Values       int `json:"values"`
	WhereClauses int `json:"where_clauses"`
	Codelists    int `json:"codelists"`
	Dictionaries int `json:"dictionaries"`
	Methods      int `json:"methods"`
	Comments     int `json:"comments"`
	Displays     int `json:"displays"`
	Results      int `json:"results"`
}

// CountModel counts the records of m.
func CountModel(m *define.Model) Counts {
	return Counts{
		Standards:    m.Standards.Len(),
		Documents:    m.Documents.Len(),
		Datasets:     m.Datasets.Len(),
		Variables:    m.Variables.Len(),
		Values:       m.Values.Len(),
		WhereClauses: m.WhereClauses.Len(),
		Codelists:    m.Codelists.Len(),
		Dictionaries: m.Dictionaries.Len(),
		Methods:      m.Methods.Len(),
		Comments:     m.Comments.Len(),
		Displays:     m.Displays.Len(),
		Results:      m.Results.Len(),
	}
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ParseTime     time.Duration
	NormalizeTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline result.
type CacheInfo struct {
	ReportHit   bool // Whether the report came from cache
	ArtifactHit bool // Whether the artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: xml, xlsx)", format)
	}
	return nil
}

// ValidateDefineVersion checks that a Define-XML version can be written.
func ValidateDefineVersion(version string) error {
	if !ValidDefineVersions[version] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid define version: %q (must be one of: 2.0.0, 2.1.0)", version)
	}
	return nil
}

// DetectFormat guesses the input format from the file extension, falling
// back to the content: xlsx files are zip archives, markup starts with "<".
func DetectFormat(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		return FormatXML, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return FormatXLSX, nil
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return FormatXML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot detect format of %q", filename)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks the input and resolves its format.
func (o *Options) ValidateForParse() error {
	if len(o.Input) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "input is empty")
	}
	if o.InputFormat == "" {
		f, err := DetectFormat(o.Filename, o.Input)
		if err != nil {
			return err
		}
		o.InputFormat = f
	}
	if err := ValidateFormat(o.InputFormat); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForRender checks the output options. An empty Format is valid
// and means no artifact is produced.
func (o *Options) ValidateForRender() error {
	if o.Format != "" {
		if err := ValidateFormat(o.Format); err != nil {
			return err
		}
	}
	if o.DefineVersion != "" {
		if err := ValidateDefineVersion(o.DefineVersion); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// InputHash returns the SHA-256 of the input.
func (o *Options) InputHash() string {
	return cache.Hash(o.Input)
}

// ReportKeyOpts returns cache key options for check reports.
func (o *Options) ReportKeyOpts() cache.ReportKeyOpts {
	return cache.ReportKeyOpts{
		InputFormat:       o.InputFormat,
		MergeSupplemental: o.MergeSupplemental,
	}
}

// ArtifactKeyOpts returns cache key options for rendered artifacts.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		InputFormat:       o.InputFormat,
		Format:            o.Format,
		DefineVersion:     o.DefineVersion,
		MergeSupplemental: o.MergeSupplemental,
		Stylesheet:        o.Stylesheet,
		OmitStylesheet:    o.OmitStylesheet,
		Language:          o.Language,
	}
}

// OutputDefineVersion returns the Define-XML version an export of a model
// with the given declared version is written as.
func (o *Options) OutputDefineVersion(declared string) string {
	switch {
	case o.DefineVersion != "":
		return o.DefineVersion
	case declared != "":
		return declared
	}
	return markup.DefineVersion21
}

// ExportOptions returns the markup writer options.
func (o *Options) ExportOptions() markup.ExportOptions {
	return markup.ExportOptions{
		Stylesheet:     o.Stylesheet,
		OmitStylesheet: o.OmitStylesheet,
		Language:       o.Language,
		Now:            o.Now,
	}
}

package cache

// Keyer derives cache keys. Implementations must return the same key for
// the same arguments and different keys whenever any argument differs.
type Keyer interface {
	// SourceKey is the key of a fetched remote input.
	SourceKey(uri string) string

	// ReportKey is the key of the diagnostics report for an input.
	ReportKey(inputHash string, opts ReportKeyOpts) string

	// ArtifactKey is the key of a serialized output for an input.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// ReportKeyOpts lists the options a check report depends on.
type ReportKeyOpts struct {
	InputFormat       string `json:"input_format"`
	MergeSupplemental bool   `json:"merge_supplemental"`
}

// ArtifactKeyOpts lists the options a serialized output depends on.
type ArtifactKeyOpts struct {
	InputFormat       string `json:"input_format"`
	Format            string `json:"format"`
	DefineVersion     string `json:"define_version,omitempty"`
	MergeSupplemental bool   `json:"merge_supplemental"`
	Stylesheet        string `json:"stylesheet,omitempty"`
	OmitStylesheet    bool   `json:"omit_stylesheet,omitempty"`
	Language          string `json:"language,omitempty"`
}

// DefaultKeyer hashes options into keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SourceKey returns "source:" followed by the URI. URIs are short and
// already unique, so they are not hashed.
func (DefaultKeyer) SourceKey(uri string) string {
	return "source:" + uri
}

// ReportKey hashes the input hash with the report options.
func (DefaultKeyer) ReportKey(inputHash string, opts ReportKeyOpts) string {
	return hashKey("report", inputHash, opts)
}

// ArtifactKey hashes the input hash with the artifact options.
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", inputHash, opts)
}

var _ Keyer = DefaultKeyer{}

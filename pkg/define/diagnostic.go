package define

import (
	"fmt"
	"strings"
)

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalText encodes the severity as its name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes "warning" or "error".
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Diagnostic is one problem found while binding, importing or normalizing.
// Sheet/Row/Column locate workbook problems (Row is 1-based and counts the
// header row); Path locates markup problems by element path.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Sheet    string   `json:"sheet,omitempty"`
	Row      int      `json:"row,omitempty"`
	Column   string   `json:"column,omitempty"`
	Path     string   `json:"path,omitempty"`
	Key      string   `json:"key,omitempty"`
	Message  string   `json:"message"`
}

// Warningf creates a warning diagnostic.
func Warningf(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// Errorf creates an error diagnostic.
func Errorf(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// At returns d located at a workbook cell.
func (d Diagnostic) At(sheet string, row int, column string) Diagnostic {
	d.Sheet, d.Row, d.Column = sheet, row, column
	return d
}

// AtPath returns d located at a markup element path.
func (d Diagnostic) AtPath(path string) Diagnostic {
	d.Path = path
	return d
}

// For returns d tagged with the key it concerns.
func (d Diagnostic) For(key string) Diagnostic {
	d.Key = key
	return d
}

// String formats the diagnostic as "severity: location: message".
func (d Diagnostic) String() string {
	var loc []string
	if d.Sheet != "" {
		loc = append(loc, d.Sheet)
	}
	if d.Row > 0 {
		loc = append(loc, fmt.Sprintf("row %d", d.Row))
	}
	if d.Column != "" {
		loc = append(loc, fmt.Sprintf("[%s]", d.Column))
	}
	if d.Path != "" {
		loc = append(loc, d.Path)
	}
	if len(loc) == 0 {
		return d.Severity.String() + ": " + d.Message
	}
	return d.Severity.String() + ": " + strings.Join(loc, " ") + ": " + d.Message
}

// Diagnostics is an append-only list of diagnostics.
type Diagnostics []Diagnostic

// Add appends diagnostics.
func (ds *Diagnostics) Add(d ...Diagnostic) { *ds = append(*ds, d...) }

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool { return ds.Count(SeverityError) > 0 }

// Count returns the number of diagnostics with the given severity.
func (ds Diagnostics) Count(s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Filter returns the diagnostics for which keep returns true.
func (ds Diagnostics) Filter(keep func(Diagnostic) bool) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// ForKey returns the diagnostics tagged with key.
func (ds Diagnostics) ForKey(key string) Diagnostics {
	return ds.Filter(func(d Diagnostic) bool { return d.Key == key })
}

// String renders one diagnostic per line.
func (ds Diagnostics) String() string {
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}

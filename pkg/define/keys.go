package define

import (
	"strings"

	"github.com/google/uuid"
)

// Derived keys. The workbook format names records by human-readable names and
// leaves the OIDs implicit; these functions turn names into OIDs the same way
// every time, so deriving a key twice from identical inputs yields the same
// record.

// fileNamespace seeds deterministic file OIDs.
var fileNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.cdisc.org/standards/data-exchange/define-xml"))

func join(prefix string, parts ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteByte('.')
		b.WriteString(p)
	}
	return b.String()
}

// DatasetOID derives an ItemGroupDef OID from a dataset name.
func DatasetOID(name string) string { return join("IG", name) }

// VariableOID derives an ItemDef OID from a dataset and variable name.
func VariableOID(dataset, variable string) string { return join("IT", dataset, variable) }

// ValueListOID derives the value list OID of a variable.
func ValueListOID(dataset, variable string) string { return join("VL", dataset, variable) }

// ValueOID derives the ItemDef OID of a value-level record.
func ValueOID(dataset, variable, key string) string { return join("IT", dataset, variable, key) }

// WhereClauseOID derives the where clause OID of a value-level record.
func WhereClauseOID(dataset, variable, key string) string {
	return join("WC", dataset, variable, key)
}

// StandardOID derives a standard OID from its name, version and publishing set.
func StandardOID(name, version, publishingSet string) string {
	return join("STD", name, publishingSet, version)
}

// MethodOID derives a method OID from the record that implicitly defines it.
func MethodOID(parts ...string) string { return join("MT", parts...) }

// CommentOID derives a comment OID from the record that implicitly defines it.
func CommentOID(parts ...string) string { return join("COM", parts...) }

// DisplayOID derives a result display OID from its name.
func DisplayOID(name string) string { return join("RD", name) }

// FileOID derives a stable file OID for a study and metadata version name.
// It is used when the source does not carry one.
func FileOID(studyName, versionName string) string {
	return "DEF." + uuid.NewSHA1(fileNamespace, []byte(studyName+"\x00"+versionName)).String()
}

// ValueKey builds the discriminating part of a value OID from the check
// values of its first condition.
func ValueKey(values []string) string {
	var parts []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, strings.ReplaceAll(v, " ", "_"))
		}
	}
	return strings.Join(parts, "_")
}

// normalizeYesNo maps yes/no spellings to "Yes"/"No" and leaves anything
// else as-is (trimmed).
func normalizeYesNo(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "yes", "y", "true":
		return "Yes"
	case "no", "n", "false":
		return "No"
	}
	return s
}

// YesNo normalizes a yes/no flag. ok is false for any other non-empty input.
func YesNo(s string) (string, bool) {
	v := normalizeYesNo(s)
	return v, v == "" || v == "Yes" || v == "No"
}

// ResultOID derives an analysis result OID from its display name and a
// per-display result identifier.
func ResultOID(display, id string) string { return join("AR", display, id) }

// StudyOID derives a study OID from the study name.
func StudyOID(name string) string { return join("ST", name) }

// MetaDataVersionOID derives a MetaDataVersion OID from the study name.
func MetaDataVersionOID(name string) string { return join("MDV", name) }

// LeafID derives the def:leaf ID of a dataset's archive location.
func LeafID(name string) string { return join("LF", name) }

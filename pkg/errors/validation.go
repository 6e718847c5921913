package errors

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// maxOIDLength bounds OIDs accepted from requests and CLI flags.
const maxOIDLength = 256

// oidRegex matches OIDs as they appear in Define-XML: no whitespace, no
// quotes or angle brackets.
var oidRegex = regexp.MustCompile(`^[^\s"'<>&]+$`)

// ValidateOID validates an OID passed in from outside (archive lookups,
// lineage roots). It does not apply to OIDs read from metadata files,
// which are kept as written.
func ValidateOID(oid string) error {
	if oid == "" {
		return New(ErrCodeInvalidOID, "OID cannot be empty")
	}
	if len(oid) > maxOIDLength {
		return New(ErrCodeInvalidOID, "OID too long (max %d characters)", maxOIDLength)
	}
	for _, r := range oid {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidOID, "OID contains invalid control characters")
		}
	}
	if !oidRegex.MatchString(oid) {
		return New(ErrCodeInvalidOID, "invalid OID: %q", oid)
	}
	return nil
}

// maxPathLength bounds object keys taken from s3:// URIs.
const maxPathLength = 500

// ValidatePath checks an object key taken from an s3:// URI before it is
// sent to the bucket. Keys must be relative, use forward slashes, contain
// no control characters and never step up with "..".
func ValidatePath(path string) error {
	var reason string
	switch {
	case path == "":
		reason = "path cannot be empty"
	case len(path) > maxPathLength:
		reason = fmt.Sprintf("path too long (max %d characters)", maxPathLength)
	case strings.IndexFunc(path, unicode.IsControl) >= 0:
		reason = "path contains control characters"
	case strings.HasPrefix(path, "/"):
		reason = "path must be relative"
	case strings.Contains(path, `\`):
		reason = "path cannot contain backslashes"
	case slices.Contains(strings.Split(path, "/"), ".."):
		reason = "path cannot step outside the bucket"
	default:
		return nil
	}
	return New(ErrCodeInvalidPath, "%s: %q", reason, path)
}

// ValidateURL validates a URL string against a set of allowed schemes
// (http and https when none are given).
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %s", strings.Join(schemes, ", "))
}

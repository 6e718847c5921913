package workbook

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
)

// Document references share one cell syntax across sheets:
//
//	LF.acrf                     the document as a whole
//	LF.acrf[12 14]              physical pages 12 and 14
//	LF.acrf[3-5]                physical pages 3 to 5
//	LF.sap[Section9]            a named destination
//	LF.acrf[12]; LF.sap         several references
//
// Page lists whose entries are not all numbers are named destinations.

func parseDocumentRefs(s string) ([]define.DocumentRef, error) {
	var out []define.DocumentRef
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ref, err := parseDocumentRef(part)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func parseDocumentRef(s string) (define.DocumentRef, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if strings.ContainsAny(s, "]") {
			return define.DocumentRef{}, fmt.Errorf("unbalanced brackets in %q", s)
		}
		return define.DocumentRef{DocumentID: s}, nil
	}
	if !strings.HasSuffix(s, "]") {
		return define.DocumentRef{}, fmt.Errorf("missing ] in %q", s)
	}
	ref := define.DocumentRef{DocumentID: strings.TrimSpace(s[:open])}
	if ref.DocumentID == "" {
		return define.DocumentRef{}, fmt.Errorf("missing document ID in %q", s)
	}
	pages := strings.TrimSpace(s[open+1 : len(s)-1])
	if pages == "" {
		return ref, nil
	}
	if first, last, ok := strings.Cut(pages, "-"); ok && isNumber(first) && isNumber(last) {
		ref.PageType = define.PageTypePhysical
		ref.FirstPage, ref.LastPage = strings.TrimSpace(first), strings.TrimSpace(last)
		return ref, nil
	}
	fields := strings.Fields(pages)
	ref.Pages = strings.Join(fields, " ")
	ref.PageType = define.PageTypePhysical
	for _, f := range fields {
		if !isNumber(f) {
			ref.PageType = define.PageTypeNamedDestination
			break
		}
	}
	return ref, nil
}

func formatDocumentRefs(refs []define.DocumentRef) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		switch {
		case r.FirstPage != "":
			last := r.LastPage
			if last == "" {
				last = r.FirstPage
			}
			parts = append(parts, r.DocumentID+"["+r.FirstPage+"-"+last+"]")
		case r.Pages != "":
			parts = append(parts, r.DocumentID+"["+r.Pages+"]")
		default:
			parts = append(parts, r.DocumentID)
		}
	}
	return strings.Join(parts, "; ")
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}

// splitList splits a comma-separated cell into trimmed, non-empty entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// whereValues splits a Where Value cell. A cell holding line breaks has one
// value per line. Otherwise only a list comparator, or a blank one left to be
// inferred, splits on commas; any other comparator takes the cell whole.
func whereValues(cell, cmp string) []string {
	if strings.Contains(cell, "\n") {
		var out []string
		for _, p := range strings.Split(cell, "\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	switch cmp {
	case "", define.ComparatorIN, define.ComparatorNOTIN:
		return splitList(cell)
	}
	if cell = strings.TrimSpace(cell); cell == "" {
		return nil
	}
	return []string{cell}
}

// joinWhereValues is the inverse of whereValues. Values holding a comma are
// written one per line, with a trailing break when a list comparator has a
// single value.
func joinWhereValues(cmp string, values []string) string {
	if !slices.ContainsFunc(values, func(v string) bool { return strings.Contains(v, ",") }) {
		return strings.Join(values, ", ")
	}
	s := strings.Join(values, "\n")
	if len(values) == 1 && (cmp == define.ComparatorIN || cmp == define.ComparatorNOTIN) {
		s += "\n"
	}
	return s
}

package workbook

import (
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
)

// rowBinder binds one data row of a sheet into the model.
type rowBinder func(im *importer, r *row)

var binders = map[string]rowBinder{
	SheetStudy:            bindStudy,
	SheetStandards:        bindStandard,
	SheetDocuments:        bindDocument,
	SheetComments:         bindComment,
	SheetMethods:          bindMethod,
	SheetCodelists:        bindCodelistTerm,
	SheetDictionaries:     bindDictionary,
	SheetDatasets:         bindDataset,
	SheetVariables:        bindVariable,
	SheetValueLevel:       bindValueLevel,
	SheetAnalysisDisplays: bindDisplay,
	SheetAnalysisResults:  bindResult,
	SheetAnalysisDatasets: bindAnalysisDataset,
}

// importer holds the state of one Import call.
type importer struct {
	m     *define.Model
	diags define.Diagnostics

	// Auto-created methods and comments by their text, so that the same
	// text is reused instead of derived again.
	methodByText  map[string]string
	commentByText map[string]string

	// Ordinal counters.
	datasetOrder  int
	varOrder      map[string]int // by dataset OID
	valueOrder    map[string]int // by dataset OID
	codelistOrder int
	termOrder     map[string]int // by codelist OID
	dictOrder     int
	docOrder      int
	displayOrder  int
	resultOrder   map[string]int // by display OID

	// Open repeat groups.
	value      *valueGroup
	result     *define.AnalysisResult
	resultSeen bool
}

// Import builds a model from the sheets of wb. Sheets are imported in
// [Schemas] order. A sheet that is missing or lacks a required column is
// reported as an error and skipped together with every sheet that depends on
// it; optional sheets may be absent without a diagnostic. Row problems skip
// the row and are reported with sheet, row and column.
func Import(wb *Workbook) (*define.Model, define.Diagnostics) {
	im := &importer{
		m:             define.New(),
		methodByText:  make(map[string]string),
		commentByText: make(map[string]string),
		varOrder:      make(map[string]int),
		valueOrder:    make(map[string]int),
		termOrder:     make(map[string]int),
		resultOrder:   make(map[string]int),
	}
	imported := make(map[string]bool)
	for _, s := range Schemas {
		if s.DependsOn != "" && !imported[s.DependsOn] {
			if _, present := wb.Sheet(s.Name); present || s.Required {
				im.diags.Add(define.Errorf("skipped because sheet %s was not imported", s.DependsOn).At(s.Name, 0, ""))
			}
			continue
		}
		imported[s.Name] = im.importSheet(wb, s)
	}
	if im.m.Study == nil && imported[SheetStudy] {
		im.diags.Add(define.Errorf("no study row").At(SheetStudy, 0, ""))
	}
	im.diags.Add(im.m.HealReferences()...)
	return im.m, im.diags
}

// Load reads an xlsx workbook from r and imports it. The error is non-nil
// when the file cannot be read or contains none of the known sheets.
func Load(r io.Reader) (*define.Model, define.Diagnostics, error) {
	wb, err := ReadWorkbook(r)
	if err != nil {
		return nil, nil, err
	}
	known := false
	for _, s := range Schemas {
		if _, ok := wb.Sheet(s.Name); ok {
			known = true
			break
		}
	}
	if !known {
		return nil, nil, errors.New(errors.ErrCodeMissingSheet, "workbook has none of the expected sheets")
	}
	m, diags := Import(wb)
	return m, diags, nil
}

// importSheet binds every row of one sheet and reports whether the sheet
// was structurally usable.
func (im *importer) importSheet(wb *Workbook, s Schema) bool {
	sh, ok := wb.Sheet(s.Name)
	if !ok {
		if s.Required {
			im.diags.Add(define.Errorf("missing sheet").At(s.Name, 0, ""))
		}
		return false
	}
	if len(sh.Rows) == 0 {
		im.diags.Add(define.Errorf("missing header row").At(s.Name, 1, ""))
		return false
	}
	idx, missing := columnIndex(s, sh.Rows[0])
	if len(missing) > 0 {
		for _, c := range missing {
			im.diags.Add(define.Errorf("missing required column").At(s.Name, 1, c))
		}
		return false
	}
	bind := binders[s.Name]
	im.value, im.result, im.resultSeen = nil, nil, false
	for _, r := range sh.rows(idx) {
		r.sheet = s.Name
		bind(im, r)
	}
	return true
}

func (im *importer) add(d ...define.Diagnostic) { im.diags.Add(d...) }

// ordinal parses a positive integer column, falling back to counter+1.
func (im *importer) ordinal(r *row, col string, counter int) int {
	raw := r.get(col)
	if raw == "" {
		return counter + 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		im.add(r.warnf(col, "%q is not a positive integer; using %d", raw, counter+1))
		return counter + 1
	}
	return n
}

// optionalInt parses an optional positive integer column; 0 means absent.
func (im *importer) optionalInt(r *row, col string) int {
	raw := r.get(col)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		im.add(r.warnf(col, "%q is not a positive integer; ignored", raw))
		return 0
	}
	return n
}

// number returns a non-negative integer column as text, or "" with a warning.
func (im *importer) number(r *row, col string) string {
	raw := r.get(col)
	if raw == "" {
		return ""
	}
	if n, err := strconv.Atoi(raw); err != nil || n < 0 {
		im.add(r.warnf(col, "%q is not an integer; ignored", raw))
		return ""
	}
	return raw
}

// yesNo returns a Yes/No column normalized, or "" with a warning.
func (im *importer) yesNo(r *row, col string) string {
	v, ok := define.YesNo(r.get(col))
	if !ok {
		im.add(r.warnf(col, "%q is not Yes or No; ignored", r.get(col)))
		return ""
	}
	return v
}

func (im *importer) documentRefs(r *row, col string) []define.DocumentRef {
	refs, err := parseDocumentRefs(r.get(col))
	if err != nil {
		im.add(r.warnf(col, "%v; ignored", err))
		return nil
	}
	return refs
}

// explicitOrText applies the precedence between an explicit key column and a
// free-text column that would create a record. It returns the explicit key,
// or "" and the text when only the text is given.
func (im *importer) explicitOrText(r *row, keyCol, textCol string) (key, text string) {
	key, text = r.get(keyCol), r.get(textCol)
	if key != "" && text != "" {
		im.add(r.warnf(textCol, "both %s and %s are given; %s ignored", keyCol, textCol, textCol))
		return key, ""
	}
	return key, text
}

// commentRef resolves the comment of a row: an explicit Comment OID, or a
// comment created from the Comment text under a derived key.
func (im *importer) commentRef(r *row, keyCol, textCol string, derive func() string) string {
	oid, text := im.explicitOrText(r, keyCol, textCol)
	if oid != "" || text == "" {
		return oid
	}
	if existing, ok := im.commentByText[text]; ok {
		return existing
	}
	oid = derive()
	if c, ok := im.m.Comments.Get(oid); ok {
		if c.Description == text {
			return oid
		}
		im.add(r.warnf(textCol, "comment %s already exists with different text; ignored", oid).For(oid))
		return ""
	}
	_ = im.m.Comments.Insert(oid, &define.Comment{OID: oid, Description: text})
	im.commentByText[text] = oid
	return oid
}

// methodRef is commentRef for methods. name labels a newly created method.
func (im *importer) methodRef(r *row, derive func() string, name string) string {
	oid, text := im.explicitOrText(r, colMethodOID, colMethod)
	if oid != "" || text == "" {
		return oid
	}
	if existing, ok := im.methodByText[text]; ok {
		return existing
	}
	oid = derive()
	if mt, ok := im.m.Methods.Get(oid); ok {
		if mt.Description == text {
			return oid
		}
		im.add(r.warnf(colMethod, "method %s already exists with different text; ignored", oid).For(oid))
		return ""
	}
	_ = im.m.Methods.Insert(oid, &define.Method{
		OID:         oid,
		Name:        name,
		Type:        "Computation",
		Description: text,
	})
	im.methodByText[text] = oid
	return oid
}

// duplicate reports a row whose derived key is already taken.
func (im *importer) duplicate(r *row, col, what, key string) {
	im.add(r.warnf(col, "duplicate %s %s; row ignored", what, key).For(key))
}

// itemFields reads the descriptive columns shared by Variables and ValueLevel.
func (im *importer) itemFields(r *row, name string) define.Item {
	it := define.Item{
		Name:              name,
		Label:             r.get(colLabel),
		DataType:          r.get(colDataType),
		Length:            im.number(r, colLength),
		SignificantDigits: im.number(r, colSignificantDigits),
		DisplayFormat:     r.get(colFormat),
		Mandatory:         im.yesNo(r, colMandatory),
		CodelistOID:       r.get(colCodelist),
		Origin: define.Origin{
			Type:         r.get(colOrigin),
			Source:       r.get(colSource),
			Description:  r.get(colOriginDescription),
			DocumentRefs: im.documentRefs(r, colOriginDocuments),
		},
	}
	if len(name) <= 8 {
		it.SASFieldName = strings.ToUpper(name)
	}
	return it
}

package workbook

import (
	"strconv"
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
)

// sheetWriter fills one sheet in its schema's column order.
type sheetWriter struct {
	schema Schema
	pos    map[string]int
	sheet  *Sheet
}

func newSheetWriter(s Schema) *sheetWriter {
	pos := make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		pos[c.Name] = i
	}
	return &sheetWriter{
		schema: s,
		pos:    pos,
		sheet:  &Sheet{Name: s.Name, Rows: [][]string{s.Header()}},
	}
}

// add appends a row from column/value pairs. Unknown columns are ignored.
func (w *sheetWriter) add(pairs ...string) {
	row := make([]string, len(w.schema.Columns))
	for i := 0; i+1 < len(pairs); i += 2 {
		if j, ok := w.pos[pairs[i]]; ok {
			row[j] = pairs[i+1]
		}
	}
	w.sheet.Rows = append(w.sheet.Rows, row)
}

func itoa(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func yes(b bool) string {
	if b {
		return "Yes"
	}
	return ""
}

// Rows maps a model to one sheet per schema, each starting with its header
// row. ValueLevel writes one row per condition; the value's columns are only
// filled on the first row of its group. Analysis Datasets writes one row per
// analysis dataset with the Result ID only on a result's first row.
func Rows(m *define.Model) []*Sheet {
	w := make(map[string]*sheetWriter, len(Schemas))
	for _, s := range Schemas {
		w[s.Name] = newSheetWriter(s)
	}

	if s := m.Study; s != nil {
		w[SheetStudy].add(
			colStudyName, s.Name,
			colStudyDescription, s.Description,
			colProtocolName, s.ProtocolName,
			colLanguage, s.Language,
			colDefineVersion, s.DefineVersion,
			colVersionName, s.VersionName,
			colVersionDescription, s.VersionDesc,
			colStudyOID, s.OID,
			colMetaDataVersionOID, s.MetaDataVersion,
			colFileOID, s.FileOID,
			colFileType, s.FileType,
			colOriginator, s.Originator,
			colContext, s.Context,
			colCreationDateTime, s.CreationDateTime,
			colCommentOID, s.CommentOID,
		)
	}
	for _, s := range m.Standards.All() {
		w[SheetStandards].add(
			colOID, s.OID,
			colName, s.Name,
			colType, s.Type,
			colPublishingSet, s.PublishingSet,
			colVersion, s.Version,
			colStatus, s.Status,
			colCommentOID, s.CommentOID,
		)
	}
	for _, d := range m.DocumentsByOrdinal() {
		kind := string(d.Kind)
		if kind == "" {
			kind = string(define.DocumentOther)
		}
		w[SheetDocuments].add(colID, d.ID, colType, kind, colTitle, d.Title, colHref, d.Href)
	}
	for _, c := range m.Comments.All() {
		w[SheetComments].add(
			colID, c.OID,
			colDescription, c.Description,
			colDocuments, formatDocumentRefs(c.DocumentRefs),
		)
	}
	for _, mt := range m.Methods.All() {
		w[SheetMethods].add(
			colID, mt.OID,
			colName, mt.Name,
			colType, mt.Type,
			colDescription, mt.Description,
			colExpressionContext, mt.ExpressionContext,
			colExpressionCode, mt.ExpressionCode,
			colDocuments, formatDocumentRefs(mt.DocumentRefs),
		)
	}
	writeCodelists(m, w[SheetCodelists])
	for _, d := range m.DictionariesByOrdinal() {
		w[SheetDictionaries].add(
			colID, d.OID,
			colName, d.Name,
			colDataType, d.DataType,
			colDictionary, d.Dictionary,
			colVersion, d.Version,
			colRef, d.Ref,
			colHref, d.Href,
		)
	}
	for _, d := range m.DatasetsByOrdinal() {
		w[SheetDatasets].add(
			colDataset, d.Name,
			colDescription, d.Description,
			colDomain, d.Domain,
			colClass, d.Class,
			colSubClass, d.SubClass,
			colStructure, d.Structure,
			colPurpose, d.Purpose,
			colRepeating, d.Repeating,
			colReferenceData, d.IsReferenceData,
			colHasNoData, d.HasNoData.String(),
			colStandard, d.StandardOID,
			colLocation, d.Location,
			colLocationTitle, d.LocationTitle,
			colCommentOID, d.CommentOID,
		)
		for _, v := range m.VariablesOf(d.OID) {
			w[SheetVariables].add(append(
				itemPairs(&v.Item),
				colDataset, d.Name,
				colVariable, v.Name,
				colOID, v.OID,
				colOrder, itoa(v.Ordinal),
				colKeySequence, v.KeySequence,
				colRole, v.Role,
			)...)
		}
	}
	writeValueLevel(m, w[SheetValueLevel])
	writeAnalysis(m, w)

	out := make([]*Sheet, len(Schemas))
	for i, s := range Schemas {
		out[i] = w[s.Name].sheet
	}
	return out
}

// ToWorkbook wraps [Rows] in a Workbook.
func ToWorkbook(m *define.Model) *Workbook {
	return &Workbook{Sheets: Rows(m)}
}

func itemPairs(it *define.Item) []string {
	return []string{
		colLabel, it.Label,
		colDataType, it.DataType,
		colLength, it.Length,
		colSignificantDigits, it.SignificantDigits,
		colFormat, it.DisplayFormat,
		colMandatory, it.Mandatory,
		colCodelist, it.CodelistOID,
		colOrigin, it.Origin.Type,
		colSource, it.Origin.Source,
		colOriginDescription, it.Origin.Description,
		colOriginDocuments, formatDocumentRefs(it.Origin.DocumentRefs),
		colMethodOID, it.MethodOID,
		colCommentOID, it.CommentOID,
	}
}

// writeCodelists writes one row per term, repeating the codelist columns.
// A codelist without terms gets one row without a term.
func writeCodelists(m *define.Model, w *sheetWriter) {
	for _, cl := range m.CodelistsByOrdinal() {
		head := []string{
			colID, cl.OID,
			colName, cl.Name,
			colDataType, cl.DataType,
			colStandard, cl.StandardOID,
			colNonStandard, cl.IsNonStandard,
			colCode, cl.Code,
			colCommentOID, cl.CommentOID,
		}
		items := m.ItemsOf(cl.OID)
		if len(items) == 0 {
			w.add(head...)
			continue
		}
		for _, it := range items {
			w.add(append(head,
				colOrder, itoa(it.Order),
				colTerm, it.Value,
				colTermCode, it.Code,
				colDecodedValue, it.Decode,
				colExtended, yes(it.Extended),
				colRank, itoa(it.Rank),
			)...)
		}
	}
}

// writeValueLevel writes the values of each variable in value list order.
// A where clause is written with its conditions the first time and as a bare
// reference after that.
func writeValueLevel(m *define.Model, w *sheetWriter) {
	written := make(map[string]bool)
	for _, d := range m.DatasetsByOrdinal() {
		for _, parent := range m.VariablesOf(d.OID) {
			vl, ok := m.ValueLists.Get(parent.ValueListOID)
			if !ok {
				continue
			}
			for _, oid := range vl.ValueOIDs {
				v, ok := m.Values.Get(oid)
				if !ok {
					continue
				}
				head := append(itemPairs(&v.Item),
					colDataset, d.Name,
					colVariable, parent.Name,
					colOID, v.OID,
					colOrder, itoa(v.Ordinal),
				)
				rows := conditionRows(m, d, v, written)
				if len(rows) == 0 {
					w.add(head...)
					continue
				}
				w.add(append(head, rows[0]...)...)
				for _, r := range rows[1:] {
					w.add(r...)
				}
			}
		}
	}
}

func conditionRows(m *define.Model, d *define.Dataset, v *define.Value, written map[string]bool) [][]string {
	var rows [][]string
	for _, oid := range v.WhereClauseOIDs {
		wc, ok := m.WhereClauses.Get(oid)
		if !ok {
			continue
		}
		if written[oid] || len(wc.Conditions) == 0 {
			rows = append(rows, []string{colWhereClauseOID, oid})
			continue
		}
		written[oid] = true
		for i, c := range wc.Conditions {
			r := []string{
				colWhereVariable, itemName(m, d, c.ItemOID),
				colComparator, c.Comparator,
				colWhereValue, joinWhereValues(c.Comparator, c.Values),
			}
			if i == 0 {
				r = append(r, colWhereClauseOID, oid)
			}
			rows = append(rows, r)
		}
	}
	return rows
}

// itemName returns the variable name of an item OID within a dataset, or
// the OID when the item belongs elsewhere.
func itemName(m *define.Model, d *define.Dataset, oid string) string {
	for _, v := range m.VariablesOf(d.OID) {
		if v.OID == oid {
			return v.Name
		}
	}
	return oid
}

func writeAnalysis(m *define.Model, w map[string]*sheetWriter) {
	for _, d := range m.DisplaysByOrdinal() {
		w[SheetAnalysisDisplays].add(
			colID, d.OID,
			colDisplayName, d.Name,
			colDescription, d.Description,
			colDocuments, formatDocumentRefs(d.DocumentRefs),
		)
		for _, r := range m.ResultsOf(d.OID) {
			w[SheetAnalysisResults].add(
				colDisplayName, d.Name,
				colID, r.OID,
				colDescription, r.Description,
				colReason, r.Reason,
				colPurposeARM, r.Purpose,
				colParameterOID, r.ParameterOID,
				colDatasetsCommentOID, r.DatasetsCommentOID,
				colDocumentation, r.Documentation,
				colDocumentationRefs, formatDocumentRefs(r.DocumentationRefs),
				colProgrammingContext, r.ProgrammingContext,
				colProgrammingCode, r.ProgrammingCode,
				colProgrammingRefs, formatDocumentRefs(r.ProgrammingRefs),
			)
			resultID := r.OID
			for _, ad := range r.Datasets {
				ds, ok := m.Datasets.Get(ad.DatasetOID)
				if !ok {
					continue
				}
				names := make([]string, len(ad.VariableOIDs))
				for j, oid := range ad.VariableOIDs {
					names[j] = itemName(m, ds, oid)
				}
				w[SheetAnalysisDatasets].add(
					colResultID, resultID,
					colDataset, ds.Name,
					colWhereClauseOID, ad.WhereClauseOID,
					colVariables, strings.Join(names, ", "),
				)
				resultID = ""
			}
		}
	}
}

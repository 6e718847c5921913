package define

import (
	"cmp"
	"slices"
)

// HasNoData is the tri-state "dataset has no data" flag. Define-XML only
// writes the attribute when it is Yes, but workbooks can say No explicitly.
type HasNoData int

const (
	HasNoDataUnset HasNoData = iota
	HasNoDataYes
	HasNoDataNo
)

// ParseHasNoData maps "Yes"/"No" (any case) to a flag. The empty string is
// HasNoDataUnset. ok is false for any other input.
func ParseHasNoData(s string) (h HasNoData, ok bool) {
	switch normalizeYesNo(s) {
	case "":
		return HasNoDataUnset, true
	case "Yes":
		return HasNoDataYes, true
	case "No":
		return HasNoDataNo, true
	}
	return HasNoDataUnset, false
}

// String returns "Yes", "No" or "".
func (h HasNoData) String() string {
	switch h {
	case HasNoDataYes:
		return "Yes"
	case HasNoDataNo:
		return "No"
	}
	return ""
}

// DocumentKind classifies a def:leaf by where it is listed.
type DocumentKind string

const (
	DocumentAnnotatedCRF DocumentKind = "AnnotatedCRF"
	DocumentSupplemental DocumentKind = "Supplemental"
	DocumentOther        DocumentKind = "Other"
)

// Page reference types.
const (
	PageTypePhysical         = "PhysicalRef"
	PageTypeNamedDestination = "NamedDestination"
)

// DocumentRef points into a Document, optionally at specific pages.
// Pages holds a space-separated page list; FirstPage/LastPage a range.
type DocumentRef struct {
	DocumentID string
	PageType   string
	Pages      string
	FirstPage  string
	LastPage   string
}

// Study is the per-model singleton describing the file, the study and the
// metadata version.
type Study struct {
	FileOID             string
	FileType            string
	Originator          string
	SourceSystem        string
	SourceSystemVersion string
	Context             string
	CreationDateTime    string

	OID             string
	Name            string
	Description     string
	ProtocolName    string
	Language        string
	MetaDataVersion string // MetaDataVersion OID
	VersionName     string
	VersionDesc     string
	DefineVersion   string
	CommentOID      string
}

// Standard is an implementation guide or controlled terminology package.
type Standard struct {
	OID           string
	Name          string
	Type          string // "IG" or "CT"
	PublishingSet string
	Version       string
	Status        string
	CommentOID    string
}

// Document is a def:leaf: an external file referenced by the metadata.
type Document struct {
	ID      string
	Kind    DocumentKind
	Href    string
	Title   string
	Ordinal int
}

// Dataset is an ItemGroupDef.
type Dataset struct {
	OID             string
	Name            string
	Domain          string
	SASDatasetName  string
	Description     string
	Structure       string
	Class           string
	SubClass        string
	Purpose         string
	Repeating       string
	IsReferenceData string
	HasNoData       HasNoData
	StandardOID     string
	CommentOID      string

	// ArchiveLocationID names the dataset's own def:leaf; Location and
	// LocationTitle are its href and title.
	ArchiveLocationID string
	Location          string
	LocationTitle     string

	// HasSupplemental is set by normalization when a SUPP dataset was merged in.
	HasSupplemental bool
	Ordinal         int
}

// Origin describes where an item's values come from.
type Origin struct {
	Type         string
	Source       string
	Description  string
	DocumentRefs []DocumentRef
}

// Item holds the descriptive attributes shared by variables and
// value-level metadata (an ItemDef plus the ItemRef that uses it).
type Item struct {
	Name              string
	Label             string
	DataType          string
	Length            string
	SignificantDigits string
	DisplayFormat     string
	SASFieldName      string
	Mandatory         string
	Role              string
	CodelistOID       string
	MethodOID         string
	CommentOID        string
	Origin            Origin
}

// VariableKey identifies a variable within a dataset. The same item OID may
// be shared by several datasets (IT.STUDYID), so the dataset is part of the key.
type VariableKey struct {
	Dataset string // dataset OID
	OID     string // item OID
}

// Variable is an ItemRef in an ItemGroupDef together with its ItemDef.
type Variable struct {
	Dataset string
	OID     string
	Item

	KeySequence  string
	ValueListOID string

	IsSupplemental bool
	Common         bool
	// Values is the resolved value list, filled in by normalization.
	Values  []string
	Ordinal int
}

// Key returns the variable's table key.
func (v *Variable) Key() VariableKey { return VariableKey{Dataset: v.Dataset, OID: v.OID} }

// ValueList is a def:ValueListDef: the ordered value OIDs refining one variable.
type ValueList struct {
	OID       string
	ValueOIDs []string
}

// Value is a value-level metadata record.
type Value struct {
	OID string
	// Dataset and Variable (dataset OID and item OID) are filled in by
	// value-level linkage; the markup only links values through value lists.
	Dataset  string
	Variable string
	Item

	WhereClauseOIDs []string
	Ordinal         int
}

// Comparators allowed in a Condition.
const (
	ComparatorEQ    = "EQ"
	ComparatorNE    = "NE"
	ComparatorLT    = "LT"
	ComparatorLE    = "LE"
	ComparatorGT    = "GT"
	ComparatorGE    = "GE"
	ComparatorIN    = "IN"
	ComparatorNOTIN = "NOTIN"
)

// IsComparator reports whether s is one of the Define-XML range check comparators.
func IsComparator(s string) bool {
	switch s {
	case ComparatorEQ, ComparatorNE, ComparatorLT, ComparatorLE,
		ComparatorGT, ComparatorGE, ComparatorIN, ComparatorNOTIN:
		return true
	}
	return false
}

// Condition is one RangeCheck of a where clause.
type Condition struct {
	ItemOID    string
	Comparator string
	Values     []string
	SoftHard   string
}

// WhereClause scopes when a Value applies.
type WhereClause struct {
	OID        string
	Conditions []Condition
	CommentOID string
}

// Codelist is a CodeList with enumerated or coded items.
type Codelist struct {
	OID           string
	Name          string
	DataType      string
	StandardOID   string
	IsNonStandard string
	Code          string // NCI codelist code
	CommentOID    string
	Ordinal       int
}

// CodelistItemKey identifies a term within a codelist.
type CodelistItemKey struct {
	Codelist string
	Value    string
}

// CodelistItem is a CodeListItem or EnumeratedItem.
type CodelistItem struct {
	Codelist   string
	Value      string
	Code       string
	Decode     string
	Language   string
	Rank       int // 0 when absent
	Order      int
	Extended   bool
	Enumerated bool
}

// Key returns the item's table key.
func (c *CodelistItem) Key() CodelistItemKey {
	return CodelistItemKey{Codelist: c.Codelist, Value: c.Value}
}

// Dictionary is a CodeList that refers to an external dictionary
// (MedDRA, WHODrug, ...). It shares the OID namespace with codelists.
type Dictionary struct {
	OID        string
	Name       string
	DataType   string
	Dictionary string
	Version    string
	Ref        string
	Href       string
	Ordinal    int
}

// Method is a computational algorithm or derivation.
type Method struct {
	OID               string
	Name              string
	Type              string
	Description       string
	ExpressionContext string
	ExpressionCode    string
	DocumentRefs      []DocumentRef
}

// Comment is free text attached to other records.
type Comment struct {
	OID          string
	Description  string
	DocumentRefs []DocumentRef
}

// ResultDisplay is the first level of the analysis results chain: a table,
// figure or listing.
type ResultDisplay struct {
	OID          string
	Name         string
	Description  string
	DocumentRefs []DocumentRef
	Ordinal      int
}

// AnalysisResult is one statistical result of a display.
type AnalysisResult struct {
	OID          string
	DisplayOID   string
	ParameterOID string
	Reason       string
	Purpose      string
	Description  string

	DatasetsCommentOID string
	Datasets           []AnalysisDataset

	Documentation     string
	DocumentationRefs []DocumentRef

	ProgrammingContext string
	ProgrammingCode    string
	ProgrammingRefs    []DocumentRef

	Ordinal int
}

// AnalysisDataset is the last level of the chain: the dataset, variables and
// where clause a result depends on.
type AnalysisDataset struct {
	DatasetOID     string
	WhereClauseOID string
	VariableOIDs   []string
}

// Model is the complete metadata graph. Use [New] to create one.
type Model struct {
	Study *Study

	Standards     *Table[string, Standard]
	Documents     *Table[string, Document]
	Datasets      *Table[string, Dataset]
	Variables     *Table[VariableKey, Variable]
	ValueLists    *Table[string, ValueList]
	Values        *Table[string, Value]
	WhereClauses  *Table[string, WhereClause]
	Codelists     *Table[string, Codelist]
	CodelistItems *Table[CodelistItemKey, CodelistItem]
	Dictionaries  *Table[string, Dictionary]
	Methods       *Table[string, Method]
	Comments      *Table[string, Comment]
	Displays      *Table[string, ResultDisplay]
	Results       *Table[string, AnalysisResult]
}

// New creates an empty model without a Study.
func New() *Model {
	return &Model{
		Standards:     NewTable[string, Standard](),
		Documents:     NewTable[string, Document](),
		Datasets:      NewTable[string, Dataset](),
		Variables:     NewTable[VariableKey, Variable](),
		ValueLists:    NewTable[string, ValueList](),
		Values:        NewTable[string, Value](),
		WhereClauses:  NewTable[string, WhereClause](),
		Codelists:     NewTable[string, Codelist](),
		CodelistItems: NewTable[CodelistItemKey, CodelistItem](),
		Dictionaries:  NewTable[string, Dictionary](),
		Methods:       NewTable[string, Method](),
		Comments:      NewTable[string, Comment](),
		Displays:      NewTable[string, ResultDisplay](),
		Results:       NewTable[string, AnalysisResult](),
	}
}

// byOrdinal sorts records by ordinal, keeping the incoming order for ties.
// Records with ordinal 0 (not yet assigned) go last.
func byOrdinal[T any](items []*T, ordinal func(*T) int) []*T {
	slices.SortStableFunc(items, func(a, b *T) int {
		oa, ob := ordinal(a), ordinal(b)
		switch {
		case oa == ob:
			return 0
		case oa == 0:
			return 1
		case ob == 0:
			return -1
		}
		return cmp.Compare(oa, ob)
	})
	return items
}

// DatasetsByOrdinal returns all datasets in ordinal order.
func (m *Model) DatasetsByOrdinal() []*Dataset {
	return byOrdinal(m.Datasets.All(), func(d *Dataset) int { return d.Ordinal })
}

// DatasetByName finds a dataset by its name.
func (m *Model) DatasetByName(name string) (*Dataset, bool) {
	for _, d := range m.Datasets.All() {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// VariablesOf returns the variables of a dataset in ordinal order.
func (m *Model) VariablesOf(datasetOID string) []*Variable {
	var out []*Variable
	for _, v := range m.Variables.All() {
		if v.Dataset == datasetOID {
			out = append(out, v)
		}
	}
	return byOrdinal(out, func(v *Variable) int { return v.Ordinal })
}

// VariableByName finds a variable of a dataset by its name.
func (m *Model) VariableByName(datasetOID, name string) (*Variable, bool) {
	for _, v := range m.Variables.All() {
		if v.Dataset == datasetOID && v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// VariablesByOID returns every variable that uses the given item OID,
// across all datasets, in insertion order.
func (m *Model) VariablesByOID(oid string) []*Variable {
	var out []*Variable
	for _, v := range m.Variables.All() {
		if v.OID == oid {
			out = append(out, v)
		}
	}
	return out
}

// ValuesOf returns the value-level records linked to a dataset in ordinal order.
func (m *Model) ValuesOf(datasetOID string) []*Value {
	var out []*Value
	for _, v := range m.Values.All() {
		if v.Dataset == datasetOID {
			out = append(out, v)
		}
	}
	return byOrdinal(out, func(v *Value) int { return v.Ordinal })
}

// CodelistsByOrdinal returns all codelists in ordinal order.
func (m *Model) CodelistsByOrdinal() []*Codelist {
	return byOrdinal(m.Codelists.All(), func(c *Codelist) int { return c.Ordinal })
}

// DictionariesByOrdinal returns all dictionaries in ordinal order.
func (m *Model) DictionariesByOrdinal() []*Dictionary {
	return byOrdinal(m.Dictionaries.All(), func(d *Dictionary) int { return d.Ordinal })
}

// ItemsOf returns the terms of a codelist by order.
func (m *Model) ItemsOf(codelistOID string) []*CodelistItem {
	var out []*CodelistItem
	for _, it := range m.CodelistItems.All() {
		if it.Codelist == codelistOID {
			out = append(out, it)
		}
	}
	return byOrdinal(out, func(it *CodelistItem) int { return it.Order })
}

// DocumentsByOrdinal returns all documents in ordinal order.
func (m *Model) DocumentsByOrdinal() []*Document {
	return byOrdinal(m.Documents.All(), func(d *Document) int { return d.Ordinal })
}

// DisplaysByOrdinal returns all result displays in ordinal order.
func (m *Model) DisplaysByOrdinal() []*ResultDisplay {
	return byOrdinal(m.Displays.All(), func(d *ResultDisplay) int { return d.Ordinal })
}

// ResultsOf returns the results of a display in ordinal order.
func (m *Model) ResultsOf(displayOID string) []*AnalysisResult {
	var out []*AnalysisResult
	for _, r := range m.Results.All() {
		if r.DisplayOID == displayOID {
			out = append(out, r)
		}
	}
	return byOrdinal(out, func(r *AnalysisResult) int { return r.Ordinal })
}

// HasCodelist reports whether oid names a codelist or a dictionary.
func (m *Model) HasCodelist(oid string) bool {
	return m.Codelists.Has(oid) || m.Dictionaries.Has(oid)
}

// HasItem reports whether oid is used by any variable or value.
func (m *Model) HasItem(oid string) bool {
	if m.Values.Has(oid) {
		return true
	}
	return len(m.VariablesByOID(oid)) > 0
}

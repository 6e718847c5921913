package workbook

import (
	"strings"
	"unicode"
)

// Sheet names.
const (
	SheetStudy            = "Study"
	SheetStandards        = "Standards"
	SheetDocuments        = "Documents"
	SheetComments         = "Comments"
	SheetMethods          = "Methods"
	SheetCodelists        = "Codelists"
	SheetDictionaries     = "Dictionaries"
	SheetDatasets         = "Datasets"
	SheetVariables        = "Variables"
	SheetValueLevel       = "ValueLevel"
	SheetAnalysisDisplays = "Analysis Displays"
	SheetAnalysisResults  = "Analysis Results"
	SheetAnalysisDatasets = "Analysis Datasets"
)

// Column names. Several sheets share a column name; the meaning follows the
// sheet.
const (
	colID                 = "ID"
	colOID                = "OID"
	colName               = "Name"
	colType               = "Type"
	colDescription        = "Description"
	colDocuments          = "Documents"
	colDataType           = "Data Type"
	colOrder              = "Order"
	colCommentOID         = "Comment OID"
	colComment            = "Comment"
	colMethodOID          = "Method OID"
	colMethod             = "Method"
	colStandard           = "Standard"
	colTitle              = "Title"
	colHref               = "Href"
	colStudyName          = "Study Name"
	colStudyDescription   = "Study Description"
	colProtocolName       = "Protocol Name"
	colLanguage           = "Language"
	colDefineVersion      = "Define Version"
	colVersionName        = "Version Name"
	colVersionDescription = "Version Description"
	colStudyOID           = "Study OID"
	colMetaDataVersionOID = "MetaDataVersion OID"
	colFileOID            = "File OID"
	colFileType           = "File Type"
	colOriginator         = "Originator"
	colContext            = "Context"
	colCreationDateTime   = "Creation DateTime"
	colPublishingSet      = "Publishing Set"
	colVersion            = "Version"
	colStatus             = "Status"
	colDataset            = "Dataset"
	colDomain             = "Domain"
	colClass              = "Class"
	colSubClass           = "Sub Class"
	colStructure          = "Structure"
	colPurpose            = "Purpose"
	colRepeating          = "Repeating"
	colReferenceData      = "Reference Data"
	colHasNoData          = "Has No Data"
	colLocation           = "Location"
	colLocationTitle      = "Location Title"
	colVariable           = "Variable"
	colLabel              = "Label"
	colLength             = "Length"
	colSignificantDigits  = "Significant Digits"
	colFormat             = "Format"
	colMandatory          = "Mandatory"
	colKeySequence        = "Key Sequence"
	colRole               = "Role"
	colCodelist           = "Codelist"
	colOrigin             = "Origin"
	colSource             = "Source"
	colOriginDescription  = "Origin Description"
	colOriginDocuments    = "Origin Documents"
	colWhereClauseOID     = "Where Clause OID"
	colWhereVariable      = "Where Variable"
	colComparator         = "Comparator"
	colWhereValue         = "Where Value"
	colNonStandard        = "Non Standard"
	colCode               = "Code"
	colTerm               = "Term"
	colTermCode           = "Term Code"
	colDecodedValue       = "Decoded Value"
	colExtended           = "Extended"
	colRank               = "Rank"
	colDictionary         = "Dictionary"
	colRef                = "Ref"
	colExpressionContext  = "Expression Context"
	colExpressionCode     = "Expression Code"
	colDisplayName        = "Display Name"
	colReason             = "Analysis Reason"
	colPurposeARM         = "Analysis Purpose"
	colParameterOID       = "Parameter OID"
	colDatasetsCommentOID = "Datasets Comment OID"
	colDocumentation      = "Documentation"
	colDocumentationRefs  = "Documentation Documents"
	colProgrammingContext = "Programming Context"
	colProgrammingCode    = "Programming Code"
	colProgrammingRefs    = "Programming Documents"
	colResultID           = "Result ID"
	colVariables          = "Variables"
)

// Column is one header of a sheet schema.
type Column struct {
	Name     string
	Required bool
}

// Schema describes one sheet: its columns in writing order, whether the
// sheet must be present, and the sheet it depends on.
type Schema struct {
	Name      string
	Columns   []Column
	Required  bool
	DependsOn string
}

func req(name string) Column { return Column{Name: name, Required: true} }
func opt(name string) Column { return Column{Name: name} }

// itemColumns are the descriptive columns shared by Variables and ValueLevel.
func itemColumns() []Column {
	return []Column{
		opt(colLabel), opt(colDataType), opt(colLength), opt(colSignificantDigits),
		opt(colFormat), opt(colMandatory),
	}
}

func originColumns() []Column {
	return []Column{
		opt(colCodelist), opt(colOrigin), opt(colSource), opt(colOriginDescription),
		opt(colOriginDocuments), opt(colMethodOID), opt(colMethod),
		opt(colCommentOID), opt(colComment),
	}
}

func concat(parts ...[]Column) []Column {
	var out []Column
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Schemas lists every sheet in import and writing order. A sheet is always
// listed after the sheet it depends on.
var Schemas = []Schema{
	{
		Name:     SheetStudy,
		Required: true,
		Columns: []Column{
			req(colStudyName), opt(colStudyDescription), opt(colProtocolName),
			opt(colLanguage), opt(colDefineVersion), opt(colVersionName),
			opt(colVersionDescription), opt(colStudyOID), opt(colMetaDataVersionOID),
			opt(colFileOID), opt(colFileType), opt(colOriginator), opt(colContext),
			opt(colCreationDateTime), opt(colCommentOID), opt(colComment),
		},
	},
	{
		Name: SheetStandards,
		Columns: []Column{
			opt(colOID), req(colName), req(colType), opt(colPublishingSet),
			req(colVersion), opt(colStatus), opt(colCommentOID),
		},
	},
	{
		Name:    SheetDocuments,
		Columns: []Column{req(colID), opt(colType), opt(colTitle), req(colHref)},
	},
	{
		Name:    SheetComments,
		Columns: []Column{req(colID), req(colDescription), opt(colDocuments)},
	},
	{
		Name: SheetMethods,
		Columns: []Column{
			req(colID), opt(colName), opt(colType), req(colDescription),
			opt(colExpressionContext), opt(colExpressionCode), opt(colDocuments),
		},
	},
	{
		Name: SheetCodelists,
		Columns: []Column{
			req(colID), opt(colName), opt(colDataType), opt(colStandard),
			opt(colNonStandard), opt(colCode), opt(colCommentOID), opt(colOrder),
			opt(colTerm), opt(colTermCode), opt(colDecodedValue), opt(colExtended),
			opt(colRank),
		},
	},
	{
		Name: SheetDictionaries,
		Columns: []Column{
			req(colID), opt(colName), opt(colDataType), req(colDictionary),
			opt(colVersion), opt(colRef), opt(colHref),
		},
	},
	{
		Name:     SheetDatasets,
		Required: true,
		Columns: []Column{
			req(colDataset), opt(colDescription), opt(colDomain), opt(colClass),
			opt(colSubClass), opt(colStructure), opt(colPurpose), opt(colRepeating),
			opt(colReferenceData), opt(colHasNoData), opt(colStandard),
			opt(colLocation), opt(colLocationTitle), opt(colCommentOID), opt(colComment),
		},
	},
	{
		Name:      SheetVariables,
		Required:  true,
		DependsOn: SheetDatasets,
		Columns: concat(
			[]Column{req(colDataset), req(colVariable), opt(colOID), opt(colOrder)},
			itemColumns(),
			[]Column{opt(colKeySequence), opt(colRole)},
			originColumns(),
		),
	},
	{
		Name:      SheetValueLevel,
		DependsOn: SheetVariables,
		Columns: concat(
			[]Column{req(colDataset), req(colVariable), opt(colOID), opt(colOrder)},
			itemColumns(),
			originColumns(),
			[]Column{
				opt(colWhereClauseOID), req(colWhereVariable), opt(colComparator),
				req(colWhereValue),
			},
		),
	},
	{
		Name: SheetAnalysisDisplays,
		Columns: []Column{
			opt(colID), req(colDisplayName), opt(colDescription), opt(colDocuments),
		},
	},
	{
		Name:      SheetAnalysisResults,
		DependsOn: SheetAnalysisDisplays,
		Columns: []Column{
			req(colDisplayName), opt(colID), opt(colDescription), opt(colReason),
			opt(colPurposeARM), opt(colParameterOID), opt(colDatasetsCommentOID),
			opt(colDocumentation), opt(colDocumentationRefs),
			opt(colProgrammingContext), opt(colProgrammingCode), opt(colProgrammingRefs),
		},
	},
	{
		Name:      SheetAnalysisDatasets,
		DependsOn: SheetAnalysisResults,
		Columns: []Column{
			req(colResultID), req(colDataset), opt(colWhereClauseOID), opt(colVariables),
		},
	},
}

// SchemaFor returns the schema of the named sheet.
func SchemaFor(name string) (Schema, bool) {
	key := headerKey(name)
	for _, s := range Schemas {
		if headerKey(s.Name) == key {
			return s, true
		}
	}
	return Schema{}, false
}

// Header returns the column names of s in writing order.
func (s Schema) Header() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// headerKey folds a header or sheet name for matching: case and all
// whitespace are ignored.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

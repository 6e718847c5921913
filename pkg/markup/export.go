package markup

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/definekit/pkg/define"
)

// Define-XML versions the writer can produce.
const (
	DefineVersion20 = "2.0.0"
	DefineVersion21 = "2.1.0"
)

// ExportOptions configures [Build].
type ExportOptions struct {
	// Stylesheet is the href of the xml-stylesheet processing instruction.
	// Empty selects define2-0-0.xsl or define2-1.xsl by version.
	Stylesheet string

	// OmitStylesheet drops the xml-stylesheet processing instruction.
	OmitStylesheet bool

	// Language is used for TranslatedText when the study has none.
	// Defaults to "en".
	Language string

	// Now supplies CreationDateTime when the study has none.
	// Defaults to time.Now.
	Now func() time.Time
}

// is20 reports whether the model should be written as Define-XML 2.0.
func is20(m *define.Model) bool {
	return m.Study != nil && strings.HasPrefix(m.Study.DefineVersion, "2.0")
}

// writer carries the state of one Build call.
type writer struct {
	m    *define.Model
	v20  bool
	lang string
}

// Build maps a model to a Define-XML document tree. It writes Define-XML 2.1
// unless the study's DefineVersion starts with "2.0".
func Build(m *define.Model, opts ExportOptions) *Document {
	w := &writer{m: m, v20: is20(m), lang: opts.Language}
	s := m.Study
	if s == nil {
		s = &define.Study{}
	}
	if s.Language != "" {
		w.lang = s.Language
	}
	if w.lang == "" {
		w.lang = "en"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	doc := &Document{}
	if !opts.OmitStylesheet {
		href := opts.Stylesheet
		if href == "" {
			href = "define2-1.xsl"
			if w.v20 {
				href = "define2-0-0.xsl"
			}
		}
		doc.PIs = append(doc.PIs, ProcInst{Target: "xml-stylesheet", Inst: `type="text/xsl" href="` + Escape(href) + `"`})
	}

	defNS, version := NamespaceDef21, s.DefineVersion
	if w.v20 {
		defNS = NamespaceDef20
	}
	if version == "" {
		version = DefineVersion21
	}

	fileOID := s.FileOID
	if fileOID == "" {
		fileOID = define.FileOID(s.Name, s.VersionName)
	}
	created := s.CreationDateTime
	if created == "" {
		created = now().UTC().Format("2006-01-02T15:04:05")
	}
	fileType := s.FileType
	if fileType == "" {
		fileType = "Snapshot"
	}

	root := Elem("ODM",
		"xmlns", NamespaceODM,
		"xmlns:xlink", NamespaceXLink,
		"xmlns:def", defNS,
	)
	if m.Displays.Len() > 0 {
		root.Attr("xmlns:arm", NamespaceARM)
	}
	root.Attr("ODMVersion", "1.3.2").
		Attr("FileType", fileType).
		Attr("FileOID", fileOID).
		Attr("CreationDateTime", created)
	if !w.v20 {
		root.Attr("def:Context", s.Context)
	}
	root.Attr("Originator", s.Originator).
		Attr("SourceSystem", s.SourceSystem).
		Attr("SourceSystemVersion", s.SourceSystemVersion)

	mdv := Elem("MetaDataVersion",
		"OID", s.MetaDataVersion,
		"Name", s.VersionName,
		"Description", s.VersionDesc,
		"def:DefineVersion", version,
	)
	if w.v20 {
		if std := w.firstIG(); std != nil {
			mdv.Attr("def:StandardName", std.Name).Attr("def:StandardVersion", std.Version)
		}
	} else {
		mdv.Attr("def:CommentOID", s.CommentOID)
	}

	mdv.Add(w.standards())
	mdv.Add(w.documentRefs("def:AnnotatedCRF", define.DocumentAnnotatedCRF))
	mdv.Add(w.documentRefs("def:SupplementalDoc", define.DocumentSupplemental))
	mdv.Add(w.valueLists()...)
	mdv.Add(w.whereClauses()...)
	mdv.Add(w.itemGroups()...)
	mdv.Add(w.itemDefs()...)
	mdv.Add(w.codelists()...)
	mdv.Add(w.methods()...)
	mdv.Add(w.comments()...)
	mdv.Add(w.leaves()...)
	mdv.Add(w.displays())

	study := Elem("Study", "OID", s.OID).Add(
		Elem("GlobalVariables").Add(
			Elem("StudyName").WithText(s.Name),
			Elem("StudyDescription").WithText(s.Description),
			Elem("ProtocolName").WithText(s.ProtocolName),
		),
		mdv,
	)
	root.Add(study)
	doc.Root = root
	return doc
}

// Export builds the document for m and renders it to w.
func Export(m *define.Model, w io.Writer, opts ExportOptions) error {
	return Build(m, opts).Render(w)
}

func (w *writer) description(text string) *Node {
	if text == "" {
		return nil
	}
	return Elem("Description").Add(Elem("TranslatedText", "xml:lang", w.lang).WithText(text))
}

func docRefNodes(refs []define.DocumentRef) []*Node {
	var out []*Node
	for _, r := range refs {
		n := Elem("def:DocumentRef", "leafID", r.DocumentID)
		if r.PageType != "" || r.Pages != "" || r.FirstPage != "" {
			n.Add(Elem("def:PDFPageRef",
				"PageRefs", r.Pages,
				"FirstPage", r.FirstPage,
				"LastPage", r.LastPage,
				"Type", r.PageType,
			))
		}
		out = append(out, n)
	}
	return out
}

func itoa(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (w *writer) firstIG() *define.Standard {
	for _, s := range w.m.Standards.All() {
		if s.Type == "IG" || s.Type == "" {
			return s
		}
	}
	return nil
}

func (w *writer) standards() *Node {
	if w.v20 || w.m.Standards.Len() == 0 {
		return nil
	}
	n := Elem("def:Standards")
	for _, s := range w.m.Standards.All() {
		n.Add(Elem("def:Standard",
			"OID", s.OID,
			"Name", s.Name,
			"Type", s.Type,
			"PublishingSet", s.PublishingSet,
			"Version", s.Version,
			"Status", s.Status,
			"def:CommentOID", s.CommentOID,
		))
	}
	return n
}

func (w *writer) documentRefs(name string, kind define.DocumentKind) *Node {
	var refs []*Node
	for _, d := range w.m.DocumentsByOrdinal() {
		if d.Kind == kind {
			refs = append(refs, Elem("def:DocumentRef", "leafID", d.ID))
		}
	}
	if len(refs) == 0 {
		return nil
	}
	return Elem(name).Add(refs...)
}

func (w *writer) valueLists() []*Node {
	var out []*Node
	for _, vl := range w.m.ValueLists.All() {
		n := Elem("def:ValueListDef", "OID", vl.OID)
		for _, oid := range vl.ValueOIDs {
			v, ok := w.m.Values.Get(oid)
			if !ok {
				continue
			}
			ref := Elem("ItemRef",
				"ItemOID", v.OID,
				"OrderNumber", itoa(v.Ordinal),
				"Mandatory", v.Mandatory,
				"MethodOID", v.MethodOID,
				"Role", v.Role,
			)
			for _, wc := range v.WhereClauseOIDs {
				ref.Add(Elem("def:WhereClauseRef", "WhereClauseOID", wc))
			}
			n.Add(ref)
		}
		out = append(out, n)
	}
	return out
}

func (w *writer) whereClauses() []*Node {
	var out []*Node
	for _, wc := range w.m.WhereClauses.All() {
		n := Elem("def:WhereClauseDef", "OID", wc.OID, "def:CommentOID", wc.CommentOID)
		for _, c := range wc.Conditions {
			rc := Elem("RangeCheck", "Comparator", c.Comparator, "SoftHard", c.SoftHard, "def:ItemOID", c.ItemOID)
			for _, v := range c.Values {
				rc.Add(Elem("CheckValue").WithText(v))
			}
			n.Add(rc)
		}
		out = append(out, n)
	}
	return out
}

func (w *writer) itemGroups() []*Node {
	var out []*Node
	for _, d := range w.m.DatasetsByOrdinal() {
		n := Elem("ItemGroupDef",
			"OID", d.OID,
			"Domain", d.Domain,
			"Name", d.Name,
			"SASDatasetName", d.SASDatasetName,
			"Repeating", d.Repeating,
			"IsReferenceData", d.IsReferenceData,
			"Purpose", d.Purpose,
			"def:Structure", d.Structure,
		)
		if w.v20 {
			n.Attr("def:Class", d.Class)
		} else {
			n.Attr("def:StandardOID", d.StandardOID).Attr("def:HasNoData", d.HasNoData.String())
		}
		n.Attr("def:ArchiveLocationID", d.ArchiveLocationID).Attr("def:CommentOID", d.CommentOID)

		n.Add(w.description(d.Description))
		for _, v := range w.m.VariablesOf(d.OID) {
			n.Add(Elem("ItemRef",
				"ItemOID", v.OID,
				"OrderNumber", itoa(v.Ordinal),
				"Mandatory", v.Mandatory,
				"KeySequence", v.KeySequence,
				"MethodOID", v.MethodOID,
				"Role", v.Role,
			))
		}
		if !w.v20 && d.Class != "" {
			class := Elem("def:Class", "Name", d.Class)
			if d.SubClass != "" {
				class.Add(Elem("def:SubClass", "Name", d.SubClass))
			}
			n.Add(class)
		}
		if d.ArchiveLocationID != "" {
			leaf := Elem("def:leaf", "ID", d.ArchiveLocationID, "xlink:href", d.Location)
			if d.LocationTitle != "" {
				leaf.Add(Elem("def:title").WithText(d.LocationTitle))
			}
			n.Add(leaf)
		}
		out = append(out, n)
	}
	return out
}

func (w *writer) itemDef(oid string, it *define.Item, valueList string) *Node {
	n := Elem("ItemDef",
		"OID", oid,
		"Name", it.Name,
		"DataType", it.DataType,
		"Length", it.Length,
		"SignificantDigits", it.SignificantDigits,
		"SASFieldName", it.SASFieldName,
		"def:DisplayFormat", it.DisplayFormat,
		"def:CommentOID", it.CommentOID,
	)
	n.Add(w.description(it.Label))
	if it.CodelistOID != "" {
		n.Add(Elem("CodeListRef", "CodeListOID", it.CodelistOID))
	}
	if o := it.Origin; o.Type != "" || o.Description != "" || len(o.DocumentRefs) > 0 {
		origin := Elem("def:Origin", "Type", o.Type)
		if !w.v20 {
			origin.Attr("Source", o.Source)
		}
		origin.Add(w.description(o.Description))
		origin.Add(docRefNodes(o.DocumentRefs)...)
		n.Add(origin)
	}
	if valueList != "" {
		n.Add(Elem("def:ValueListRef", "ValueListOID", valueList))
	}
	return n
}

// itemDefs writes one ItemDef per item OID: variables first in dataset
// order, then value-level items. An OID shared by several datasets is
// written once, from its first variable.
func (w *writer) itemDefs() []*Node {
	seen := make(map[string]bool)
	var out []*Node
	for _, d := range w.m.DatasetsByOrdinal() {
		for _, v := range w.m.VariablesOf(d.OID) {
			if seen[v.OID] {
				continue
			}
			seen[v.OID] = true
			out = append(out, w.itemDef(v.OID, &v.Item, v.ValueListOID))
		}
	}
	for _, d := range w.m.DatasetsByOrdinal() {
		for _, v := range w.m.ValuesOf(d.OID) {
			if seen[v.OID] {
				continue
			}
			seen[v.OID] = true
			out = append(out, w.itemDef(v.OID, &v.Item, ""))
		}
	}
	for _, v := range w.m.Values.All() {
		if seen[v.OID] {
			continue
		}
		seen[v.OID] = true
		out = append(out, w.itemDef(v.OID, &v.Item, ""))
	}
	return out
}

func (w *writer) codelists() []*Node {
	var out []*Node
	for _, cl := range w.m.CodelistsByOrdinal() {
		n := Elem("CodeList", "OID", cl.OID, "Name", cl.Name, "DataType", cl.DataType)
		if !w.v20 {
			n.Attr("def:IsNonStandard", cl.IsNonStandard).Attr("def:StandardOID", cl.StandardOID)
		}
		n.Attr("def:CommentOID", cl.CommentOID)
		for _, it := range w.m.ItemsOf(cl.OID) {
			name := "CodeListItem"
			if it.Enumerated {
				name = "EnumeratedItem"
			}
			item := Elem(name,
				"CodedValue", it.Value,
				"OrderNumber", itoa(it.Order),
				"Rank", itoa(it.Rank),
			)
			if it.Extended {
				item.Attr("def:ExtendedValue", "Yes")
			}
			if !it.Enumerated {
				lang := it.Language
				if lang == "" {
					lang = w.lang
				}
				item.Add(Elem("Decode").Add(Elem("TranslatedText", "xml:lang", lang).WithText(it.Decode)))
			}
			if it.Code != "" {
				item.Add(Elem("Alias", "Context", "nci:ExtCodeID", "Name", it.Code))
			}
			n.Add(item)
		}
		if cl.Code != "" {
			n.Add(Elem("Alias", "Context", "nci:ExtCodeID", "Name", cl.Code))
		}
		out = append(out, n)
	}
	for _, d := range w.m.DictionariesByOrdinal() {
		out = append(out, Elem("CodeList", "OID", d.OID, "Name", d.Name, "DataType", d.DataType).Add(
			Elem("ExternalCodeList",
				"Dictionary", d.Dictionary,
				"Version", d.Version,
				"ref", d.Ref,
				"href", d.Href,
			),
		))
	}
	return out
}

func (w *writer) methods() []*Node {
	var out []*Node
	for _, mt := range w.m.Methods.All() {
		n := Elem("MethodDef", "OID", mt.OID, "Name", mt.Name, "Type", mt.Type)
		n.Add(w.description(mt.Description))
		n.Add(docRefNodes(mt.DocumentRefs)...)
		if mt.ExpressionCode != "" || mt.ExpressionContext != "" {
			n.Add(Elem("FormalExpression", "Context", mt.ExpressionContext).WithText(mt.ExpressionCode))
		}
		out = append(out, n)
	}
	return out
}

func (w *writer) comments() []*Node {
	var out []*Node
	for _, c := range w.m.Comments.All() {
		n := Elem("def:CommentDef", "OID", c.OID)
		n.Add(w.description(c.Description))
		n.Add(docRefNodes(c.DocumentRefs)...)
		out = append(out, n)
	}
	return out
}

func (w *writer) leaves() []*Node {
	var out []*Node
	for _, d := range w.m.DocumentsByOrdinal() {
		n := Elem("def:leaf", "ID", d.ID, "xlink:href", d.Href)
		if d.Title != "" {
			n.Add(Elem("def:title").WithText(d.Title))
		}
		out = append(out, n)
	}
	return out
}

func (w *writer) displays() *Node {
	if w.m.Displays.Len() == 0 {
		return nil
	}
	root := Elem("arm:AnalysisResultDisplays")
	for _, d := range w.m.DisplaysByOrdinal() {
		dn := Elem("arm:ResultDisplay", "OID", d.OID, "Name", d.Name)
		dn.Add(w.description(d.Description))
		dn.Add(docRefNodes(d.DocumentRefs)...)
		for _, r := range w.m.ResultsOf(d.OID) {
			rn := Elem("arm:AnalysisResult",
				"OID", r.OID,
				"ParameterOID", r.ParameterOID,
				"AnalysisReason", r.Reason,
				"AnalysisPurpose", r.Purpose,
			)
			rn.Add(w.description(r.Description))
			if len(r.Datasets) > 0 || r.DatasetsCommentOID != "" {
				ads := Elem("arm:AnalysisDatasets", "def:CommentOID", r.DatasetsCommentOID)
				for _, ad := range r.Datasets {
					an := Elem("arm:AnalysisDataset", "ItemGroupOID", ad.DatasetOID)
					if ad.WhereClauseOID != "" {
						an.Add(Elem("def:WhereClauseRef", "WhereClauseOID", ad.WhereClauseOID))
					}
					for _, v := range ad.VariableOIDs {
						an.Add(Elem("arm:AnalysisVariable", "ItemOID", v))
					}
					ads.Add(an)
				}
				rn.Add(ads)
			}
			if r.Documentation != "" || len(r.DocumentationRefs) > 0 {
				doc := Elem("arm:Documentation")
				doc.Add(w.description(r.Documentation))
				doc.Add(docRefNodes(r.DocumentationRefs)...)
				rn.Add(doc)
			}
			if r.ProgrammingCode != "" || r.ProgrammingContext != "" || len(r.ProgrammingRefs) > 0 {
				pc := Elem("arm:ProgrammingCode", "Context", r.ProgrammingContext)
				if r.ProgrammingCode != "" {
					pc.Add(Elem("arm:Code").WithText(r.ProgrammingCode))
				}
				pc.Add(docRefNodes(r.ProgrammingRefs)...)
				rn.Add(pc)
			}
			dn.Add(rn)
		}
		root.Add(dn)
	}
	return root
}

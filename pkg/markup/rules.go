package markup

import (
	"strconv"

	"github.com/matzehuels/definekit/pkg/define"
)

// rule binds one element path. start runs on the opening tag, text receives
// the element's trimmed character data and end runs on the closing tag.
// Any of them may be nil.
type rule struct {
	start func(b *Binder, attrs []Attr)
	text  func(b *Binder, text string)
	end   func(b *Binder)
}

// Element paths.
const (
	pathODM    = "ODM"
	pathStudy  = pathODM + "/Study"
	pathGlobal = pathStudy + "/GlobalVariables"
	pathMDV    = pathStudy + "/MetaDataVersion"

	pathValueList = pathMDV + "/def:ValueListDef"
	pathVLRef     = pathValueList + "/ItemRef"
	pathWhere     = pathMDV + "/def:WhereClauseDef"
	pathRange     = pathWhere + "/RangeCheck"
	pathGroup     = pathMDV + "/ItemGroupDef"
	pathItem      = pathMDV + "/ItemDef"
	pathOrigin    = pathItem + "/def:Origin"
	pathCodelist  = pathMDV + "/CodeList"
	pathMethod    = pathMDV + "/MethodDef"
	pathComment   = pathMDV + "/def:CommentDef"
	pathLeaf      = pathMDV + "/def:leaf"

	pathDisplays      = pathMDV + "/arm:AnalysisResultDisplays"
	pathDisplay       = pathDisplays + "/arm:ResultDisplay"
	pathResult        = pathDisplay + "/arm:AnalysisResult"
	pathAnaDatasets   = pathResult + "/arm:AnalysisDatasets"
	pathAnaDataset    = pathAnaDatasets + "/arm:AnalysisDataset"
	pathDocumentation = pathResult + "/arm:Documentation"
	pathProgramming   = pathResult + "/arm:ProgrammingCode"
)

var rules = buildRules()

func buildRules() map[string]rule {
	r := map[string]rule{
		pathODM:                          {start: startODM},
		pathStudy:                        {start: startStudy},
		pathGlobal + "/StudyName":        {text: studyText(func(s *define.Study) *string { return &s.Name })},
		pathGlobal + "/StudyDescription": {text: studyText(func(s *define.Study) *string { return &s.Description })},
		pathGlobal + "/ProtocolName":     {text: studyText(func(s *define.Study) *string { return &s.ProtocolName })},
		pathMDV:                          {start: startMetaDataVersion},

		pathMDV + "/def:Standards/def:Standard":          {start: startStandard},
		pathMDV + "/def:AnnotatedCRF/def:DocumentRef":    {start: documentKind(define.DocumentAnnotatedCRF)},
		pathMDV + "/def:SupplementalDoc/def:DocumentRef": {start: documentKind(define.DocumentSupplemental)},

		pathValueList:                     {start: startValueList, end: func(b *Binder) { b.ctx.valueList = nil }},
		pathVLRef:                         {start: startValueRef, end: func(b *Binder) { b.ctx.value = nil }},
		pathVLRef + "/def:WhereClauseRef": {start: startValueWhereRef},

		pathWhere:                 {start: startWhereClause, end: func(b *Binder) { b.ctx.where = nil }},
		pathRange:                 {start: startRangeCheck, end: func(b *Binder) { b.ctx.cond = -1 }},
		pathRange + "/CheckValue": {start: startCheckValue, text: checkValueText},

		pathGroup:                             {start: startDataset, end: func(b *Binder) { b.ctx.dataset = nil }},
		pathGroup + "/ItemRef":                {start: startVariableRef},
		pathGroup + "/def:Class":              {start: startClass},
		pathGroup + "/def:Class/def:SubClass": {start: startSubClass},
		pathGroup + "/def:leaf":               {start: startDatasetLeaf},
		pathGroup + "/def:leaf/def:title":     {text: datasetLeafTitle},

		pathItem:                       {start: startItem, end: endItem},
		pathItem + "/CodeListRef":      {start: startCodeListRef},
		pathOrigin:                     {start: startOrigin, end: func(b *Binder) { b.ctx.origin = nil }},
		pathItem + "/def:ValueListRef": {start: startValueListRef},

		pathCodelist:                                         {start: startCodelist, end: endCodelist},
		pathCodelist + "/CodeListItem":                       {start: startCodelistItem(false), end: func(b *Binder) { b.ctx.clItem = nil }},
		pathCodelist + "/EnumeratedItem":                     {start: startCodelistItem(true), end: func(b *Binder) { b.ctx.clItem = nil }},
		pathCodelist + "/CodeListItem/Decode/TranslatedText": {start: startDecode, text: decodeText},
		pathCodelist + "/CodeListItem/Alias":                 {start: startItemAlias},
		pathCodelist + "/EnumeratedItem/Alias":               {start: startItemAlias},
		pathCodelist + "/ExternalCodeList":                   {start: startExternalCodeList},
		pathCodelist + "/Alias":                              {start: startCodelistAlias},

		pathMethod:                       {start: startMethod, end: func(b *Binder) { b.ctx.method = nil }},
		pathMethod + "/FormalExpression": {start: startFormalExpression, text: formalExpressionText},

		pathComment: {start: startComment, end: func(b *Binder) { b.ctx.comment = nil }},

		pathLeaf:                {start: startLeaf, end: func(b *Binder) { b.ctx.document = nil }},
		pathLeaf + "/def:title": {text: leafTitle},

		pathDisplay:                              {start: startDisplay, end: func(b *Binder) { b.ctx.display = nil }},
		pathResult:                               {start: startResult, end: func(b *Binder) { b.ctx.result = nil }},
		pathAnaDatasets:                          {start: startAnalysisDatasets},
		pathAnaDataset:                           {start: startAnalysisDataset, end: func(b *Binder) { b.ctx.anaDS = -1 }},
		pathAnaDataset + "/def:WhereClauseRef":   {start: startAnalysisWhereRef},
		pathAnaDataset + "/arm:AnalysisVariable": {start: startAnalysisVariable},
		pathProgramming:                          {start: startProgrammingCode},
		pathProgramming + "/arm:Code":            {text: programmingCodeText},
	}

	descriptions := map[string]func(*bindContext) *string{
		pathGroup: func(c *bindContext) *string {
			if c.dataset == nil {
				return nil
			}
			return &c.dataset.Description
		},
		pathItem: func(c *bindContext) *string {
			if c.item == nil {
				return nil
			}
			return &c.item.Label
		},
		pathOrigin: func(c *bindContext) *string {
			if c.origin == nil {
				return nil
			}
			return &c.origin.Description
		},
		pathMethod: func(c *bindContext) *string {
			if c.method == nil {
				return nil
			}
			return &c.method.Description
		},
		pathComment: func(c *bindContext) *string {
			if c.comment == nil {
				return nil
			}
			return &c.comment.Description
		},
		pathDisplay: func(c *bindContext) *string {
			if c.display == nil {
				return nil
			}
			return &c.display.Description
		},
		pathResult: func(c *bindContext) *string {
			if c.result == nil {
				return nil
			}
			return &c.result.Description
		},
		pathDocumentation: func(c *bindContext) *string {
			if c.result == nil {
				return nil
			}
			return &c.result.Documentation
		},
	}
	for parent, target := range descriptions {
		r[parent+"/Description/TranslatedText"] = rule{start: startTranslatedText, text: appendTo(target)}
	}

	docRefs := map[string]func(*bindContext) *[]define.DocumentRef{
		pathOrigin: func(c *bindContext) *[]define.DocumentRef {
			if c.origin == nil {
				return nil
			}
			return &c.origin.DocumentRefs
		},
		pathMethod: func(c *bindContext) *[]define.DocumentRef {
			if c.method == nil {
				return nil
			}
			return &c.method.DocumentRefs
		},
		pathComment: func(c *bindContext) *[]define.DocumentRef {
			if c.comment == nil {
				return nil
			}
			return &c.comment.DocumentRefs
		},
		pathDisplay: func(c *bindContext) *[]define.DocumentRef {
			if c.display == nil {
				return nil
			}
			return &c.display.DocumentRefs
		},
		pathDocumentation: func(c *bindContext) *[]define.DocumentRef {
			if c.result == nil {
				return nil
			}
			return &c.result.DocumentationRefs
		},
		pathProgramming: func(c *bindContext) *[]define.DocumentRef {
			if c.result == nil {
				return nil
			}
			return &c.result.ProgrammingRefs
		},
	}
	for parent, target := range docRefs {
		r[parent+"/def:DocumentRef"] = rule{start: startDocumentRef(target), end: func(b *Binder) { b.ctx.refs = nil }}
		r[parent+"/def:DocumentRef/def:PDFPageRef"] = rule{start: startPDFPageRef}
	}
	return r
}

// appendTo returns a text handler appending to the field target selects.
func appendTo(target func(*bindContext) *string) func(*Binder, string) {
	return func(b *Binder, text string) {
		p := target(&b.ctx)
		if p == nil {
			b.orphan()
			return
		}
		*p += text
	}
}

// startTranslatedText records the first language seen as the study language.
func startTranslatedText(b *Binder, attrs []Attr) {
	if lang := attrValue(attrs, "xml:lang"); lang != "" && b.ctx.study != nil && b.ctx.study.Language == "" {
		b.ctx.study.Language = lang
	}
}

func startODM(b *Binder, attrs []Attr) {
	b.ctx.study = &define.Study{
		FileOID:             attrValue(attrs, "FileOID"),
		FileType:            attrValue(attrs, "FileType"),
		Originator:          attrValue(attrs, "Originator"),
		SourceSystem:        attrValue(attrs, "SourceSystem"),
		SourceSystemVersion: attrValue(attrs, "SourceSystemVersion"),
		Context:             attrValue(attrs, "def:Context"),
		CreationDateTime:    attrValue(attrs, "CreationDateTime"),
	}
	b.m.Study = b.ctx.study
}

func startStudy(b *Binder, attrs []Attr) {
	if b.ctx.study == nil {
		b.orphan()
		return
	}
	b.ctx.study.OID = attrValue(attrs, "OID")
}

func studyText(field func(*define.Study) *string) func(*Binder, string) {
	return func(b *Binder, text string) {
		if b.ctx.study == nil {
			b.orphan()
			return
		}
		*field(b.ctx.study) += text
	}
}

func startMetaDataVersion(b *Binder, attrs []Attr) {
	s := b.ctx.study
	if s == nil {
		b.orphan()
		return
	}
	s.MetaDataVersion = attrValue(attrs, "OID")
	s.VersionName = attrValue(attrs, "Name")
	s.VersionDesc = attrValue(attrs, "Description")
	s.DefineVersion = attrValue(attrs, "def:DefineVersion")
	s.CommentOID = attrValue(attrs, "def:CommentOID")

	// Define-XML 2.0 names its one implementation guide on MetaDataVersion.
	if name := attrValue(attrs, "def:StandardName"); name != "" {
		version := attrValue(attrs, "def:StandardVersion")
		oid := define.StandardOID(name, version, "")
		_ = b.m.Standards.Insert(oid, &define.Standard{OID: oid, Name: name, Type: "IG", Version: version})
	}
}

func startStandard(b *Binder, attrs []Attr) {
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	s := &define.Standard{
		OID:           oid,
		Name:          attrValue(attrs, "Name"),
		Type:          attrValue(attrs, "Type"),
		PublishingSet: attrValue(attrs, "PublishingSet"),
		Version:       attrValue(attrs, "Version"),
		Status:        attrValue(attrs, "Status"),
		CommentOID:    attrValue(attrs, "def:CommentOID"),
	}
	if b.m.Standards.Insert(oid, s) != nil {
		b.warnKey(oid, "duplicate standard %s; ignored", oid)
	}
}

func documentKind(kind define.DocumentKind) func(*Binder, []Attr) {
	return func(b *Binder, attrs []Attr) {
		if id, ok := b.required(attrs, "leafID"); ok {
			b.docKinds[id] = kind
		}
	}
}

func startValueList(b *Binder, attrs []Attr) {
	b.ctx.valueRefs = 0
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	vl := &define.ValueList{OID: oid}
	if b.m.ValueLists.Insert(oid, vl) != nil {
		b.warnKey(oid, "duplicate value list %s; ignored", oid)
		return
	}
	b.ctx.valueList = vl
}

func startValueRef(b *Binder, attrs []Attr) {
	b.ctx.valueRefs++
	vl := b.ctx.valueList
	if vl == nil {
		b.orphan()
		return
	}
	oid, ok := b.required(attrs, "ItemOID")
	if !ok {
		return
	}
	v := &define.Value{
		OID: oid,
		Item: define.Item{
			Mandatory: attrValue(attrs, "Mandatory"),
			MethodOID: attrValue(attrs, "MethodOID"),
			Role:      attrValue(attrs, "Role"),
		},
		Ordinal: b.ordinal(attrs, "OrderNumber", b.ctx.valueRefs),
	}
	if b.m.Values.Insert(oid, v) != nil {
		b.warnKey(oid, "value %s is listed more than once; ignored in %s", oid, vl.OID)
		return
	}
	vl.ValueOIDs = append(vl.ValueOIDs, oid)
	b.ctx.value = v
}

func startValueWhereRef(b *Binder, attrs []Attr) {
	if b.ctx.value == nil {
		b.orphan()
		return
	}
	if oid, ok := b.required(attrs, "WhereClauseOID"); ok {
		b.ctx.value.WhereClauseOIDs = append(b.ctx.value.WhereClauseOIDs, oid)
	}
}

func startWhereClause(b *Binder, attrs []Attr) {
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	wc := &define.WhereClause{OID: oid, CommentOID: attrValue(attrs, "def:CommentOID")}
	if b.m.WhereClauses.Insert(oid, wc) != nil {
		b.warnKey(oid, "duplicate where clause %s; ignored", oid)
		return
	}
	b.ctx.where = wc
}

func startRangeCheck(b *Binder, attrs []Attr) {
	wc := b.ctx.where
	if wc == nil {
		b.orphan()
		return
	}
	c := define.Condition{
		ItemOID:    attrValue(attrs, "def:ItemOID"),
		Comparator: attrValue(attrs, "Comparator"),
		SoftHard:   attrValue(attrs, "SoftHard"),
	}
	if !define.IsComparator(c.Comparator) {
		b.warnKey(wc.OID, "where clause %s has unknown comparator %q", wc.OID, c.Comparator)
	}
	wc.Conditions = append(wc.Conditions, c)
	b.ctx.cond = len(wc.Conditions) - 1
}

func startCheckValue(b *Binder, _ []Attr) {
	if b.ctx.where == nil || b.ctx.cond < 0 {
		b.orphan()
		return
	}
	c := &b.ctx.where.Conditions[b.ctx.cond]
	c.Values = append(c.Values, "")
}

func checkValueText(b *Binder, text string) {
	if b.ctx.where == nil || b.ctx.cond < 0 {
		return
	}
	c := &b.ctx.where.Conditions[b.ctx.cond]
	c.Values[len(c.Values)-1] += text
}

func startDataset(b *Binder, attrs []Attr) {
	b.ctx.itemRefs = 0
	b.ctx.datasets++
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	d := &define.Dataset{
		OID:               oid,
		Name:              attrValue(attrs, "Name"),
		Domain:            attrValue(attrs, "Domain"),
		SASDatasetName:    attrValue(attrs, "SASDatasetName"),
		Structure:         attrValue(attrs, "def:Structure"),
		Class:             attrValue(attrs, "def:Class"),
		Purpose:           attrValue(attrs, "Purpose"),
		Repeating:         attrValue(attrs, "Repeating"),
		IsReferenceData:   attrValue(attrs, "IsReferenceData"),
		StandardOID:       attrValue(attrs, "def:StandardOID"),
		CommentOID:        attrValue(attrs, "def:CommentOID"),
		ArchiveLocationID: attrValue(attrs, "def:ArchiveLocationID"),
		Ordinal:           b.ctx.datasets,
	}
	if raw := attrValue(attrs, "def:HasNoData"); raw != "" {
		h, ok := define.ParseHasNoData(raw)
		if !ok {
			b.warnKey(oid, "dataset %s has invalid def:HasNoData %q", oid, raw)
		}
		d.HasNoData = h
	}
	if b.m.Datasets.Insert(oid, d) != nil {
		b.warnKey(oid, "duplicate dataset %s; ignored", oid)
		return
	}
	b.ctx.dataset = d
}

func startVariableRef(b *Binder, attrs []Attr) {
	b.ctx.itemRefs++
	d := b.ctx.dataset
	if d == nil {
		b.orphan()
		return
	}
	oid, ok := b.required(attrs, "ItemOID")
	if !ok {
		return
	}
	v := &define.Variable{
		Dataset: d.OID,
		OID:     oid,
		Item: define.Item{
			Mandatory: attrValue(attrs, "Mandatory"),
			MethodOID: attrValue(attrs, "MethodOID"),
			Role:      attrValue(attrs, "Role"),
		},
		KeySequence: attrValue(attrs, "KeySequence"),
		Ordinal:     b.ordinal(attrs, "OrderNumber", b.ctx.itemRefs),
	}
	if b.m.Variables.Insert(v.Key(), v) != nil {
		b.warnKey(oid, "item %s is referenced twice by dataset %s; ignored", oid, d.OID)
		return
	}
	b.varIndex[oid] = append(b.varIndex[oid], v.Key())
}

func startClass(b *Binder, attrs []Attr) {
	if b.ctx.dataset == nil {
		b.orphan()
		return
	}
	b.ctx.dataset.Class = attrValue(attrs, "Name")
}

func startSubClass(b *Binder, attrs []Attr) {
	if b.ctx.dataset == nil {
		b.orphan()
		return
	}
	b.ctx.dataset.SubClass = attrValue(attrs, "Name")
}

func startDatasetLeaf(b *Binder, attrs []Attr) {
	d := b.ctx.dataset
	if d == nil {
		b.orphan()
		return
	}
	if d.ArchiveLocationID == "" {
		d.ArchiveLocationID = attrValue(attrs, "ID")
	}
	d.Location = attrValue(attrs, "xlink:href")
}

func datasetLeafTitle(b *Binder, text string) {
	if b.ctx.dataset == nil {
		b.orphan()
		return
	}
	b.ctx.dataset.LocationTitle += text
}

func startItem(b *Binder, attrs []Attr) {
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	if b.seenItemDefs[oid] {
		b.warnKey(oid, "duplicate item definition %s; ignored", oid)
		return
	}
	b.seenItemDefs[oid] = true
	b.ctx.itemOID = oid
	b.ctx.itemValueList = ""
	b.ctx.item = &define.Item{
		Name:              attrValue(attrs, "Name"),
		DataType:          attrValue(attrs, "DataType"),
		Length:            attrValue(attrs, "Length"),
		SignificantDigits: attrValue(attrs, "SignificantDigits"),
		SASFieldName:      attrValue(attrs, "SASFieldName"),
		DisplayFormat:     attrValue(attrs, "def:DisplayFormat"),
		CommentOID:        attrValue(attrs, "def:CommentOID"),
	}
}

func endItem(b *Binder) {
	if b.ctx.item == nil {
		return
	}
	oid, item, vl := b.ctx.itemOID, *b.ctx.item, b.ctx.itemValueList
	if !b.attachItem(oid, item, vl) {
		b.pending = append(b.pending, pendingItem{oid: oid, item: item, valueList: vl, path: b.path()})
	}
	b.ctx.item, b.ctx.itemOID, b.ctx.itemValueList = nil, "", ""
}

func startCodeListRef(b *Binder, attrs []Attr) {
	if b.ctx.item == nil {
		b.orphan()
		return
	}
	b.ctx.item.CodelistOID = attrValue(attrs, "CodeListOID")
}

func startOrigin(b *Binder, attrs []Attr) {
	it := b.ctx.item
	if it == nil {
		b.orphan()
		return
	}
	if it.Origin.Type != "" {
		b.warnKey(b.ctx.itemOID, "item %s has more than one origin; keeping the first", b.ctx.itemOID)
		b.ctx.origin = &define.Origin{}
		return
	}
	it.Origin.Type = attrValue(attrs, "Type")
	it.Origin.Source = attrValue(attrs, "Source")
	b.ctx.origin = &it.Origin
}

func startValueListRef(b *Binder, attrs []Attr) {
	if b.ctx.item == nil {
		b.orphan()
		return
	}
	b.ctx.itemValueList = attrValue(attrs, "ValueListOID")
}

func startCodelist(b *Binder, attrs []Attr) {
	b.ctx.codelistRefs = 0
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	b.ctx.codelist = &pendingCodelist{
		cl: define.Codelist{
			OID:           oid,
			Name:          attrValue(attrs, "Name"),
			DataType:      attrValue(attrs, "DataType"),
			StandardOID:   attrValue(attrs, "def:StandardOID"),
			IsNonStandard: attrValue(attrs, "def:IsNonStandard"),
			CommentOID:    attrValue(attrs, "def:CommentOID"),
		},
		path: b.path(),
	}
}

// commitCodelist stores the pending codelist as an enumerated codelist.
func (b *Binder) commitCodelist() bool {
	p := b.ctx.codelist
	if p.committed {
		return true
	}
	if p.external {
		return false
	}
	oid := p.cl.OID
	if b.m.HasCodelist(oid) {
		b.diags.Add(define.Warningf("duplicate codelist %s; ignored", oid).AtPath(p.path).For(oid))
		p.external = true
		return false
	}
	b.ctx.codelists++
	p.cl.Ordinal = b.ctx.codelists
	_ = b.m.Codelists.Insert(oid, &p.cl)
	p.committed = true
	return true
}

func endCodelist(b *Binder) {
	if b.ctx.codelist == nil {
		return
	}
	b.commitCodelist()
	b.ctx.codelist = nil
}

func startCodelistItem(enumerated bool) func(*Binder, []Attr) {
	return func(b *Binder, attrs []Attr) {
		b.ctx.codelistRefs++
		if b.ctx.codelist == nil {
			b.orphan()
			return
		}
		if !b.commitCodelist() {
			b.warn("%s inside an external or duplicate codelist; ignored", b.stack[len(b.stack)-1].name)
			return
		}
		value := attrValue(attrs, "CodedValue")
		it := &define.CodelistItem{
			Codelist:   b.ctx.codelist.cl.OID,
			Value:      value,
			Order:      b.ordinal(attrs, "OrderNumber", b.ctx.codelistRefs),
			Extended:   attrValue(attrs, "def:ExtendedValue") == "Yes",
			Enumerated: enumerated,
		}
		if raw := attrValue(attrs, "Rank"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				it.Rank = n
			} else {
				b.warn("Rank %q is not an integer; using %d", raw, b.ctx.codelistRefs)
				it.Rank = b.ctx.codelistRefs
			}
		}
		if b.m.CodelistItems.Insert(it.Key(), it) != nil {
			b.warnKey(it.Codelist, "codelist %s lists %q more than once; ignored", it.Codelist, value)
			b.ctx.clItem = &define.CodelistItem{}
			return
		}
		b.ctx.clItem = it
	}
}

func startDecode(b *Binder, attrs []Attr) {
	if b.ctx.clItem == nil {
		b.orphan()
		return
	}
	if lang := attrValue(attrs, "xml:lang"); lang != "" && b.ctx.clItem.Language == "" {
		b.ctx.clItem.Language = lang
	}
}

func decodeText(b *Binder, text string) {
	if b.ctx.clItem == nil {
		return
	}
	b.ctx.clItem.Decode += text
}

func startItemAlias(b *Binder, attrs []Attr) {
	if b.ctx.clItem == nil {
		b.orphan()
		return
	}
	if attrValue(attrs, "Context") == "nci:ExtCodeID" {
		b.ctx.clItem.Code = attrValue(attrs, "Name")
	}
}

func startCodelistAlias(b *Binder, attrs []Attr) {
	if b.ctx.codelist == nil {
		b.orphan()
		return
	}
	if attrValue(attrs, "Context") == "nci:ExtCodeID" {
		b.ctx.codelist.cl.Code = attrValue(attrs, "Name")
	}
}

func startExternalCodeList(b *Binder, attrs []Attr) {
	p := b.ctx.codelist
	if p == nil {
		b.orphan()
		return
	}
	if p.committed {
		b.warnKey(p.cl.OID, "codelist %s mixes items and an external dictionary; dictionary ignored", p.cl.OID)
		return
	}
	if p.external {
		return
	}
	p.external = true
	oid := p.cl.OID
	if b.m.HasCodelist(oid) {
		b.warnKey(oid, "duplicate codelist %s; ignored", oid)
		return
	}
	b.ctx.dictionaries++
	_ = b.m.Dictionaries.Insert(oid, &define.Dictionary{
		OID:        oid,
		Name:       p.cl.Name,
		DataType:   p.cl.DataType,
		Dictionary: attrValue(attrs, "Dictionary"),
		Version:    attrValue(attrs, "Version"),
		Ref:        attrValue(attrs, "ref"),
		Href:       attrValue(attrs, "href"),
		Ordinal:    b.ctx.dictionaries,
	})
}

func startMethod(b *Binder, attrs []Attr) {
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	mt := &define.Method{OID: oid, Name: attrValue(attrs, "Name"), Type: attrValue(attrs, "Type")}
	if b.m.Methods.Insert(oid, mt) != nil {
		b.warnKey(oid, "duplicate method %s; ignored", oid)
		return
	}
	b.ctx.method = mt
}

func startFormalExpression(b *Binder, attrs []Attr) {
	if b.ctx.method == nil {
		b.orphan()
		return
	}
	b.ctx.method.ExpressionContext = attrValue(attrs, "Context")
}

func formalExpressionText(b *Binder, text string) {
	if b.ctx.method == nil {
		return
	}
	b.ctx.method.ExpressionCode += text
}

func startComment(b *Binder, attrs []Attr) {
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	c := &define.Comment{OID: oid}
	if b.m.Comments.Insert(oid, c) != nil {
		b.warnKey(oid, "duplicate comment %s; ignored", oid)
		return
	}
	b.ctx.comment = c
}

func startLeaf(b *Binder, attrs []Attr) {
	id, ok := b.required(attrs, "ID")
	if !ok {
		return
	}
	b.ctx.documents++
	d := &define.Document{
		ID:      id,
		Kind:    define.DocumentOther,
		Href:    attrValue(attrs, "xlink:href"),
		Ordinal: b.ctx.documents,
	}
	if b.m.Documents.Insert(id, d) != nil {
		b.warnKey(id, "duplicate document %s; ignored", id)
		return
	}
	b.ctx.document = d
}

func leafTitle(b *Binder, text string) {
	if b.ctx.document == nil {
		b.orphan()
		return
	}
	b.ctx.document.Title += text
}

func startDocumentRef(target func(*bindContext) *[]define.DocumentRef) func(*Binder, []Attr) {
	return func(b *Binder, attrs []Attr) {
		refs := target(&b.ctx)
		if refs == nil {
			b.orphan()
			return
		}
		id, ok := b.required(attrs, "leafID")
		if !ok {
			return
		}
		*refs = append(*refs, define.DocumentRef{DocumentID: id})
		b.ctx.refs = refs
	}
}

func startPDFPageRef(b *Binder, attrs []Attr) {
	if b.ctx.refs == nil || len(*b.ctx.refs) == 0 {
		b.orphan()
		return
	}
	r := &(*b.ctx.refs)[len(*b.ctx.refs)-1]
	if r.PageType != "" {
		b.warnKey(r.DocumentID, "more than one page reference for document %s; keeping the first", r.DocumentID)
		return
	}
	r.PageType = attrValue(attrs, "Type")
	r.Pages = attrValue(attrs, "PageRefs")
	r.FirstPage = attrValue(attrs, "FirstPage")
	r.LastPage = attrValue(attrs, "LastPage")
}

func startDisplay(b *Binder, attrs []Attr) {
	b.ctx.results = 0
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	b.ctx.displays++
	d := &define.ResultDisplay{OID: oid, Name: attrValue(attrs, "Name"), Ordinal: b.ctx.displays}
	if b.m.Displays.Insert(oid, d) != nil {
		b.warnKey(oid, "duplicate result display %s; ignored", oid)
		return
	}
	b.ctx.display = d
}

func startResult(b *Binder, attrs []Attr) {
	if b.ctx.display == nil {
		b.orphan()
		return
	}
	oid, ok := b.required(attrs, "OID")
	if !ok {
		return
	}
	b.ctx.results++
	r := &define.AnalysisResult{
		OID:          oid,
		DisplayOID:   b.ctx.display.OID,
		ParameterOID: attrValue(attrs, "ParameterOID"),
		Reason:       attrValue(attrs, "AnalysisReason"),
		Purpose:      attrValue(attrs, "AnalysisPurpose"),
		Ordinal:      b.ctx.results,
	}
	if b.m.Results.Insert(oid, r) != nil {
		b.warnKey(oid, "duplicate analysis result %s; ignored", oid)
		return
	}
	b.ctx.result = r
}

func startAnalysisDatasets(b *Binder, attrs []Attr) {
	if b.ctx.result == nil {
		b.orphan()
		return
	}
	b.ctx.result.DatasetsCommentOID = attrValue(attrs, "def:CommentOID")
}

func startAnalysisDataset(b *Binder, attrs []Attr) {
	r := b.ctx.result
	if r == nil {
		b.orphan()
		return
	}
	oid, ok := b.required(attrs, "ItemGroupOID")
	if !ok {
		return
	}
	for _, ad := range r.Datasets {
		if ad.DatasetOID == oid {
			b.warnKey(r.OID, "analysis result %s lists dataset %s twice; ignored", r.OID, oid)
			return
		}
	}
	r.Datasets = append(r.Datasets, define.AnalysisDataset{DatasetOID: oid})
	b.ctx.anaDS = len(r.Datasets) - 1
}

func startAnalysisWhereRef(b *Binder, attrs []Attr) {
	if b.ctx.result == nil || b.ctx.anaDS < 0 {
		b.orphan()
		return
	}
	b.ctx.result.Datasets[b.ctx.anaDS].WhereClauseOID = attrValue(attrs, "WhereClauseOID")
}

func startAnalysisVariable(b *Binder, attrs []Attr) {
	if b.ctx.result == nil || b.ctx.anaDS < 0 {
		b.orphan()
		return
	}
	if oid, ok := b.required(attrs, "ItemOID"); ok {
		ad := &b.ctx.result.Datasets[b.ctx.anaDS]
		ad.VariableOIDs = append(ad.VariableOIDs, oid)
	}
}

func startProgrammingCode(b *Binder, attrs []Attr) {
	if b.ctx.result == nil {
		b.orphan()
		return
	}
	b.ctx.result.ProgrammingContext = attrValue(attrs, "Context")
}

func programmingCodeText(b *Binder, text string) {
	if b.ctx.result == nil {
		b.orphan()
		return
	}
	b.ctx.result.ProgrammingCode += text
}

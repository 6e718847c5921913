package workbook

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
)

func bindStudy(im *importer, r *row) {
	if im.m.Study != nil {
		im.add(r.warnf("", "only the first study row is used; row ignored"))
		return
	}
	name := r.get(colStudyName)
	if name == "" {
		im.add(r.warnf(colStudyName, "missing study name; row ignored"))
		return
	}
	s := &define.Study{
		FileOID:          r.get(colFileOID),
		FileType:         r.get(colFileType),
		Originator:       r.get(colOriginator),
		Context:          r.get(colContext),
		CreationDateTime: r.get(colCreationDateTime),
		OID:              r.get(colStudyOID),
		Name:             name,
		Description:      r.get(colStudyDescription),
		ProtocolName:     r.get(colProtocolName),
		Language:         r.get(colLanguage),
		MetaDataVersion:  r.get(colMetaDataVersionOID),
		VersionName:      r.get(colVersionName),
		VersionDesc:      r.get(colVersionDescription),
		DefineVersion:    r.get(colDefineVersion),
	}
	if s.OID == "" {
		s.OID = define.StudyOID(name)
	}
	if s.MetaDataVersion == "" {
		s.MetaDataVersion = define.MetaDataVersionOID(name)
	}
	if s.ProtocolName == "" {
		s.ProtocolName = name
	}
	if v := s.DefineVersion; v != "" && !strings.HasPrefix(v, "2.0") && !strings.HasPrefix(v, "2.1") {
		im.add(r.warnf(colDefineVersion, "unsupported Define-XML version %q; ignored", v))
		s.DefineVersion = ""
	}
	s.CommentOID = im.commentRef(r, colCommentOID, colComment, func() string { return define.CommentOID(name) })
	im.m.Study = s
}

func bindStandard(im *importer, r *row) {
	name, typ, version := r.get(colName), strings.ToUpper(r.get(colType)), r.get(colVersion)
	for _, c := range []struct{ col, v string }{{colName, name}, {colType, typ}, {colVersion, version}} {
		if c.v == "" {
			im.add(r.warnf(c.col, "missing %s; row ignored", c.col))
			return
		}
	}
	if typ != "IG" && typ != "CT" {
		im.add(r.warnf(colType, "standard type %q is neither IG nor CT", typ))
	}
	set := r.get(colPublishingSet)
	oid := r.get(colOID)
	if oid == "" {
		oid = define.StandardOID(name, version, set)
	}
	if im.m.Standards.Has(oid) {
		im.duplicate(r, colOID, "standard", oid)
		return
	}
	_ = im.m.Standards.Insert(oid, &define.Standard{
		OID:           oid,
		Name:          name,
		Type:          typ,
		PublishingSet: set,
		Version:       version,
		Status:        r.get(colStatus),
		CommentOID:    r.get(colCommentOID),
	})
}

func bindDocument(im *importer, r *row) {
	id, href := r.get(colID), r.get(colHref)
	if id == "" {
		im.add(r.warnf(colID, "missing document ID; row ignored"))
		return
	}
	if href == "" {
		im.add(r.warnf(colHref, "document %s has no Href; row ignored", id).For(id))
		return
	}
	if im.m.Documents.Has(id) {
		im.duplicate(r, colID, "document", id)
		return
	}
	kind := define.DocumentOther
	switch headerKey(r.get(colType)) {
	case "":
	case "annotatedcrf", "acrf", "crf":
		kind = define.DocumentAnnotatedCRF
	case "supplemental", "supplementaldoc", "supplementaldocument":
		kind = define.DocumentSupplemental
	case "other":
	default:
		im.add(r.warnf(colType, "unknown document type %q; using Other", r.get(colType)))
	}
	im.docOrder++
	_ = im.m.Documents.Insert(id, &define.Document{
		ID:      id,
		Kind:    kind,
		Href:    href,
		Title:   r.get(colTitle),
		Ordinal: im.docOrder,
	})
}

func bindComment(im *importer, r *row) {
	id, text := r.get(colID), r.get(colDescription)
	if id == "" {
		im.add(r.warnf(colID, "missing comment ID; row ignored"))
		return
	}
	if text == "" {
		im.add(r.warnf(colDescription, "comment %s has no description; row ignored", id).For(id))
		return
	}
	if im.m.Comments.Has(id) {
		im.duplicate(r, colID, "comment", id)
		return
	}
	_ = im.m.Comments.Insert(id, &define.Comment{
		OID:          id,
		Description:  text,
		DocumentRefs: im.documentRefs(r, colDocuments),
	})
}

func bindMethod(im *importer, r *row) {
	id, text := r.get(colID), r.get(colDescription)
	if id == "" {
		im.add(r.warnf(colID, "missing method ID; row ignored"))
		return
	}
	if text == "" {
		im.add(r.warnf(colDescription, "method %s has no description; row ignored", id).For(id))
		return
	}
	if im.m.Methods.Has(id) {
		im.duplicate(r, colID, "method", id)
		return
	}
	typ := r.get(colType)
	if typ == "" {
		typ = "Computation"
	}
	name := r.get(colName)
	if name == "" {
		name = id
	}
	_ = im.m.Methods.Insert(id, &define.Method{
		OID:               id,
		Name:              name,
		Type:              typ,
		Description:       text,
		ExpressionContext: r.get(colExpressionContext),
		ExpressionCode:    r.get(colExpressionCode),
		DocumentRefs:      im.documentRefs(r, colDocuments),
	})
}

// bindCodelistTerm binds one term. The first row of a codelist ID creates
// the codelist from the row's codelist columns; a row without a term only
// creates the codelist.
func bindCodelistTerm(im *importer, r *row) {
	id := r.get(colID)
	if id == "" {
		im.add(r.warnf(colID, "missing codelist ID; row ignored"))
		return
	}
	if im.m.Dictionaries.Has(id) {
		im.add(r.warnf(colID, "codelist %s is already an external dictionary; row ignored", id).For(id))
		return
	}
	if !im.m.Codelists.Has(id) {
		im.codelistOrder++
		name := r.get(colName)
		if name == "" {
			name = id
		}
		dataType := r.get(colDataType)
		if dataType == "" {
			dataType = "text"
		}
		_ = im.m.Codelists.Insert(id, &define.Codelist{
			OID:           id,
			Name:          name,
			DataType:      dataType,
			StandardOID:   r.get(colStandard),
			IsNonStandard: im.yesNo(r, colNonStandard),
			Code:          r.get(colCode),
			CommentOID:    r.get(colCommentOID),
			Ordinal:       im.codelistOrder,
		})
	}

	term := r.get(colTerm)
	if term == "" {
		return
	}
	key := define.CodelistItemKey{Codelist: id, Value: term}
	if im.m.CodelistItems.Has(key) {
		im.duplicate(r, colTerm, "term", id+"/"+term)
		return
	}
	decode := r.get(colDecodedValue)
	item := &define.CodelistItem{
		Codelist:   id,
		Value:      term,
		Code:       r.get(colTermCode),
		Decode:     decode,
		Rank:       im.optionalInt(r, colRank),
		Order:      im.ordinal(r, colOrder, im.termOrder[id]),
		Extended:   im.yesNo(r, colExtended) == "Yes",
		Enumerated: decode == "",
	}
	im.termOrder[id]++
	_ = im.m.CodelistItems.Insert(key, item)
}

func bindDictionary(im *importer, r *row) {
	id, dict := r.get(colID), r.get(colDictionary)
	if id == "" {
		im.add(r.warnf(colID, "missing dictionary ID; row ignored"))
		return
	}
	if dict == "" {
		im.add(r.warnf(colDictionary, "dictionary %s has no dictionary name; row ignored", id).For(id))
		return
	}
	if im.m.HasCodelist(id) {
		im.duplicate(r, colID, "codelist", id)
		return
	}
	name := r.get(colName)
	if name == "" {
		name = dict
	}
	dataType := r.get(colDataType)
	if dataType == "" {
		dataType = "text"
	}
	im.dictOrder++
	_ = im.m.Dictionaries.Insert(id, &define.Dictionary{
		OID:        id,
		Name:       name,
		DataType:   dataType,
		Dictionary: dict,
		Version:    r.get(colVersion),
		Ref:        r.get(colRef),
		Href:       r.get(colHref),
		Ordinal:    im.dictOrder,
	})
}

func bindDataset(im *importer, r *row) {
	name := r.get(colDataset)
	if name == "" {
		im.add(r.warnf(colDataset, "missing dataset name; row ignored"))
		return
	}
	oid := define.DatasetOID(name)
	if im.m.Datasets.Has(oid) {
		im.duplicate(r, colDataset, "dataset", name)
		return
	}
	hasNoData, ok := define.ParseHasNoData(r.get(colHasNoData))
	if !ok {
		im.add(r.warnf(colHasNoData, "%q is not Yes or No; ignored", r.get(colHasNoData)))
	}
	d := &define.Dataset{
		OID:             oid,
		Name:            name,
		Domain:          r.get(colDomain),
		Description:     r.get(colDescription),
		Structure:       r.get(colStructure),
		Class:           r.get(colClass),
		SubClass:        r.get(colSubClass),
		Purpose:         r.get(colPurpose),
		Repeating:       im.yesNo(r, colRepeating),
		IsReferenceData: im.yesNo(r, colReferenceData),
		HasNoData:       hasNoData,
		StandardOID:     r.get(colStandard),
		Location:        r.get(colLocation),
		LocationTitle:   r.get(colLocationTitle),
	}
	if len(name) <= 8 {
		d.SASDatasetName = strings.ToUpper(name)
	}
	if d.Location != "" {
		d.ArchiveLocationID = define.LeafID(name)
	}
	d.CommentOID = im.commentRef(r, colCommentOID, colComment, func() string { return define.CommentOID(name) })
	im.datasetOrder++
	d.Ordinal = im.datasetOrder
	_ = im.m.Datasets.Insert(oid, d)
}

// datasetOf resolves the Dataset column of a row by name.
func (im *importer) datasetOf(r *row) (*define.Dataset, bool) {
	name := r.get(colDataset)
	if name == "" {
		im.add(r.warnf(colDataset, "missing dataset; row ignored"))
		return nil, false
	}
	ds, ok := im.m.DatasetByName(name)
	if !ok {
		im.add(r.warnf(colDataset, "unknown dataset %s; row ignored", name).For(name))
		return nil, false
	}
	return ds, true
}

func bindVariable(im *importer, r *row) {
	ds, ok := im.datasetOf(r)
	if !ok {
		return
	}
	name := r.get(colVariable)
	if name == "" {
		im.add(r.warnf(colVariable, "missing variable name; row ignored"))
		return
	}
	oid := r.get(colOID)
	if oid == "" {
		oid = define.VariableOID(ds.Name, name)
	}
	key := define.VariableKey{Dataset: ds.OID, OID: oid}
	if _, dup := im.m.VariableByName(ds.OID, name); dup || im.m.Variables.Has(key) {
		im.duplicate(r, colVariable, "variable", ds.Name+"."+name)
		return
	}
	item := im.itemFields(r, name)
	item.Role = r.get(colRole)
	item.MethodOID = im.methodRef(r,
		func() string { return define.MethodOID(ds.Name, name) },
		"Algorithm to derive "+ds.Name+"."+name)
	item.CommentOID = im.commentRef(r, colCommentOID, colComment,
		func() string { return define.CommentOID(ds.Name, name) })

	v := &define.Variable{
		Dataset:     ds.OID,
		OID:         oid,
		Item:        item,
		KeySequence: im.number(r, colKeySequence),
		Ordinal:     im.ordinal(r, colOrder, im.varOrder[ds.OID]),
	}
	im.varOrder[ds.OID]++
	_ = im.m.Variables.Insert(key, v)
}

// valueGroup is a ValueLevel row group: one value row followed by rows that
// only add conditions. A group whose value row was rejected is skipped.
type valueGroup struct {
	skip     bool
	dataset  *define.Dataset
	variable *define.Variable
	value    *define.Value
	key      string
	where    *define.WhereClause
	owned    map[string]bool
}

func bindValueLevel(im *importer, r *row) {
	if r.blank(colDataset, colVariable) {
		if im.value == nil {
			im.add(r.warnf(colDataset, "condition row without a preceding value row; ignored"))
			return
		}
		im.bindCondition(im.value, r)
		return
	}

	g := &valueGroup{skip: true}
	im.value = g
	ds, ok := im.datasetOf(r)
	if !ok {
		return
	}
	varName := r.get(colVariable)
	parent, ok := im.m.VariableByName(ds.OID, varName)
	if !ok {
		im.add(r.warnf(colVariable, "unknown variable %s.%s; group ignored", ds.Name, varName))
		return
	}

	vlOID := parent.ValueListOID
	if vlOID == "" {
		vlOID = define.ValueListOID(ds.Name, parent.Name)
	}
	vl, vlExists := im.m.ValueLists.Get(vlOID)
	g.key = define.ValueKey(whereValues(r.get(colWhereValue), strings.ToUpper(r.get(colComparator))))
	if g.key == "" {
		n := 1
		if vlExists {
			n += len(vl.ValueOIDs)
		}
		g.key = strconv.Itoa(n)
	}
	oid := r.get(colOID)
	if oid == "" {
		oid = define.ValueOID(ds.Name, parent.Name, g.key)
	}
	if im.m.Values.Has(oid) {
		im.duplicate(r, colOID, "value", oid)
		return
	}

	item := im.itemFields(r, parent.Name)
	item.MethodOID = im.methodRef(r,
		func() string { return define.MethodOID(ds.Name, parent.Name, g.key) },
		"Algorithm to derive "+ds.Name+"."+parent.Name+" ("+g.key+")")
	item.CommentOID = im.commentRef(r, colCommentOID, colComment,
		func() string { return define.CommentOID(ds.Name, parent.Name, g.key) })
	v := &define.Value{
		OID:      oid,
		Dataset:  ds.OID,
		Variable: parent.OID,
		Item:     item,
		Ordinal:  im.ordinal(r, colOrder, im.valueOrder[ds.OID]),
	}
	im.valueOrder[ds.OID]++
	_ = im.m.Values.Insert(oid, v)

	if !vlExists {
		vl = &define.ValueList{OID: vlOID}
		_ = im.m.ValueLists.Insert(vlOID, vl)
	}
	vl.ValueOIDs = append(vl.ValueOIDs, oid)
	parent.ValueListOID = vlOID

	g.skip = false
	g.dataset, g.variable, g.value = ds, parent, v
	g.owned = make(map[string]bool)
	im.bindCondition(g, r)
}

// bindCondition binds the condition columns of a ValueLevel row. It runs for
// the value row itself too; a row without condition columns adds nothing
// unless it names a where clause to reference.
func (im *importer) bindCondition(g *valueGroup, r *row) {
	if g.skip {
		return
	}
	wcOID := r.get(colWhereClauseOID)
	whereVar := r.get(colWhereVariable)
	cmp := strings.ToUpper(r.get(colComparator))
	values := whereValues(r.get(colWhereValue), cmp)
	if whereVar == "" && cmp == "" && len(values) == 0 {
		if wcOID != "" {
			g.attach(wcOID)
		}
		return
	}

	itemOID, ok := im.conditionItem(g.dataset, whereVar)
	if !ok {
		im.add(r.warnf(colWhereVariable, "unknown variable %q; condition ignored", whereVar))
		return
	}
	if len(values) == 0 {
		im.add(r.warnf(colWhereValue, "condition on %s has no value; ignored", whereVar))
		return
	}
	if cmp == "" {
		cmp = define.ComparatorEQ
		if len(values) > 1 {
			cmp = define.ComparatorIN
		}
	}
	if !define.IsComparator(cmp) {
		im.add(r.warnf(colComparator, "unknown comparator %q; condition ignored", cmp))
		return
	}
	if cmp != define.ComparatorIN && cmp != define.ComparatorNOTIN && len(values) > 1 {
		im.add(r.warnf(colWhereValue, "comparator %s takes one value; using %q", cmp, values[0]))
		values = values[:1]
	}

	wc := im.whereClause(g, r, wcOID)
	if wc == nil {
		return
	}
	wc.Conditions = append(wc.Conditions, define.Condition{
		ItemOID:    itemOID,
		Comparator: cmp,
		Values:     values,
		SoftHard:   "Soft",
	})
}

// whereClause returns the clause a condition row adds to: the named one, the
// group's current one, or a new clause under a derived key. A named clause
// that another group defined is only referenced.
func (im *importer) whereClause(g *valueGroup, r *row, oid string) *define.WhereClause {
	if oid == "" {
		if g.where != nil {
			return g.where
		}
		oid = define.WhereClauseOID(g.dataset.Name, g.variable.Name, g.key)
	}
	if wc, ok := im.m.WhereClauses.Get(oid); ok {
		if g.owned[oid] {
			g.where = wc
			return wc
		}
		g.attach(oid)
		im.add(r.warnf(colWhereClauseOID, "where clause %s is already defined; condition ignored", oid).For(oid))
		return nil
	}
	wc := &define.WhereClause{OID: oid}
	_ = im.m.WhereClauses.Insert(oid, wc)
	g.owned[oid] = true
	g.where = wc
	g.attach(oid)
	return wc
}

func (g *valueGroup) attach(oid string) {
	if !slices.Contains(g.value.WhereClauseOIDs, oid) {
		g.value.WhereClauseOIDs = append(g.value.WhereClauseOIDs, oid)
	}
}

// conditionItem resolves a variable named in a condition or an analysis
// dataset: a variable name of the dataset, or any known item OID.
func (im *importer) conditionItem(ds *define.Dataset, name string) (string, bool) {
	if v, ok := im.m.VariableByName(ds.OID, name); ok {
		return v.OID, true
	}
	if im.m.HasItem(name) {
		return name, true
	}
	return "", false
}

func (im *importer) displayByName(name string) (*define.ResultDisplay, bool) {
	if d, ok := im.m.Displays.Get(name); ok {
		return d, true
	}
	for _, d := range im.m.Displays.All() {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

func bindDisplay(im *importer, r *row) {
	name := r.get(colDisplayName)
	if name == "" {
		im.add(r.warnf(colDisplayName, "missing display name; row ignored"))
		return
	}
	oid := r.get(colID)
	if oid == "" {
		oid = define.DisplayOID(name)
	}
	if im.m.Displays.Has(oid) {
		im.duplicate(r, colDisplayName, "result display", oid)
		return
	}
	im.displayOrder++
	_ = im.m.Displays.Insert(oid, &define.ResultDisplay{
		OID:          oid,
		Name:         name,
		Description:  r.get(colDescription),
		DocumentRefs: im.documentRefs(r, colDocuments),
		Ordinal:      im.displayOrder,
	})
}

func bindResult(im *importer, r *row) {
	name := r.get(colDisplayName)
	d, ok := im.displayByName(name)
	if !ok {
		im.add(r.warnf(colDisplayName, "unknown result display %q; row ignored", name).For(name))
		return
	}
	n := im.resultOrder[d.OID] + 1
	oid := r.get(colID)
	if oid == "" {
		oid = define.ResultOID(d.Name, strconv.Itoa(n))
	}
	if im.m.Results.Has(oid) {
		im.duplicate(r, colID, "analysis result", oid)
		return
	}
	im.resultOrder[d.OID] = n
	_ = im.m.Results.Insert(oid, &define.AnalysisResult{
		OID:                oid,
		DisplayOID:         d.OID,
		ParameterOID:       r.get(colParameterOID),
		Reason:             r.get(colReason),
		Purpose:            r.get(colPurposeARM),
		Description:        r.get(colDescription),
		DatasetsCommentOID: r.get(colDatasetsCommentOID),
		Documentation:      r.get(colDocumentation),
		DocumentationRefs:  im.documentRefs(r, colDocumentationRefs),
		ProgrammingContext: r.get(colProgrammingContext),
		ProgrammingCode:    r.get(colProgrammingCode),
		ProgrammingRefs:    im.documentRefs(r, colProgrammingRefs),
		Ordinal:            n,
	})
}

// bindAnalysisDataset binds one analysis dataset. A row with a blank Result
// ID adds to the result of the previous row.
func bindAnalysisDataset(im *importer, r *row) {
	if id := r.get(colResultID); id != "" {
		res, ok := im.m.Results.Get(id)
		if !ok {
			im.add(r.warnf(colResultID, "unknown analysis result %s; group ignored", id).For(id))
		}
		im.result = res
		im.resultSeen = true
	} else if !im.resultSeen {
		im.add(r.warnf(colResultID, "analysis dataset row without a preceding result; ignored"))
		return
	}
	if im.result == nil {
		return
	}
	ds, ok := im.datasetOf(r)
	if !ok {
		return
	}
	if slices.ContainsFunc(im.result.Datasets, func(ad define.AnalysisDataset) bool { return ad.DatasetOID == ds.OID }) {
		im.add(r.warnf(colDataset, "result %s already lists dataset %s; row ignored", im.result.OID, ds.Name))
		return
	}
	ad := define.AnalysisDataset{
		DatasetOID:     ds.OID,
		WhereClauseOID: r.get(colWhereClauseOID),
	}
	for _, name := range splitList(r.get(colVariables)) {
		oid, ok := im.conditionItem(ds, name)
		if !ok {
			im.add(r.warnf(colVariables, "unknown variable %s.%s; ignored", ds.Name, name))
			continue
		}
		ad.VariableOIDs = append(ad.VariableOIDs, oid)
	}
	im.result.Datasets = append(im.result.Datasets, ad)
}

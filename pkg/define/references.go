package define

import "fmt"

// Reference kinds used in diagnostics.
const (
	RefStandard    = "standard"
	RefDocument    = "document"
	RefDataset     = "dataset"
	RefItem        = "item"
	RefValueList   = "value list"
	RefValue       = "value"
	RefWhereClause = "where clause"
	RefCodelist    = "codelist"
	RefMethod      = "method"
	RefComment     = "comment"
	RefDisplay     = "result display"
)

// RefChecker resolves soft foreign keys. An unresolved key is cleared in
// place and reported as a warning, once per (kind, key) no matter how many
// records refer to it.
type RefChecker struct {
	reported map[string]bool
	diags    Diagnostics
}

// NewRefChecker creates an empty checker.
func NewRefChecker() *RefChecker {
	return &RefChecker{reported: make(map[string]bool)}
}

// Check clears *key when it is non-empty and exists reports false.
// It returns true when the key is empty or resolves.
func (c *RefChecker) Check(kind string, key *string, exists func(string) bool, owner string) bool {
	if *key == "" || exists(*key) {
		return true
	}
	c.report(kind, *key, owner)
	*key = ""
	return false
}

// Filter returns keys without the ones that do not resolve.
func (c *RefChecker) Filter(kind string, keys []string, exists func(string) bool, owner string) []string {
	if len(keys) == 0 {
		return keys
	}
	out := keys[:0:0]
	for _, k := range keys {
		if exists(k) {
			out = append(out, k)
			continue
		}
		c.report(kind, k, owner)
	}
	return out
}

// DocumentRefs returns refs without the ones whose document does not exist.
func (c *RefChecker) DocumentRefs(refs []DocumentRef, exists func(string) bool, owner string) []DocumentRef {
	if len(refs) == 0 {
		return refs
	}
	out := refs[:0:0]
	for _, r := range refs {
		if exists(r.DocumentID) {
			out = append(out, r)
			continue
		}
		c.report(RefDocument, r.DocumentID, owner)
	}
	return out
}

// Add records diagnostics that are not about a missing key.
func (c *RefChecker) Add(d ...Diagnostic) { c.diags.Add(d...) }

// Diagnostics returns the warnings collected so far.
func (c *RefChecker) Diagnostics() Diagnostics { return c.diags }

func (c *RefChecker) report(kind, key, owner string) {
	id := kind + "\x00" + key
	if c.reported[id] {
		return
	}
	c.reported[id] = true
	c.diags.Add(Warningf("%s %q referenced by %s does not exist", kind, key, owner).For(key))
}

// HealReferences checks every soft foreign key in the model. Keys that do not
// resolve are cleared and reported as warnings; nothing is deleted.
func (m *Model) HealReferences() Diagnostics {
	c := NewRefChecker()

	hasComment := m.Comments.Has
	hasMethod := m.Methods.Has
	hasStandard := m.Standards.Has
	hasDocument := m.Documents.Has
	hasWhere := m.WhereClauses.Has
	hasDataset := m.Datasets.Has
	hasValue := m.Values.Has
	hasValueList := m.ValueLists.Has

	items := make(map[string]bool)
	for _, v := range m.Variables.All() {
		items[v.OID] = true
	}
	for _, v := range m.Values.All() {
		items[v.OID] = true
	}
	hasItem := func(oid string) bool { return items[oid] }

	if s := m.Study; s != nil {
		c.Check(RefComment, &s.CommentOID, hasComment, "study")
	}
	for _, s := range m.Standards.All() {
		c.Check(RefComment, &s.CommentOID, hasComment, "standard "+s.OID)
	}
	for _, d := range m.Datasets.All() {
		owner := "dataset " + d.OID
		c.Check(RefStandard, &d.StandardOID, hasStandard, owner)
		c.Check(RefComment, &d.CommentOID, hasComment, owner)
	}
	healItem := func(it *Item, owner string) {
		c.Check(RefCodelist, &it.CodelistOID, m.HasCodelist, owner)
		c.Check(RefMethod, &it.MethodOID, hasMethod, owner)
		c.Check(RefComment, &it.CommentOID, hasComment, owner)
		it.Origin.DocumentRefs = c.DocumentRefs(it.Origin.DocumentRefs, hasDocument, owner)
	}
	for _, v := range m.Variables.All() {
		owner := fmt.Sprintf("variable %s/%s", v.Dataset, v.OID)
		healItem(&v.Item, owner)
		c.Check(RefValueList, &v.ValueListOID, hasValueList, owner)
	}
	for _, vl := range m.ValueLists.All() {
		vl.ValueOIDs = c.Filter(RefValue, vl.ValueOIDs, hasValue, "value list "+vl.OID)
	}
	for _, v := range m.Values.All() {
		owner := "value " + v.OID
		healItem(&v.Item, owner)
		v.WhereClauseOIDs = c.Filter(RefWhereClause, v.WhereClauseOIDs, hasWhere, owner)
	}
	for _, wc := range m.WhereClauses.All() {
		owner := "where clause " + wc.OID
		c.Check(RefComment, &wc.CommentOID, hasComment, owner)
		for i := range wc.Conditions {
			c.Check(RefItem, &wc.Conditions[i].ItemOID, hasItem, owner)
		}
	}
	for _, cl := range m.Codelists.All() {
		owner := "codelist " + cl.OID
		c.Check(RefStandard, &cl.StandardOID, hasStandard, owner)
		c.Check(RefComment, &cl.CommentOID, hasComment, owner)
	}
	for _, mt := range m.Methods.All() {
		mt.DocumentRefs = c.DocumentRefs(mt.DocumentRefs, hasDocument, "method "+mt.OID)
	}
	for _, cm := range m.Comments.All() {
		cm.DocumentRefs = c.DocumentRefs(cm.DocumentRefs, hasDocument, "comment "+cm.OID)
	}
	for _, d := range m.Displays.All() {
		d.DocumentRefs = c.DocumentRefs(d.DocumentRefs, hasDocument, "display "+d.OID)
	}
	for _, r := range m.Results.All() {
		owner := "analysis result " + r.OID
		c.Check(RefDisplay, &r.DisplayOID, m.Displays.Has, owner)
		c.Check(RefItem, &r.ParameterOID, hasItem, owner)
		c.Check(RefComment, &r.DatasetsCommentOID, hasComment, owner)
		r.DocumentationRefs = c.DocumentRefs(r.DocumentationRefs, hasDocument, owner)
		r.ProgrammingRefs = c.DocumentRefs(r.ProgrammingRefs, hasDocument, owner)
		for i := range r.Datasets {
			ad := &r.Datasets[i]
			c.Check(RefDataset, &ad.DatasetOID, hasDataset, owner)
			c.Check(RefWhereClause, &ad.WhereClauseOID, hasWhere, owner)
			ad.VariableOIDs = c.Filter(RefItem, ad.VariableOIDs, hasItem, owner)
		}
	}
	return c.Diagnostics()
}

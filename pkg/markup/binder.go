package markup

import (
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
)

// frame is one open element.
type frame struct {
	name string
	path string
	rule *rule
	text strings.Builder
}

// pendingCodelist holds a CodeList until it is known whether it is an
// enumerated codelist or an external dictionary.
type pendingCodelist struct {
	cl        define.Codelist
	path      string
	committed bool
	external  bool
}

// pendingItem is an ItemDef whose item OID was not referenced yet when the
// element closed.
type pendingItem struct {
	oid       string
	item      define.Item
	valueList string
	path      string
}

// bindContext is the "current record" state shared by the rules. A nil field
// means the enclosing element was not seen (or was rejected), and rules that
// need it report the element as orphaned.
type bindContext struct {
	study *define.Study

	dataset *define.Dataset

	valueList *define.ValueList
	value     *define.Value

	where *define.WhereClause
	cond  int // index into where.Conditions, -1 when none

	itemOID       string
	item          *define.Item
	itemValueList string
	origin        *define.Origin

	codelist *pendingCodelist
	clItem   *define.CodelistItem

	method   *define.Method
	comment  *define.Comment
	document *define.Document
	display  *define.ResultDisplay
	result   *define.AnalysisResult
	anaDS    int // index into result.Datasets, -1 when none

	// refs is the DocumentRef list the last def:DocumentRef was appended to.
	refs *[]define.DocumentRef

	// Ordinal counters. The first three are reset by the rule that enters
	// their parent element.
	itemRefs     int
	valueRefs    int
	codelistRefs int
	datasets     int
	codelists    int
	dictionaries int
	documents    int
	displays     int
	results      int
}

// Binder turns the element events of a Define-XML document into a
// [define.Model]. It implements [Handler]; most callers use [Bind].
//
// Every element is matched by its exact path from the root against a table
// of rules. Elements without a rule are ignored.
type Binder struct {
	m     *define.Model
	diags define.Diagnostics
	err   error

	stack []*frame
	ctx   bindContext

	sawRoot bool
	failed  bool

	// varIndex lists the variables created for each item OID so that a
	// later ItemDef can fill all of them in.
	varIndex map[string][]define.VariableKey
	docKinds map[string]define.DocumentKind
	pending  []pendingItem

	// seenItemDefs holds the ItemDef OIDs already read. A repeated one is
	// rejected instead of merged over the first.
	seenItemDefs map[string]bool
}

// NewBinder creates a Binder with an empty model.
func NewBinder() *Binder {
	return &Binder{
		m:        define.New(),
		varIndex: make(map[string][]define.VariableKey),
		docKinds: make(map[string]define.DocumentKind),
		ctx:      bindContext{cond: -1, anaDS: -1},

		seenItemDefs: make(map[string]bool),
	}
}

// Bind reads a Define-XML document and binds it into a new model. The error
// is non-nil only for structural failures: malformed markup or a root
// element other than ODM. Everything else is reported as diagnostics.
func Bind(r io.Reader) (*define.Model, define.Diagnostics, error) {
	b := NewBinder()
	if err := Decode(r, b); err != nil {
		return nil, nil, err
	}
	return b.Finish()
}

// StartElement implements [Handler].
func (b *Binder) StartElement(name string, attrs []Attr) {
	if b.failed {
		return
	}
	if !b.sawRoot {
		b.sawRoot = true
		if name != "ODM" {
			b.failed = true
			b.err = errors.New(errors.ErrCodeInvalidFormat, "root element is %s, want ODM", name)
			return
		}
	}
	path := name
	if n := len(b.stack); n > 0 {
		path = b.stack[n-1].path + "/" + name
	}
	f := &frame{name: name, path: path}
	if r, ok := rules[path]; ok {
		f.rule = &r
	}
	b.stack = append(b.stack, f)
	if f.rule != nil && f.rule.start != nil {
		f.rule.start(b, attrs)
	}
}

// CharData implements [Handler].
func (b *Binder) CharData(text string) {
	if b.failed || len(b.stack) == 0 {
		return
	}
	f := b.stack[len(b.stack)-1]
	if f.rule != nil && f.rule.text != nil {
		f.text.WriteString(text)
	}
}

// EndElement implements [Handler].
func (b *Binder) EndElement(string) {
	if b.failed || len(b.stack) == 0 {
		return
	}
	f := b.stack[len(b.stack)-1]
	if f.rule != nil {
		if f.rule.text != nil {
			f.rule.text(b, strings.TrimSpace(f.text.String()))
		}
		if f.rule.end != nil {
			f.rule.end(b)
		}
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// Finish completes binding after the last event: deferred item definitions
// are attached, document kinds are applied and every soft reference is
// checked.
func (b *Binder) Finish() (*define.Model, define.Diagnostics, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	if !b.sawRoot {
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "document has no root element")
	}

	for _, p := range b.pending {
		if !b.attachItem(p.oid, p.item, p.valueList) {
			b.diags.Add(define.Warningf("ItemDef %s is not referenced by any dataset or value list; ignored", p.oid).
				AtPath(p.path).For(p.oid))
		}
	}
	b.pending = nil

	for _, d := range b.m.Documents.All() {
		if k, ok := b.docKinds[d.ID]; ok {
			d.Kind = k
		}
	}

	b.diags.Add(b.m.HealReferences()...)
	return b.m, b.diags, nil
}

// path returns the path of the innermost open element.
func (b *Binder) path() string {
	if len(b.stack) == 0 {
		return ""
	}
	return b.stack[len(b.stack)-1].path
}

func (b *Binder) warn(format string, args ...any) {
	b.diags.Add(define.Warningf(format, args...).AtPath(b.path()))
}

func (b *Binder) warnKey(key, format string, args ...any) {
	b.diags.Add(define.Warningf(format, args...).AtPath(b.path()).For(key))
}

// orphan reports an element whose enclosing record was never established.
func (b *Binder) orphan() {
	b.warn("%s has no enclosing record; ignored", b.stack[len(b.stack)-1].name)
}

// required returns the named attribute and warns when it is missing.
func (b *Binder) required(attrs []Attr, name string) (string, bool) {
	v := attrValue(attrs, name)
	if v == "" {
		b.warn("%s is missing required attribute %s; ignored", b.stack[len(b.stack)-1].name, name)
		return "", false
	}
	return v, true
}

// ordinal parses an OrderNumber-style attribute. A missing attribute yields
// the counter; an unparseable one yields the counter and a warning.
func (b *Binder) ordinal(attrs []Attr, name string, counter int) int {
	raw := attrValue(attrs, name)
	if raw == "" {
		return counter
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		b.warn("%s %q is not a positive integer; using %d", name, raw, counter)
		return counter
	}
	return n
}

// itemTargetKind tags the result of resolveItem.
type itemTargetKind int

const (
	itemOrphan itemTargetKind = iota
	itemVariables
	itemValue
)

type itemTarget struct {
	kind  itemTargetKind
	vars  []*define.Variable
	value *define.Value
}

// resolveItem finds the records an ItemDef describes: every variable created
// for the OID, otherwise the value-level record with that OID.
func (b *Binder) resolveItem(oid string) itemTarget {
	if keys := b.varIndex[oid]; len(keys) > 0 {
		t := itemTarget{kind: itemVariables}
		for _, k := range keys {
			if v, ok := b.m.Variables.Get(k); ok {
				t.vars = append(t.vars, v)
			}
		}
		if len(t.vars) > 0 {
			return t
		}
	}
	if v, ok := b.m.Values.Get(oid); ok {
		return itemTarget{kind: itemValue, value: v}
	}
	return itemTarget{kind: itemOrphan}
}

// attachItem copies an ItemDef into the records it describes and reports
// whether there were any.
func (b *Binder) attachItem(oid string, item define.Item, valueList string) bool {
	t := b.resolveItem(oid)
	switch t.kind {
	case itemVariables:
		for _, v := range t.vars {
			mergeItemDef(&v.Item, item)
			if valueList != "" {
				v.ValueListOID = valueList
			}
		}
		return true
	case itemValue:
		mergeItemDef(&t.value.Item, item)
		if valueList != "" {
			b.diags.Add(define.Warningf("value-level item %s references value list %s; ignored", oid, valueList).For(oid))
		}
		return true
	}
	return false
}

// mergeItemDef overwrites dst with the ItemDef attributes, keeping the ones
// that come from the referencing ItemRef.
func mergeItemDef(dst *define.Item, def define.Item) {
	mandatory, method, role := dst.Mandatory, dst.MethodOID, dst.Role
	*dst = def
	dst.Mandatory, dst.MethodOID, dst.Role = mandatory, method, role
}

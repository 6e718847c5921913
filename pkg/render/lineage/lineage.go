package lineage

import (
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
)

// NodeKind classifies graph nodes.
type NodeKind string

// Node kinds.
const (
	KindDisplay   NodeKind = "display"
	KindResult    NodeKind = "result"
	KindDataset   NodeKind = "dataset"
	KindVariable  NodeKind = "variable"
	KindParameter NodeKind = "parameter"
	KindWhere     NodeKind = "where"
)

// Node is one vertex of the lineage graph.
type Node struct {
	ID     string
	Kind   NodeKind
	Label  string
	Detail string // description shown by DetailedDOT
}

// Edge points from the dependent record to the record it uses.
type Edge struct {
	From string
	To   string
}

// Graph is the lineage of one or more displays, in model order.
type Graph struct {
	Nodes []Node
	Edges []Edge

	index map[string]int
	edges map[Edge]bool
}

// Options configures [Build].
type Options struct {
	// Display restricts the graph to one result display OID.
	Display string
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

func (g *Graph) addNode(n Node) string {
	if _, ok := g.index[n.ID]; !ok {
		g.index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}
	return n.ID
}

func (g *Graph) addEdge(from, to string) {
	e := Edge{From: from, To: to}
	if from == "" || to == "" || g.edges[e] {
		return
	}
	g.edges[e] = true
	g.Edges = append(g.Edges, e)
}

// Build extracts the lineage graph from m. It fails with NOT_FOUND when
// opts.Display names a display that does not exist.
func Build(m *define.Model, opts Options) (*Graph, error) {
	displays := m.DisplaysByOrdinal()
	if opts.Display != "" {
		if err := errors.ValidateOID(opts.Display); err != nil {
			return nil, err
		}
		d, ok := m.Displays.Get(opts.Display)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "result display %s does not exist", opts.Display)
		}
		displays = []*define.ResultDisplay{d}
	}

	b := &builder{m: m, g: &Graph{index: make(map[string]int), edges: make(map[Edge]bool)}}
	for _, d := range displays {
		did := b.g.addNode(Node{ID: d.OID, Kind: KindDisplay, Label: d.Name, Detail: d.Description})
		for _, r := range m.ResultsOf(d.OID) {
			rid := b.g.addNode(Node{ID: r.OID, Kind: KindResult, Label: r.OID, Detail: r.Description})
			b.g.addEdge(did, rid)
			b.g.addEdge(rid, b.parameter(r.ParameterOID))
			for _, ad := range r.Datasets {
				b.analysisDataset(rid, ad)
			}
		}
	}
	return b.g, nil
}

type builder struct {
	m *define.Model
	g *Graph
}

func (b *builder) analysisDataset(resultID string, ad define.AnalysisDataset) {
	ds, ok := b.m.Datasets.Get(ad.DatasetOID)
	if !ok {
		return
	}
	dsID := b.g.addNode(Node{ID: ds.OID, Kind: KindDataset, Label: ds.Name, Detail: ds.Description})
	b.g.addEdge(resultID, dsID)
	for _, oid := range ad.VariableOIDs {
		if v, ok := b.m.Variables.Get(define.VariableKey{Dataset: ds.OID, OID: oid}); ok {
			b.g.addEdge(dsID, b.variable(v))
		}
	}
	if wc, ok := b.m.WhereClauses.Get(ad.WhereClauseOID); ok {
		wid := b.g.addNode(Node{ID: wc.OID, Kind: KindWhere, Label: b.whereLabel(wc)})
		b.g.addEdge(dsID, wid)
	}
}

func (b *builder) variable(v *define.Variable) string {
	return b.g.addNode(Node{
		ID:     v.Dataset + "/" + v.OID,
		Kind:   KindVariable,
		Label:  v.Name,
		Detail: v.Label,
	})
}

// parameter resolves a ParameterOID to a variable or a value-level item.
// A parameter that is also an analysis variable shares its node.
func (b *builder) parameter(oid string) string {
	if oid == "" {
		return ""
	}
	if vars := b.m.VariablesByOID(oid); len(vars) > 0 {
		id := b.variable(vars[0])
		b.g.Nodes[b.g.index[id]].Kind = KindParameter
		return id
	}
	if v, ok := b.m.Values.Get(oid); ok {
		return b.g.addNode(Node{ID: v.OID, Kind: KindParameter, Label: v.Name, Detail: v.Label})
	}
	return ""
}

// whereLabel renders the conditions as "LBTESTCD EQ GLUC AND ...".
func (b *builder) whereLabel(wc *define.WhereClause) string {
	if len(wc.Conditions) == 0 {
		return wc.OID
	}
	parts := make([]string, 0, len(wc.Conditions))
	for _, c := range wc.Conditions {
		parts = append(parts, b.itemName(c.ItemOID)+" "+c.Comparator+" "+strings.Join(c.Values, ", "))
	}
	return strings.Join(parts, " AND ")
}

func (b *builder) itemName(oid string) string {
	if vars := b.m.VariablesByOID(oid); len(vars) > 0 {
		return vars[0].Name
	}
	if v, ok := b.m.Values.Get(oid); ok {
		return v.Name
	}
	return oid
}

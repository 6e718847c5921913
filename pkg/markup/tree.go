package markup

import (
	"bufio"
	"io"
	"strings"
)

// Node is one element of a document being written. Level is the nesting
// depth used for indentation; [Node.Add] maintains it.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
	Level    int
}

// Elem creates a node with attributes given as name/value pairs. Pairs with
// an empty value are dropped, so optional attributes can be passed
// unconditionally.
func Elem(name string, pairs ...string) *Node {
	n := &Node{Name: name}
	for i := 0; i+1 < len(pairs); i += 2 {
		n.Attr(pairs[i], pairs[i+1])
	}
	return n
}

// Attr appends an attribute unless value is empty and returns n.
func (n *Node) Attr(name, value string) *Node {
	if value != "" {
		n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	}
	return n
}

// Add appends children, fixing up their levels, and returns n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.setLevel(n.Level + 1)
		n.Children = append(n.Children, c)
	}
	return n
}

// WithText sets the text content and returns n.
func (n *Node) WithText(text string) *Node {
	n.Text = text
	return n
}

func (n *Node) setLevel(level int) {
	n.Level = level
	for _, c := range n.Children {
		c.setLevel(level + 1)
	}
}

// ProcInst is a processing instruction written before the root element.
type ProcInst struct {
	Target string
	Inst   string
}

// Document is a complete markup document.
type Document struct {
	PIs  []ProcInst
	Root *Node
}

// Header is the XML declaration every rendered document starts with.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

// Render writes the declaration, the processing instructions and the root
// element to w. Elements are indented by two spaces per level; elements
// without text and children use the self-closing form.
func (d *Document) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header)
	bw.WriteByte('\n')
	for _, pi := range d.PIs {
		bw.WriteString("<?" + pi.Target + " " + pi.Inst + "?>\n")
	}
	if d.Root != nil {
		writeNode(bw, d.Root)
	}
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n *Node) {
	w.WriteString(strings.Repeat("  ", n.Level))
	w.WriteByte('<')
	w.WriteString(n.Name)
	for _, a := range n.Attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		w.WriteString(Escape(a.Value))
		w.WriteByte('"')
	}
	switch {
	case len(n.Children) == 0 && n.Text == "":
		w.WriteString("/>\n")
	case len(n.Children) == 0:
		w.WriteByte('>')
		w.WriteString(Escape(n.Text))
		w.WriteString("</" + n.Name + ">\n")
	default:
		w.WriteString(">\n")
		if n.Text != "" {
			w.WriteString(strings.Repeat("  ", n.Level+1))
			w.WriteString(Escape(n.Text))
			w.WriteByte('\n')
		}
		for _, c := range n.Children {
			writeNode(w, c)
		}
		w.WriteString(strings.Repeat("  ", n.Level))
		w.WriteString("</" + n.Name + ">\n")
	}
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five XML special characters with entity references.
func Escape(s string) string { return escaper.Replace(s) }

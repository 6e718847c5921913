package markup

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/matzehuels/definekit/pkg/errors"
)

// Namespace URIs of the vocabularies Define-XML mixes.
const (
	NamespaceODM   = "http://www.cdisc.org/ns/odm/v1.3"
	NamespaceDef20 = "http://www.cdisc.org/ns/def/v2.0"
	NamespaceDef21 = "http://www.cdisc.org/ns/def/v2.1"
	NamespaceARM   = "http://www.cdisc.org/ns/arm/v1.0"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
)

// prefixes maps namespace URIs to the prefix used in element and attribute
// names handed to a Handler. ODM elements carry no prefix.
var prefixes = map[string]string{
	"":             "",
	NamespaceODM:   "",
	NamespaceDef20: "def",
	NamespaceDef21: "def",
	NamespaceARM:   "arm",
	NamespaceXLink: "xlink",
	NamespaceXML:   "xml",
}

// Attr is one attribute of an element, with a prefixed name such as
// "def:Class" or "xml:lang".
type Attr struct {
	Name  string
	Value string
}

// Handler receives the element events of a document in document order.
type Handler interface {
	StartElement(name string, attrs []Attr)
	CharData(text string)
	EndElement(name string)
}

// Decode reads an XML document from r and feeds its elements to h. Names
// are prefixed by namespace (def:, arm:, xlink:, xml:) regardless of the
// prefixes the document declares; namespace declarations are not passed on.
// Comments, processing instructions and directives are skipped. Documents
// declaring an encoding other than UTF-8 are transcoded.
func Decode(r io.Reader, h Handler) error {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "malformed markup")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			h.StartElement(qualify(t.Name), attrs(t.Attr))
		case xml.CharData:
			h.CharData(string(t))
		case xml.EndElement:
			h.EndElement(qualify(t.Name))
		}
	}
}

func qualify(n xml.Name) string {
	p, ok := prefixes[n.Space]
	if !ok {
		// Undeclared prefix or a foreign vocabulary: keep what we got so that
		// no rule matches it by accident.
		p = n.Space
	}
	if p == "" {
		return n.Local
	}
	return p + ":" + n.Local
}

func attrs(in []xml.Attr) []Attr {
	out := make([]Attr, 0, len(in))
	for _, a := range in {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, Attr{Name: qualify(a.Name), Value: a.Value})
	}
	return out
}

// attrValue returns the value of the named attribute, trimmed.
func attrValue(attrs []Attr, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// Package markup reads and writes Define-XML documents.
//
// # Reading
//
// [Decode] tokenizes a document with encoding/xml and hands element events
// to a [Handler] with namespace-qualified names: the ODM namespace has no
// prefix, Define-XML 2.0 and 2.1 both map to "def", and the ARM, XLink and
// XML namespaces map to "arm", "xlink" and "xml". Namespace declarations are
// not reported as attributes.
//
// [Binder] is the Handler that builds a [define.Model]. It tracks the path of
// every open element from the root (for example
// "ODM/Study/MetaDataVersion/ItemGroupDef/ItemRef") and looks the path up in
// a fixed rule table. A rule may act when the element opens, on its trimmed
// text, and when it closes. Elements without a rule, and everything below
// them, are ignored.
//
// Binding never stops for content problems. Missing required attributes,
// duplicate OIDs, unparseable order numbers and references that do not
// resolve are reported as [define.Diagnostics] and the offending record or
// key is skipped. Only malformed markup or a root element other than ODM
// fail with an error.
//
// ItemDefs may appear before the ItemGroupDef or ValueListDef that refers to
// them. Such definitions are held back and attached in [Binder.Finish]; only
// an ItemDef that nothing refers to by the end of the document is reported.
//
// # Writing
//
// [Build] maps a model to a [Document] tree in the canonical Define-XML
// element order, and [Document.Render] writes it with two-space indentation.
// [Export] does both. The output is Define-XML 2.1 unless the study's
// DefineVersion starts with "2.0", in which case the 2.0 attribute forms are
// used and def:Standards is omitted.
//
// Binding an exported document, normalizing it and exporting it again
// produces the same bytes.
package markup

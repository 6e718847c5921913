package normalize

import "github.com/matzehuels/definekit/pkg/define"

// AssignOrdinals renumbers records densely from 1 while keeping their
// relative order: datasets, codelists, dictionaries, documents and displays
// globally; variables and values per dataset; codelist items per codelist;
// results per display.
//
// Values are ordered by their variable's ordinal, then by position in the
// variable's value list. Values not linked to a variable keep their ordinal.
func AssignOrdinals(m *define.Model) {
	for i, d := range m.DatasetsByOrdinal() {
		d.Ordinal = i + 1
	}
	for _, d := range m.Datasets.All() {
		n := 0
		vars := m.VariablesOf(d.OID)
		for i, v := range vars {
			v.Ordinal = i + 1
		}
		for _, v := range vars {
			for _, oid := range v.Values {
				val, ok := m.Values.Get(oid)
				if !ok || val.Dataset != d.OID || val.Variable != v.OID {
					continue
				}
				n++
				val.Ordinal = n
			}
		}
	}

	for i, cl := range m.CodelistsByOrdinal() {
		cl.Ordinal = i + 1
		for j, it := range m.ItemsOf(cl.OID) {
			it.Order = j + 1
		}
	}
	for i, d := range m.DictionariesByOrdinal() {
		d.Ordinal = i + 1
	}
	for i, d := range m.DocumentsByOrdinal() {
		d.Ordinal = i + 1
	}
	for i, d := range m.DisplaysByOrdinal() {
		d.Ordinal = i + 1
		for j, r := range m.ResultsOf(d.OID) {
			r.Ordinal = j + 1
		}
	}
}

package normalize

import "github.com/matzehuels/definekit/pkg/define"

// DetectCommon marks a variable Common when its name occurs in strictly more
// than half of all datasets, and clears the flag on every other variable.
func DetectCommon(m *define.Model) {
	total := m.Datasets.Len()
	seen := make(map[string]map[string]bool) // name -> dataset OIDs
	for _, v := range m.Variables.All() {
		if !m.Datasets.Has(v.Dataset) {
			continue
		}
		if seen[v.Name] == nil {
			seen[v.Name] = make(map[string]bool)
		}
		seen[v.Name][v.Dataset] = true
	}
	for _, v := range m.Variables.All() {
		v.Common = total > 0 && 2*len(seen[v.Name]) > total
	}
}

package normalize

import (
	"slices"
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
)

// supplementalPrefixes are the dataset name prefixes of supplemental
// qualifier datasets.
var supplementalPrefixes = []string{"SUPP", "SQ"}

// parentName returns the parent domain name of a supplemental dataset name.
func parentName(name string) (string, bool) {
	upper := strings.ToUpper(name)
	for _, p := range supplementalPrefixes {
		if rest, ok := strings.CutPrefix(upper, p); ok && rest != "" {
			return rest, true
		}
	}
	return "", false
}

// parentDataset finds the dataset named name, ignoring case.
func parentDataset(m *define.Model, name string) (*define.Dataset, bool) {
	for _, d := range m.Datasets.All() {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return nil, false
}

// MergeSupplemental folds each SUPPxx or SQxx dataset into dataset xx. Its
// variables move to the parent flagged IsSupplemental and placed after the
// parent's own variables; a variable whose name the parent already has is
// dropped with a warning. Names compare without regard to case. The parent is flagged HasSupplemental and the supplemental
// dataset is deleted. Value-level records and analysis datasets that
// pointed at the supplemental dataset follow their variables.
func MergeSupplemental(m *define.Model, c *define.RefChecker) {
	for _, supp := range m.Datasets.All() {
		name, ok := parentName(supp.Name)
		if !ok {
			continue
		}
		parent, ok := parentDataset(m, name)
		if !ok {
			c.Add(define.Warningf("supplemental dataset %s has no parent dataset %s; kept as is", supp.Name, name).For(supp.OID))
			continue
		}
		if parent.OID == supp.OID {
			continue
		}

		names := make(map[string]bool)
		own := m.VariablesOf(parent.OID)
		for i, v := range own {
			names[strings.ToUpper(v.Name)] = true
			v.Ordinal = i + 1
		}
		last := len(own)
		for _, v := range m.VariablesOf(supp.OID) {
			old := v.Key()
			if names[strings.ToUpper(v.Name)] {
				c.Add(define.Warningf("supplemental variable %s.%s duplicates %s.%s; dropped", supp.Name, v.Name, parent.Name, v.Name).For(v.OID))
				m.Variables.Delete(old)
				continue
			}
			if err := m.Variables.Rekey(old, define.VariableKey{Dataset: parent.OID, OID: v.OID}); err != nil {
				c.Add(define.Warningf("supplemental variable %s.%s cannot move to %s: %v; dropped", supp.Name, v.Name, parent.Name, err).For(v.OID))
				m.Variables.Delete(old)
				continue
			}
			last++
			v.Dataset = parent.OID
			v.IsSupplemental = true
			v.Ordinal = last
			names[strings.ToUpper(v.Name)] = true
		}

		for _, val := range m.Values.All() {
			if val.Dataset == supp.OID {
				val.Dataset = parent.OID
			}
		}
		for _, r := range m.Results.All() {
			for i := range r.Datasets {
				if r.Datasets[i].DatasetOID == supp.OID {
					r.Datasets[i].DatasetOID = parent.OID
				}
			}
			r.Datasets = dedupeAnalysisDatasets(r.Datasets)
		}

		parent.HasSupplemental = true
		m.Datasets.Delete(supp.OID)
	}
}

// dedupeAnalysisDatasets merges entries that now name the same dataset,
// keeping the first entry's where clause and the union of variables.
func dedupeAnalysisDatasets(ads []define.AnalysisDataset) []define.AnalysisDataset {
	out := ads[:0:0]
	index := make(map[string]int)
	for _, ad := range ads {
		i, seen := index[ad.DatasetOID]
		if !seen {
			index[ad.DatasetOID] = len(out)
			out = append(out, ad)
			continue
		}
		for _, v := range ad.VariableOIDs {
			if !slices.Contains(out[i].VariableOIDs, v) {
				out[i].VariableOIDs = append(out[i].VariableOIDs, v)
			}
		}
	}
	return out
}

package normalize

import "github.com/matzehuels/definekit/pkg/define"

// ResolveAnalysisResults checks each analysis result's display, parameter,
// dataset, where clause and variable references. Keys that do not resolve
// are blanked and reported through c; an analysis dataset left without a
// dataset is removed. A variable must belong to the analysis dataset it is
// listed under.
func ResolveAnalysisResults(m *define.Model, c *define.RefChecker) {
	for _, r := range m.Results.All() {
		owner := "analysis result " + r.OID
		c.Check(define.RefDisplay, &r.DisplayOID, m.Displays.Has, owner)
		c.Check(define.RefItem, &r.ParameterOID, m.HasItem, owner)
		c.Check(define.RefComment, &r.DatasetsCommentOID, m.Comments.Has, owner)

		kept := r.Datasets[:0]
		for _, ad := range r.Datasets {
			if !c.Check(define.RefDataset, &ad.DatasetOID, m.Datasets.Has, owner) || ad.DatasetOID == "" {
				continue
			}
			c.Check(define.RefWhereClause, &ad.WhereClauseOID, m.WhereClauses.Has, owner)
			dataset := ad.DatasetOID
			ad.VariableOIDs = c.Filter(define.RefItem, ad.VariableOIDs, func(oid string) bool {
				return m.Variables.Has(define.VariableKey{Dataset: dataset, OID: oid})
			}, owner+" dataset "+dataset)
			kept = append(kept, ad)
		}
		r.Datasets = kept
	}
}

package normalize

import (
	"fmt"
	"slices"

	"github.com/matzehuels/definekit/pkg/define"
)

// LinkValueLevel resolves every variable's value list. Each value reached
// through a list records its dataset and variable; the variable records the
// resolved value OIDs. A value reached from several variables belongs to the
// first one in table order. Where clause keys that do not resolve are
// dropped and reported through c.
func LinkValueLevel(m *define.Model, c *define.RefChecker) {
	for _, v := range m.Values.All() {
		v.Dataset, v.Variable = "", ""
	}
	for _, v := range m.Variables.All() {
		v.Values = nil
		owner := fmt.Sprintf("variable %s/%s", v.Dataset, v.OID)
		if !c.Check(define.RefValueList, &v.ValueListOID, m.ValueLists.Has, owner) || v.ValueListOID == "" {
			continue
		}
		vl, _ := m.ValueLists.Get(v.ValueListOID)
		vl.ValueOIDs = c.Filter(define.RefValue, vl.ValueOIDs, m.Values.Has, "value list "+vl.OID)
		for _, oid := range vl.ValueOIDs {
			val, _ := m.Values.Get(oid)
			if val.Dataset == "" {
				val.Dataset, val.Variable = v.Dataset, v.OID
			}
		}
		v.Values = slices.Clone(vl.ValueOIDs)
	}
	for _, val := range m.Values.All() {
		val.WhereClauseOIDs = c.Filter(define.RefWhereClause, val.WhereClauseOIDs, m.WhereClauses.Has, "value "+val.OID)
	}
}

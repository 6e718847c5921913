// Package lineage draws the analysis results chain of a model as a graph.
//
// Analysis Results Metadata links each result display to its analysis
// results, each result to the datasets it reads, and each dataset usage to
// the variables and where clause involved. [Build] turns that chain into a
// [Graph] of typed nodes:
//
//	display ──▶ result ──▶ dataset ──▶ variable
//	               │           └──────▶ where clause
//	               └──▶ parameter
//
// Nodes are deduplicated, so a dataset used by several results appears once
// with several incoming edges. Variables are identified by dataset and item
// OID because item OIDs may be shared across datasets.
//
// # Rendering
//
// [Graph.DOT] writes Graphviz DOT with one shape per node kind.
// [RenderSVG] lays the DOT out in-process with go-graphviz, so no Graphviz
// installation is needed:
//
//	g, err := lineage.Build(m, lineage.Options{Display: "RD.T14.1"})
//	if err != nil {
//	    return err
//	}
//	svg, err := lineage.RenderSVG(g.DOT())
//
// The model should be normalized first so that dangling references have
// already been reported and cleared; Build skips any that remain.
package lineage

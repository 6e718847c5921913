// Package normalize runs the whole-model derivation passes that turn a
// freshly bound or imported [define.Model] into its canonical form.
//
// # Passes
//
// [Run] applies the passes in a fixed order, each over the complete model:
//
//  1. [LinkValueLevel] connects variables to their value lists and values,
//     and drops where clause references that do not resolve.
//  2. [MergeSupplemental] folds SUPPxx and SQxx datasets into their parent
//     domain (only when [Options.MergeSupplemental] is set).
//  3. [AssignOrdinals] renumbers datasets, variables, values, codelists and
//     analysis results densely from 1, keeping their relative order.
//  4. [DetectCommon] flags variables whose name appears in strictly more than
//     half of all datasets.
//  5. [ResolveAnalysisResults] checks the analysis results chain and blanks
//     references that do not resolve.
//
// Every pass is idempotent: running [Run] on its own output changes nothing.
//
// # Diagnostics
//
// The passes share one [define.RefChecker], so a key that is still missing
// is reported once per run no matter how many passes look at it. Keys that
// were already cleared by [define.Model.HealReferences] during binding are
// empty by the time normalization runs and are not reported again.
package normalize

// Package define provides the normalized in-memory metadata model that both
// Define-XML documents and metadata workbooks are bound into.
//
// # Overview
//
// A submission's metadata (datasets, variables, value-level metadata,
// codelists, methods, comments, documents and analysis results) arrives in two
// interchangeable formats. Both ingestion paths produce a [Model], which is a
// relational object graph: every record kind lives in its own [Table], keyed
// by a symbolic key that is either carried by the source or derived from
// human-readable names (see [VariableOID], [ValueOID] and friends).
//
// # Soft Foreign Keys
//
// Records never point at each other. A variable that uses a codelist stores
// the codelist's OID as a plain string field, and the codelist is looked up
// later through the model:
//
//	v, _ := m.Variables.Get(define.VariableKey{Dataset: "IG.AE", OID: "IT.AE.AESEV"})
//	if cl, ok := m.Codelists.Get(v.CodelistOID); ok {
//	    fmt.Println(cl.Name)
//	}
//
// A key that points at nothing is an ordinary, testable condition rather than
// a dangling pointer. [Model.HealReferences] walks every soft key once
// ingestion is complete, clears the ones that do not resolve and reports each
// missing key exactly once.
//
// # Tables
//
// [Table] keeps insertion order and never overwrites: inserting an existing
// key returns [ErrDuplicateKey] and leaves the stored record untouched.
// Ordered listings such as [Model.VariablesOf] sort by the record's ordinal and
// fall back to insertion order for ties.
//
// # Diagnostics
//
// Recoverable problems found while binding, importing or normalizing are
// collected as [Diagnostic] values rather than returned as errors. A
// diagnostic carries a [Severity], an optional sheet/row/column location for
// workbook input, an optional element path for markup input, and the key it
// concerns. Callers decide whether a [Diagnostics] list containing errors
// should block further processing.
//
// # Concurrency
//
// A Model is owned by exactly one ingestion pass and then handed as a unit to
// normalization and serialization. It is not safe for concurrent use.
package define

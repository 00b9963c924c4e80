// Package engine evaluates relational-algebra plans against a Source.
//
// ARCHITECTURE:
//
// Recursive Interpreter:
// Evaluate walks the plan bottom-up, one case per plan node, and each case
// returns a freshly built ir.Table. Tables are owned by the evaluator while
// it works on them: projection permutes rows in place, selection filters in
// place, and union appends to the left table. Plans are never modified, so
// the same plan can be evaluated again without copying it first.
//
// Fused Nodes:
// ReadSelectProjectRename and JoinProjectRename execute several logical
// operators in one pass. Their results are identical to the unfused chains
// they replace; the optimizer relies on this when it fuses.
//
// Hash Join:
// JoinProjectRename splits its condition into equi-join pairs and a
// residual. Left rows are bucketed by a murmur3 hash of their key columns,
// right rows probe the buckets, and every candidate pair is verified by
// exact value equality before the residual filter runs. See join.go.
//
// Value Semantics:
// Comparisons never fail on mismatched types. Equality across Int and Text
// is false, and ordering is only defined between two Ints. The only errors
// raised while evaluating a condition are SchemaErrors for unknown columns.
package engine

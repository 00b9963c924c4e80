// Package queryir provides the relational-algebra plan tree evaluated by the
// engine and rewritten by the optimizer.
//
// ARCHITECTURE:
//
//	[plan document] → compiler → [queryir.Plan] → optimizer passes → engine → [ir.Table]
//	                                            ↘ querysql → [SQLite SQL]
//
// SEALED INTERFACES:
//
// Plan and Condition are sealed interfaces using the marker method pattern.
// Only types in this package implement them, which keeps type switches in
// the engine, the optimizer and the SQL backend exhaustive:
//
//	switch p := plan.(type) {
//	case *Select:
//	    // filter rows
//	case *Product:
//	    // cross product
//	...
//	}
//
// OWNERSHIP:
//
// A plan is a plain owning tree: no node is shared between two parents and
// no node points back at its parent. Optimizer passes build new trees rather
// than editing their input, and the engine never mutates a plan, so a plan
// may be evaluated repeatedly. Clone produces an independent deep copy when
// a caller needs one.
//
// FUSED NODES:
//
// ReadSelectProjectRename and JoinProjectRename are produced only by the
// optimizer. Each stands for a chain of logical operators executed in a
// single pass over the rows.
package queryir

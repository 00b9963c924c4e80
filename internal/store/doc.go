// Package store provides the relations plans read from and write to.
//
// Three backends satisfy engine.Source and optimizer.ColumnSource:
//   - CSVDir: a directory of CSV files, one relation per file
//   - Store: a SQLite database, one relation per table
//   - Memory: in-memory tables, for tests and staging
//
// # Cell Typing
//
// Every cell is typed on the way in: a cell that parses as a 64-bit integer
// literal is an Int, anything else is Text. SQLite INTEGER values are Ints,
// NULL is the empty Text, and other SQLite values follow the textual rule.
//
// # Ownership
//
// Read always returns a table the caller owns. The evaluator rewrites rows
// in place, so backends never hand out shared rows.
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - Catalog table relq_tables: Column lists and provenance of imported tables
package store

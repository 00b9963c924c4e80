// Package ir provides the value, schema and table types shared by every
// other relq package.
//
// ir imports nothing internal. The query tree (queryir), the evaluator
// (engine) and the optimizer all build on these types, which keeps ir the
// foundational layer with no circular dependencies.
//
// Key constraints:
//   - Values are Int, Text or ColumnRef; ColumnRef never appears in a row
//   - A Schema is a bijection between column names and positions 0..n-1
//   - Every row of a Table has exactly Schema.Len() values
//   - Comparisons never fail: mismatched types are simply unequal
package ir

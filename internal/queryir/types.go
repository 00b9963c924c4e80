package queryir

import "github.com/roach88/relq/internal/ir"

// Plan represents a node of a relational-algebra plan.
//
// This is a sealed interface - only types in this package implement it.
type Plan interface {
	planNode() // Marker method - seals interface to this package
}

// Condition represents a boolean predicate over a row.
//
// This is a sealed interface - only types in this package implement it.
type Condition interface {
	conditionNode() // Marker method - seals interface to this package
}

// Select keeps the rows of Input for which Cond holds.
type Select struct {
	Input Plan
	Cond  Condition
}

func (*Select) planNode() {}

// Project restricts Input to Columns, in that order.
type Project struct {
	Input   Plan
	Columns []string
}

func (*Project) planNode() {}

// Rename renames Old[i] to New[i] for every i. Rows are untouched.
type Rename struct {
	Input Plan
	Old   []string
	New   []string
}

func (*Rename) planNode() {}

// Except keeps each Left row for which no Right row is equal (bag semantics).
type Except struct {
	Left  Plan
	Right Plan
}

func (*Except) planNode() {}

// Union concatenates Right rows after Left rows (bag semantics).
// Both operands must expose the same set of columns.
type Union struct {
	Left  Plan
	Right Plan
}

func (*Union) planNode() {}

// Product pairs every Left row with every Right row.
type Product struct {
	Left  Plan
	Right Plan
}

func (*Product) planNode() {}

// Load reads the external relation named Source.
//
// Columns is nil until column discovery has run; afterwards it lists the
// relation's column names in declaration order (possibly empty).
type Load struct {
	Source  string
	Columns []string
}

func (*Load) planNode() {}

// Discovered reports whether column discovery has filled Columns.
func (l *Load) Discovered() bool {
	return l.Columns != nil
}

// ReadSelectProjectRename is the fused form of
//
//	Rename(Project(Select(Load(Source), Cond), Old), Old, New)
//
// executed as a single pass over the relation's rows. The projected column
// at position i is named New[i].
type ReadSelectProjectRename struct {
	Source string
	Cond   Condition
	Old    []string
	New    []string
}

func (*ReadSelectProjectRename) planNode() {}

// JoinProjectRename is the fused form of
//
//	Rename(Project(Select(Product(Left, Right), Cond), Old), Old, New)
//
// executed as a hash join. Naming follows ReadSelectProjectRename.
type JoinProjectRename struct {
	Left  Plan
	Right Plan
	Cond  Condition
	Old   []string
	New   []string
}

func (*JoinProjectRename) planNode() {}

// Not negates a condition.
type Not struct {
	Cond Condition
}

func (*Not) conditionNode() {}

// And holds when both operands hold. Left is evaluated first.
type And struct {
	Left  Condition
	Right Condition
}

func (*And) conditionNode() {}

// Or holds when either operand holds. Left is evaluated first.
type Or struct {
	Left  Condition
	Right Condition
}

func (*Or) conditionNode() {}

// Equal compares two operands with ir.Equal.
// Operands are literals or ir.ColumnRef references.
type Equal struct {
	Left  ir.Value
	Right ir.Value
}

func (*Equal) conditionNode() {}

// Less holds when Left < Right, for Int operands only.
type Less struct {
	Left  ir.Value
	Right ir.Value
}

func (*Less) conditionNode() {}

// More holds when Left > Right, for Int operands only.
type More struct {
	Left  ir.Value
	Right ir.Value
}

func (*More) conditionNode() {}

// Conjoin folds conditions into a left-nested And, preserving order.
// Returns nil for an empty list.
func Conjoin(conds ...Condition) Condition {
	var out Condition
	for _, c := range conds {
		if out == nil {
			out = c
			continue
		}
		out = &And{Left: out, Right: c}
	}
	return out
}

package queryir

import (
	"fmt"
	"slices"

	"github.com/roach88/relq/internal/ir"
)

// Clone returns an independent deep copy of a plan.
func Clone(p Plan) Plan {
	switch n := p.(type) {
	case nil:
		return nil
	case *Select:
		return &Select{Input: Clone(n.Input), Cond: CloneCondition(n.Cond)}
	case *Project:
		return &Project{Input: Clone(n.Input), Columns: slices.Clone(n.Columns)}
	case *Rename:
		return &Rename{Input: Clone(n.Input), Old: slices.Clone(n.Old), New: slices.Clone(n.New)}
	case *Except:
		return &Except{Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Union:
		return &Union{Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Product:
		return &Product{Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Load:
		return &Load{Source: n.Source, Columns: slices.Clone(n.Columns)}
	case *ReadSelectProjectRename:
		return &ReadSelectProjectRename{
			Source: n.Source,
			Cond:   CloneCondition(n.Cond),
			Old:    slices.Clone(n.Old),
			New:    slices.Clone(n.New),
		}
	case *JoinProjectRename:
		return &JoinProjectRename{
			Left:  Clone(n.Left),
			Right: Clone(n.Right),
			Cond:  CloneCondition(n.Cond),
			Old:   slices.Clone(n.Old),
			New:   slices.Clone(n.New),
		}
	default:
		panic(fmt.Sprintf("queryir: unknown plan type %T", p))
	}
}

// CloneCondition returns an independent deep copy of a condition.
func CloneCondition(c Condition) Condition {
	switch n := c.(type) {
	case nil:
		return nil
	case *Not:
		return &Not{Cond: CloneCondition(n.Cond)}
	case *And:
		return &And{Left: CloneCondition(n.Left), Right: CloneCondition(n.Right)}
	case *Or:
		return &Or{Left: CloneCondition(n.Left), Right: CloneCondition(n.Right)}
	case *Equal:
		return &Equal{Left: n.Left, Right: n.Right}
	case *Less:
		return &Less{Left: n.Left, Right: n.Right}
	case *More:
		return &More{Left: n.Left, Right: n.Right}
	default:
		panic(fmt.Sprintf("queryir: unknown condition type %T", c))
	}
}

// EqualPlan reports whether two plans are structurally identical.
//
// Equality is purely structural: And(a, b) and And(b, a) differ, as do
// Equal(x, y) and Equal(y, x). Load nodes compare their discovered columns
// too, with nil (undiscovered) distinct from empty.
func EqualPlan(a, b Plan) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Select:
		y, ok := b.(*Select)
		return ok && EqualPlan(x.Input, y.Input) && EqualCondition(x.Cond, y.Cond)
	case *Project:
		y, ok := b.(*Project)
		return ok && slices.Equal(x.Columns, y.Columns) && EqualPlan(x.Input, y.Input)
	case *Rename:
		y, ok := b.(*Rename)
		return ok && slices.Equal(x.Old, y.Old) && slices.Equal(x.New, y.New) && EqualPlan(x.Input, y.Input)
	case *Except:
		y, ok := b.(*Except)
		return ok && EqualPlan(x.Left, y.Left) && EqualPlan(x.Right, y.Right)
	case *Union:
		y, ok := b.(*Union)
		return ok && EqualPlan(x.Left, y.Left) && EqualPlan(x.Right, y.Right)
	case *Product:
		y, ok := b.(*Product)
		return ok && EqualPlan(x.Left, y.Left) && EqualPlan(x.Right, y.Right)
	case *Load:
		y, ok := b.(*Load)
		return ok && x.Source == y.Source && x.Discovered() == y.Discovered() && slices.Equal(x.Columns, y.Columns)
	case *ReadSelectProjectRename:
		y, ok := b.(*ReadSelectProjectRename)
		return ok && x.Source == y.Source && EqualCondition(x.Cond, y.Cond) &&
			slices.Equal(x.Old, y.Old) && slices.Equal(x.New, y.New)
	case *JoinProjectRename:
		y, ok := b.(*JoinProjectRename)
		return ok && EqualPlan(x.Left, y.Left) && EqualPlan(x.Right, y.Right) && EqualCondition(x.Cond, y.Cond) &&
			slices.Equal(x.Old, y.Old) && slices.Equal(x.New, y.New)
	default:
		return false
	}
}

// EqualCondition reports whether two conditions are structurally identical.
func EqualCondition(a, b Condition) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Not:
		y, ok := b.(*Not)
		return ok && EqualCondition(x.Cond, y.Cond)
	case *And:
		y, ok := b.(*And)
		return ok && EqualCondition(x.Left, y.Left) && EqualCondition(x.Right, y.Right)
	case *Or:
		y, ok := b.(*Or)
		return ok && EqualCondition(x.Left, y.Left) && EqualCondition(x.Right, y.Right)
	case *Equal:
		y, ok := b.(*Equal)
		return ok && x.Left == y.Left && x.Right == y.Right
	case *Less:
		y, ok := b.(*Less)
		return ok && x.Left == y.Left && x.Right == y.Right
	case *More:
		y, ok := b.(*More)
		return ok && x.Left == y.Left && x.Right == y.Right
	default:
		return false
	}
}

// UsedColumns returns the column names referenced by a condition, in first
// appearance order, without duplicates.
func UsedColumns(c Condition) []string {
	var cols []string
	seen := make(map[string]struct{})
	add := func(v ir.Value) {
		ref, ok := v.(ir.ColumnRef)
		if !ok {
			return
		}
		if _, dup := seen[string(ref)]; dup {
			return
		}
		seen[string(ref)] = struct{}{}
		cols = append(cols, string(ref))
	}

	var walk func(Condition)
	walk = func(c Condition) {
		switch n := c.(type) {
		case *Not:
			walk(n.Cond)
		case *And:
			walk(n.Left)
			walk(n.Right)
		case *Or:
			walk(n.Left)
			walk(n.Right)
		case *Equal:
			add(n.Left)
			add(n.Right)
		case *Less:
			add(n.Left)
			add(n.Right)
		case *More:
			add(n.Left)
			add(n.Right)
		}
	}
	walk(c)
	return cols
}

// RenameColumns returns a copy of c with every column reference found in
// mapping replaced by its mapped name. Other references are kept.
func RenameColumns(c Condition, mapping map[string]string) Condition {
	rename := func(v ir.Value) ir.Value {
		if ref, ok := v.(ir.ColumnRef); ok {
			if to, found := mapping[string(ref)]; found {
				return ir.ColumnRef(to)
			}
		}
		return v
	}

	switch n := c.(type) {
	case nil:
		return nil
	case *Not:
		return &Not{Cond: RenameColumns(n.Cond, mapping)}
	case *And:
		return &And{Left: RenameColumns(n.Left, mapping), Right: RenameColumns(n.Right, mapping)}
	case *Or:
		return &Or{Left: RenameColumns(n.Left, mapping), Right: RenameColumns(n.Right, mapping)}
	case *Equal:
		return &Equal{Left: rename(n.Left), Right: rename(n.Right)}
	case *Less:
		return &Less{Left: rename(n.Left), Right: rename(n.Right)}
	case *More:
		return &More{Left: rename(n.Left), Right: rename(n.Right)}
	default:
		panic(fmt.Sprintf("queryir: unknown condition type %T", c))
	}
}

// Children returns the direct sub-plans of a node, left to right.
func Children(p Plan) []Plan {
	switch n := p.(type) {
	case *Select:
		return []Plan{n.Input}
	case *Project:
		return []Plan{n.Input}
	case *Rename:
		return []Plan{n.Input}
	case *Except:
		return []Plan{n.Left, n.Right}
	case *Union:
		return []Plan{n.Left, n.Right}
	case *Product:
		return []Plan{n.Left, n.Right}
	case *JoinProjectRename:
		return []Plan{n.Left, n.Right}
	default:
		return nil
	}
}

// WithChildren returns a copy of p whose sub-plans are replaced by children,
// which must match Children(p) in number. Non-plan fields are copied.
func WithChildren(p Plan, children []Plan) Plan {
	switch n := p.(type) {
	case *Select:
		return &Select{Input: children[0], Cond: CloneCondition(n.Cond)}
	case *Project:
		return &Project{Input: children[0], Columns: slices.Clone(n.Columns)}
	case *Rename:
		return &Rename{Input: children[0], Old: slices.Clone(n.Old), New: slices.Clone(n.New)}
	case *Except:
		return &Except{Left: children[0], Right: children[1]}
	case *Union:
		return &Union{Left: children[0], Right: children[1]}
	case *Product:
		return &Product{Left: children[0], Right: children[1]}
	case *JoinProjectRename:
		return &JoinProjectRename{
			Left:  children[0],
			Right: children[1],
			Cond:  CloneCondition(n.Cond),
			Old:   slices.Clone(n.Old),
			New:   slices.Clone(n.New),
		}
	default:
		return Clone(p)
	}
}

// Describe returns a short operator name for logs and error messages.
func Describe(p Plan) string {
	switch p.(type) {
	case *Select:
		return "selection"
	case *Project:
		return "projection"
	case *Rename:
		return "renaming"
	case *Except:
		return "minus"
	case *Union:
		return "union"
	case *Product:
		return "product"
	case *Load:
		return "load"
	case *ReadSelectProjectRename:
		return "rspr"
	case *JoinProjectRename:
		return "jpr"
	default:
		return fmt.Sprintf("%T", p)
	}
}

// OrderedRename turns positional old/new lists into a Rename whose pairs
// apply in order: a column is renamed away before another pair takes its
// name. A cycle of names cannot be ordered and is a SchemaError.
func OrderedRename(oldNames, newNames []string) (*Rename, error) {
	if len(oldNames) != len(newNames) {
		return nil, ir.NewSchemaError("", "%d old names but %d new names", len(oldNames), len(newNames))
	}

	var pending []int
	for i := range oldNames {
		if oldNames[i] != newNames[i] {
			pending = append(pending, i)
		}
	}

	rename := &Rename{}
	for len(pending) > 0 {
		progressed := false
		for k := 0; k < len(pending); k++ {
			i := pending[k]
			if slices.ContainsFunc(pending, func(j int) bool { return oldNames[j] == newNames[i] }) {
				continue
			}
			rename.Old = append(rename.Old, oldNames[i])
			rename.New = append(rename.New, newNames[i])
			pending = slices.Delete(pending, k, k+1)
			k--
			progressed = true
		}
		if !progressed {
			return nil, ir.NewSchemaError(newNames[pending[0]], "renaming %v to %v needs a cycle of names", oldNames, newNames)
		}
	}
	return rename, nil
}

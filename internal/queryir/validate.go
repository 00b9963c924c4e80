package queryir

import "fmt"

// ValidationResult contains the structural analysis of a plan.
type ValidationResult struct {
	// Valid indicates the plan has no structural problems.
	Valid bool

	// Problems lists every structural problem found, in tree order.
	// Empty when Valid is true.
	Problems []string

	// Fused indicates the plan contains fused nodes. Fused plans are valid
	// but must be unfused before the pushdown passes can process them.
	Fused bool
}

// Validate checks a plan for structural problems that would make evaluation
// fail regardless of the data:
//  1. Rename lists of different lengths
//  2. Names repeated in a projection or rename target list
//  3. Rename chains, where a later pair renames an earlier pair's target
//  4. Empty load sources
//  5. Missing sub-plans or conditions
//
// Column existence is not checked: it depends on the relations' schemas.
//
// Validate is a pure function with no side effects.
func Validate(p Plan) ValidationResult {
	v := &validator{
		problems: []string{},
	}
	v.validatePlan(p)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
		Fused:    v.fused,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
	fused    bool
}

// addProblem appends a problem message.
func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// validatePlan recursively validates a plan node.
func (v *validator) validatePlan(p Plan) {
	if p == nil {
		v.addProblem("missing sub-plan")
		return
	}

	switch n := p.(type) {
	case *Select:
		v.validateCondition("selection", n.Cond)
	case *Project:
		v.checkUnique("projection", n.Columns)
	case *Rename:
		v.validateRename("renaming", n.Old, n.New)
	case *Load:
		if n.Source == "" {
			v.addProblem("load: empty source name")
		}
	case *ReadSelectProjectRename:
		v.fused = true
		if n.Source == "" {
			v.addProblem("rspr: empty source name")
		}
		v.validateCondition("rspr", n.Cond)
		v.validateNaming("rspr", n.Old, n.New)
	case *JoinProjectRename:
		v.fused = true
		v.validateCondition("jpr", n.Cond)
		v.validateNaming("jpr", n.Old, n.New)
	case *Except, *Union, *Product:
		// Binary nodes carry no fields of their own
	default:
		v.addProblem("unknown plan type: %T", p)
		return
	}

	for _, child := range Children(p) {
		v.validatePlan(child)
	}
}

// validateNaming checks the positional old/new lists of a fused node.
func (v *validator) validateNaming(op string, oldNames, newNames []string) {
	if len(oldNames) != len(newNames) {
		v.addProblem("%s: %d old attributes but %d new attributes", op, len(oldNames), len(newNames))
	}
	v.checkUnique(op+" old attributes", oldNames)
	v.checkUnique(op+" new attributes", newNames)
}

// validateRename checks a rename's lists and the order of its pairs.
func (v *validator) validateRename(op string, oldNames, newNames []string) {
	v.validateNaming(op, oldNames, newNames)

	// Pairs apply in order; a later pair must not rename a column an
	// earlier pair produced.
	for i, newName := range newNames {
		for j := i + 1; j < len(oldNames); j++ {
			if oldNames[j] == newName && oldNames[i] != newName {
				v.addProblem("%s: attribute %q is renamed again after being produced", op, newName)
			}
		}
	}
}

// checkUnique reports names listed more than once.
func (v *validator) checkUnique(op string, names []string) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			v.addProblem("%s: attribute %q listed twice", op, name)
			continue
		}
		seen[name] = struct{}{}
	}
}

// validateCondition checks a condition tree for missing operands.
func (v *validator) validateCondition(op string, c Condition) {
	switch n := c.(type) {
	case nil:
		v.addProblem("%s: missing condition", op)
	case *Not:
		v.validateCondition(op, n.Cond)
	case *And:
		v.validateCondition(op, n.Left)
		v.validateCondition(op, n.Right)
	case *Or:
		v.validateCondition(op, n.Left)
		v.validateCondition(op, n.Right)
	case *Equal:
		v.checkOperands(op, n.Left, n.Right)
	case *Less:
		v.checkOperands(op, n.Left, n.Right)
	case *More:
		v.checkOperands(op, n.Left, n.Right)
	default:
		v.addProblem("%s: unknown condition type: %T", op, c)
	}
}

func (v *validator) checkOperands(op string, operands ...any) {
	for _, o := range operands {
		if o == nil {
			v.addProblem("%s: comparison with a missing operand", op)
		}
	}
}

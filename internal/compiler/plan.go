package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// Operation names of plan documents.
const (
	OpSelection  = "selection"
	OpProjection = "projection"
	OpRenaming   = "renaming"
	OpMinus      = "minus"
	OpException  = "exception" // accepted as an alias of minus
	OpUnion      = "union"
	OpProduct    = "product"
	OpLoad       = "load"
	OpRSPR       = "rspr"
	OpJPR        = "jpr"
)

const (
	argObject        = "object"
	argObject1       = "object1"
	argObject2       = "object2"
	argCondition     = "condition"
	argAttributes    = "attributes"
	argOldAttributes = "old attributes"
	argNewAttributes = "new attributes"
	argFilename      = "filename"
	argColumns       = "columns"
)

// Decode parses a plan document.
func Decode(data []byte) (queryir.Plan, error) {
	return decode(data)
}

// DecodeFile parses the plan document stored at path. Error positions name
// the file.
func DecodeFile(path string) (queryir.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return decode(data, cue.Filename(path))
}

func decode(data []byte, opts ...cue.BuildOption) (queryir.Plan, error) {
	v := cuecontext.New().CompileBytes(data, opts...)
	if err := v.Err(); err != nil {
		return nil, documentError(err)
	}
	return CompilePlan(v)
}

// CompilePlan converts a CUE value holding a plan document into a plan.
//
// Loads carry their "columns" argument when present, so an encoded
// discovered plan decodes to the same tree.
func CompilePlan(v cue.Value) (queryir.Plan, error) {
	if err := v.Err(); err != nil {
		return nil, documentError(err)
	}

	op, err := stringField(v, "operation")
	if err != nil {
		return nil, err
	}
	args, err := field(v, "args")
	if err != nil {
		return nil, err
	}

	switch op {
	case OpSelection:
		input, err := childField(args, argObject)
		if err != nil {
			return nil, err
		}
		cond, err := conditionField(args)
		if err != nil {
			return nil, err
		}
		return &queryir.Select{Input: input, Cond: cond}, nil

	case OpProjection:
		input, err := childField(args, argObject)
		if err != nil {
			return nil, err
		}
		cols, err := stringListField(args, argAttributes)
		if err != nil {
			return nil, err
		}
		return &queryir.Project{Input: input, Columns: cols}, nil

	case OpRenaming:
		input, err := childField(args, argObject)
		if err != nil {
			return nil, err
		}
		oldNames, newNames, err := renameFields(args)
		if err != nil {
			return nil, err
		}
		return &queryir.Rename{Input: input, Old: oldNames, New: newNames}, nil

	case OpMinus, OpException:
		left, right, err := childPair(args)
		if err != nil {
			return nil, err
		}
		return &queryir.Except{Left: left, Right: right}, nil

	case OpUnion:
		left, right, err := childPair(args)
		if err != nil {
			return nil, err
		}
		return &queryir.Union{Left: left, Right: right}, nil

	case OpProduct:
		left, right, err := childPair(args)
		if err != nil {
			return nil, err
		}
		return &queryir.Product{Left: left, Right: right}, nil

	case OpLoad:
		name, err := stringField(args, argFilename)
		if err != nil {
			return nil, err
		}
		load := &queryir.Load{Source: name}
		if lookup(args, argColumns).Exists() {
			load.Columns, err = stringListField(args, argColumns)
			if err != nil {
				return nil, err
			}
		}
		return load, nil

	case OpRSPR:
		name, err := stringField(args, argFilename)
		if err != nil {
			return nil, err
		}
		cond, err := conditionField(args)
		if err != nil {
			return nil, err
		}
		oldNames, newNames, err := renameFields(args)
		if err != nil {
			return nil, err
		}
		return &queryir.ReadSelectProjectRename{Source: name, Cond: cond, Old: oldNames, New: newNames}, nil

	case OpJPR:
		left, right, err := childPair(args)
		if err != nil {
			return nil, err
		}
		cond, err := conditionField(args)
		if err != nil {
			return nil, err
		}
		oldNames, newNames, err := renameFields(args)
		if err != nil {
			return nil, err
		}
		return &queryir.JoinProjectRename{Left: left, Right: right, Cond: cond, Old: oldNames, New: newNames}, nil

	default:
		return nil, ir.NewUnsupportedOperatorError("%s: unknown operation %q", position(v), op)
	}
}

func lookup(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

// field returns the named member of v, which must exist.
func field(v cue.Value, name string) (cue.Value, error) {
	f := lookup(v, name)
	if !f.Exists() {
		return cue.Value{}, &CompileError{
			Field:   name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	return f, nil
}

func stringField(v cue.Value, name string) (string, error) {
	f, err := field(v, name)
	if err != nil {
		return "", err
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{Field: name, Message: "must be a string", Pos: f.Pos()}
	}
	return s, nil
}

// stringListField returns the named list of strings. An empty list yields an
// empty, non-nil slice.
func stringListField(v cue.Value, name string) ([]string, error) {
	f, err := field(v, name)
	if err != nil {
		return nil, err
	}
	iter, err := f.List()
	if err != nil {
		return nil, &CompileError{Field: name, Message: "must be a list of strings", Pos: f.Pos()}
	}

	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: name, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func renameFields(args cue.Value) ([]string, []string, error) {
	oldNames, err := stringListField(args, argOldAttributes)
	if err != nil {
		return nil, nil, err
	}
	newNames, err := stringListField(args, argNewAttributes)
	if err != nil {
		return nil, nil, err
	}
	return oldNames, newNames, nil
}

func childField(args cue.Value, name string) (queryir.Plan, error) {
	f, err := field(args, name)
	if err != nil {
		return nil, err
	}
	return CompilePlan(f)
}

func childPair(args cue.Value) (queryir.Plan, queryir.Plan, error) {
	left, err := childField(args, argObject1)
	if err != nil {
		return nil, nil, err
	}
	right, err := childField(args, argObject2)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func position(v cue.Value) string {
	if pos := v.Pos(); pos.IsValid() {
		return pos.String()
	}
	return "plan"
}

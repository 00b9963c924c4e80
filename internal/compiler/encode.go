package compiler

import (
	"fmt"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// Encode renders a plan as a canonical plan document: sorted keys, NFC
// strings, no insignificant whitespace. Decode(Encode(p)) is structurally
// equal to p.
//
// Except is written as "minus". Discovered loads keep their columns.
func Encode(p queryir.Plan) ([]byte, error) {
	doc, err := Document(p)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(doc)
}

// Document converts a plan to its document tree.
func Document(p queryir.Plan) (map[string]any, error) {
	switch n := p.(type) {
	case *queryir.Select:
		input, err := Document(n.Input)
		if err != nil {
			return nil, err
		}
		cond, err := conditionDocument(n.Cond)
		if err != nil {
			return nil, err
		}
		return operation(OpSelection, map[string]any{argObject: input, argCondition: cond}), nil

	case *queryir.Project:
		input, err := Document(n.Input)
		if err != nil {
			return nil, err
		}
		return operation(OpProjection, map[string]any{argObject: input, argAttributes: n.Columns}), nil

	case *queryir.Rename:
		input, err := Document(n.Input)
		if err != nil {
			return nil, err
		}
		return operation(OpRenaming, map[string]any{
			argObject:        input,
			argOldAttributes: n.Old,
			argNewAttributes: n.New,
		}), nil

	case *queryir.Except:
		return binaryDocument(OpMinus, n.Left, n.Right)

	case *queryir.Union:
		return binaryDocument(OpUnion, n.Left, n.Right)

	case *queryir.Product:
		return binaryDocument(OpProduct, n.Left, n.Right)

	case *queryir.Load:
		args := map[string]any{argFilename: n.Source}
		if n.Discovered() {
			args[argColumns] = n.Columns
		}
		return operation(OpLoad, args), nil

	case *queryir.ReadSelectProjectRename:
		cond, err := conditionDocument(n.Cond)
		if err != nil {
			return nil, err
		}
		return operation(OpRSPR, map[string]any{
			argFilename:      n.Source,
			argCondition:     cond,
			argOldAttributes: n.Old,
			argNewAttributes: n.New,
		}), nil

	case *queryir.JoinProjectRename:
		doc, err := binaryDocument(OpJPR, n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		cond, err := conditionDocument(n.Cond)
		if err != nil {
			return nil, err
		}
		args := doc["args"].(map[string]any)
		args[argCondition] = cond
		args[argOldAttributes] = n.Old
		args[argNewAttributes] = n.New
		return doc, nil

	case nil:
		return nil, fmt.Errorf("cannot encode missing plan")

	default:
		return nil, ir.NewUnsupportedOperatorError("cannot encode plan node %T", p)
	}
}

func operation(op string, args map[string]any) map[string]any {
	return map[string]any{"operation": op, "args": args}
}

func binaryDocument(op string, l, r queryir.Plan) (map[string]any, error) {
	left, err := Document(l)
	if err != nil {
		return nil, err
	}
	right, err := Document(r)
	if err != nil {
		return nil, err
	}
	return operation(op, map[string]any{argObject1: left, argObject2: right}), nil
}

func conditionDocument(c queryir.Condition) (map[string]any, error) {
	switch n := c.(type) {
	case *queryir.Not:
		inner, err := conditionDocument(n.Cond)
		if err != nil {
			return nil, err
		}
		return map[string]any{condLogical: "not", argCondition: inner}, nil
	case *queryir.And:
		return logicalDocument("and", n.Left, n.Right)
	case *queryir.Or:
		return logicalDocument("or", n.Left, n.Right)
	case *queryir.Equal:
		return comparisonDocument("=", n.Left, n.Right)
	case *queryir.Less:
		return comparisonDocument("<", n.Left, n.Right)
	case *queryir.More:
		return comparisonDocument(">", n.Left, n.Right)
	case nil:
		return nil, fmt.Errorf("cannot encode missing condition")
	default:
		return nil, ir.NewUnsupportedOperatorError("cannot encode condition %T", c)
	}
}

func logicalDocument(op string, l, r queryir.Condition) (map[string]any, error) {
	left, err := conditionDocument(l)
	if err != nil {
		return nil, err
	}
	right, err := conditionDocument(r)
	if err != nil {
		return nil, err
	}
	return map[string]any{condLogical: op, condCondition1: left, condCondition2: right}, nil
}

func comparisonDocument(op string, l, r ir.Value) (map[string]any, error) {
	a1, err := FormatAttribute(l)
	if err != nil {
		return nil, err
	}
	a2, err := FormatAttribute(r)
	if err != nil {
		return nil, err
	}
	return map[string]any{condComparator: op, condAttribute1: a1, condAttribute2: a2}, nil
}

package optimizer

import (
	"fmt"
	"strings"

	"github.com/roach88/relq/internal/ir"
)

// Pass codes accepted by ByCode and in configuration files.
const (
	CodeDiscoverColumns = "DLC"
	CodePushProjections = "APE"
	CodePushSelections  = "PDS"
	CodeFuseSources     = "FCE"
	CodeFuseJoins       = "FCJ"
	CodeUnfuse          = "UNF"
)

// DefaultCodes is the default pass order.
var DefaultCodes = []string{
	CodeUnfuse,
	CodeDiscoverColumns,
	CodePushSelections,
	CodePushProjections,
	CodeFuseSources,
}

// Codes lists every known pass code.
func Codes() []string {
	return []string{
		CodeDiscoverColumns,
		CodePushProjections,
		CodePushSelections,
		CodeFuseSources,
		CodeFuseJoins,
		CodeUnfuse,
	}
}

// ByCode returns the pass registered under code. Codes are case-insensitive.
// src is only used by column discovery.
func ByCode(code string, src ColumnSource) (Pass, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case CodeDiscoverColumns:
		if src == nil {
			return nil, fmt.Errorf("pass %s needs a column source", CodeDiscoverColumns)
		}
		return DiscoverColumns{Source: src}, nil
	case CodePushProjections:
		return PushProjections{}, nil
	case CodePushSelections:
		return PushSelections{}, nil
	case CodeFuseSources:
		return FuseSources{}, nil
	case CodeFuseJoins:
		return FuseSources{Joins: true}, nil
	case CodeUnfuse:
		return Unfuse{}, nil
	default:
		return nil, ir.NewUnsupportedOperatorError("unknown optimizer pass %q (known: %s)", code, strings.Join(Codes(), ", "))
	}
}

// ParseChain builds a chain from pass codes, in order.
func ParseChain(codes []string, src ColumnSource, opts ...ChainOption) (*Chain, error) {
	passes := make([]Pass, 0, len(codes))
	for _, code := range codes {
		pass, err := ByCode(code, src)
		if err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}
	return NewChain(passes, opts...), nil
}

// Default returns the default chain.
func Default(src ColumnSource, opts ...ChainOption) *Chain {
	chain, err := ParseChain(DefaultCodes, src, opts...)
	if err != nil {
		panic(err) // only reachable with a nil source
	}
	return chain
}

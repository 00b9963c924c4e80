package engine

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// TestSelect_NestedMatchesConjunction checks that two stacked selections
// keep the same rows as one selection on their conjunction.
func TestSelect_NestedMatchesConjunction(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	cols := []string{"a", "b", "c"}

	for i := 0; i < 200; i++ {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			src := memSource{"T": randomTable(t, rng, cols)}
			c1 := randomCondition(rng, cols, 2)
			c2 := randomCondition(rng, cols, 2)

			nested := evaluate(t, src, &queryir.Select{
				Input: &queryir.Select{Input: &queryir.Load{Source: "T"}, Cond: c1},
				Cond:  c2,
			})
			conjoined := evaluate(t, src, &queryir.Select{
				Input: &queryir.Load{Source: "T"},
				Cond:  &queryir.And{Left: c1, Right: c2},
			})

			assert.True(t, ir.Equivalent(conjoined, nested), "c1 %#v c2 %#v", c1, c2)
		})
	}
}

// TestSelect_CommutesWithRename checks that filtering after a rename equals
// renaming after a filter written against the original names.
func TestSelect_CommutesWithRename(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	oldNames := []string{"a", "b"}
	newNames := []string{"x", "y"}
	back := map[string]string{"x": "a", "y": "b"}

	for i := 0; i < 200; i++ {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			src := memSource{"T": randomTable(t, rng, []string{"a", "b", "c"})}
			cond := randomCondition(rng, []string{"x", "y", "c"}, 2)

			selectAfter := evaluate(t, src, &queryir.Select{
				Input: &queryir.Rename{Input: &queryir.Load{Source: "T"}, Old: oldNames, New: newNames},
				Cond:  cond,
			})
			selectBefore := evaluate(t, src, &queryir.Rename{
				Input: &queryir.Select{
					Input: &queryir.Load{Source: "T"},
					Cond:  queryir.RenameColumns(cond, back),
				},
				Old: oldNames,
				New: newNames,
			})

			assert.Equal(t, []string{"x", "y", "c"}, selectAfter.Schema.Names())
			assert.True(t, ir.Equivalent(selectBefore, selectAfter), "condition %#v", cond)
		})
	}
}

func randomCondition(rng *rand.Rand, cols []string, depth int) queryir.Condition {
	if depth > 0 && rng.IntN(3) == 0 {
		l := randomCondition(rng, cols, depth-1)
		r := randomCondition(rng, cols, depth-1)
		switch rng.IntN(3) {
		case 0:
			return &queryir.And{Left: l, Right: r}
		case 1:
			return &queryir.Or{Left: l, Right: r}
		default:
			return &queryir.Not{Cond: l}
		}
	}

	l := col(cols[rng.IntN(len(cols))])
	var r ir.Value = col(cols[rng.IntN(len(cols))])
	if rng.IntN(2) == 0 {
		r = randomValue(rng)
	}
	switch rng.IntN(3) {
	case 0:
		return &queryir.Less{Left: l, Right: r}
	case 1:
		return &queryir.More{Left: l, Right: r}
	default:
		return &queryir.Equal{Left: l, Right: r}
	}
}

package optimizer

import (
	"context"

	"github.com/roach88/relq/internal/queryir"
)

// DiscoverColumns fills the columns of every undiscovered Load from a
// ColumnSource. Loads that already carry columns are left untouched, so the
// pass is idempotent. Fused nodes are visited but not rewritten.
type DiscoverColumns struct {
	Source ColumnSource
}

// Name implements Pass.
func (DiscoverColumns) Name() string { return CodeDiscoverColumns }

// Optimize implements Pass.
func (d DiscoverColumns) Optimize(ctx context.Context, p queryir.Plan) (queryir.Plan, error) {
	// Relations referenced several times are only asked for once.
	cache := make(map[string][]string)

	var visit func(queryir.Plan) (queryir.Plan, error)
	visit = func(p queryir.Plan) (queryir.Plan, error) {
		load, ok := p.(*queryir.Load)
		if !ok {
			return Visit(p, visit)
		}
		if load.Discovered() {
			return queryir.Clone(load), nil
		}

		cols, cached := cache[load.Source]
		if !cached {
			var err error
			cols, err = d.Source.Columns(ctx, load.Source)
			if err != nil {
				return nil, err
			}
			if cols == nil {
				cols = []string{}
			}
			cache[load.Source] = cols
		}
		return &queryir.Load{Source: load.Source, Columns: append([]string{}, cols...)}, nil
	}
	return visit(p)
}

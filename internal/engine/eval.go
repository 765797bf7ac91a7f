package engine

import (
	"context"

	"github.com/leapstack-labs/specmacro/internal/state"
)

// Eval expands each expression against the global context, the way
// rpm --eval does. Expansions share the context, so a %define in one
// expression is visible to the next.
func (e *Engine) Eval(ctx context.Context, exprs []string) ([]string, error) {
	exp := e.NewExpander(e.global)
	out := make([]string, 0, len(exprs))

	err := e.record("eval", e.global, func() (state.RunStats, error) {
		for _, src := range exprs {
			if err := ctx.Err(); err != nil {
				return state.RunStats{Lines: len(out)}, err
			}
			res, err := exp.ExpandString(src)
			if err != nil {
				return state.RunStats{Lines: len(out)}, err
			}
			out = append(out, res)
		}
		return state.RunStats{Lines: len(out)}, nil
	})
	return out, err
}

package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ordered applies mapFunc to every input, running at most limit calls at the same
// time. Results are returned in the order of inputs.
//
// All calls run to completion, an error does not cancel the others. The error of the
// lowest failed input is returned, so the outcome does not depend on timing.
// Inputs not yet started when ctx is done are skipped with ctx.Err().
func Ordered[E, D any](ctx context.Context, limit int, inputs []E, mapFunc func(context.Context, E) (D, error)) ([]D, error) {
	var g errgroup.Group
	g.SetLimit(max(limit, 1))

	out := make([]D, len(inputs))
	errs := make([]error, len(inputs))
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			out[i], errs[i] = mapFunc(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

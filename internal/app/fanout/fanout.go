// Package fanout applies a function to every item of a slice with bounded
// concurrency and keeps each item's outcome. Listener teardown uses it so
// one failing release never stops the others.
package fanout

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome for one item.
type Result[R any] struct {
	Value R
	Err   error
}

// Run calls fn for each item with at most limit calls in flight and returns
// results in input order. Items not yet started when ctx ends get ctx.Err()
// without fn being called. A limit below 1 means 1.
func Run[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// JoinErrors joins the failures in results, in input order.
func JoinErrors[R any](results []Result[R]) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

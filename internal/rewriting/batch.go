package rewriting

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-assistant/internal/types"
)

// DefaultConcurrency is used by RewriteAll when no positive limit is given
const DefaultConcurrency = 4

// BatchItem is the outcome of one request in a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int
	Result *types.RewriteResult
	Err    error
}

// RewriteAll rewrites every request independently, at most concurrency at a
// time. Items are returned in request order; a rejection of one item does not
// affect the others.
func (r *Rewriter) RewriteAll(ctx context.Context, reqs []types.RewriteRequest, concurrency int) []BatchItem {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	items := make([]BatchItem, len(reqs))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			res, err := r.Rewrite(ctx, req)
			items[i] = BatchItem{Index: i, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return items
}

// Package retry provides the bounded retry combinator shared by the
// LLM-backed orchestrators. Attempts run back to back; the only state carried
// between them is the previous failure, which callers use to adjust the next
// prompt.
package retry

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// Attempt describes the attempt about to run
type Attempt struct {
	// Number is 1-based
	Number int
	// Max is the total attempt budget
	Max int
	// Prior is the error returned by the previous attempt, nil on the first
	Prior error
}

// First reports whether this is the first attempt
func (a Attempt) First() bool { return a.Number == 1 }

// Last reports whether no attempts remain after this one
func (a Attempt) Last() bool { return a.Number >= a.Max }

// Permanent marks err as terminal so Do returns it without further attempts
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, returns a Permanent error, or maxAttempts
// attempts have been made. The error of the final attempt is returned
// unwrapped. If ctx is cancelled between attempts, ctx.Err() is returned.
func Do[T any](ctx context.Context, maxAttempts int, fn func(ctx context.Context, a Attempt) (T, error)) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(maxAttempts-1)),
		ctx,
	)

	var (
		prior  error
		number int
	)
	return backoff.RetryWithData(func() (T, error) {
		number++
		v, err := fn(ctx, Attempt{Number: number, Max: maxAttempts, Prior: prior})
		prior = err
		return v, err
	}, policy)
}

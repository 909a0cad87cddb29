// Package retry wraps store round trips with per-attempt timeouts and
// bounded exponential backoff. Transport-level failures (timeouts,
// broken connections) are retried; definite semantic errors and
// cancellation of the caller's context are not.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

const (
	maxAttempts     = 4
	initialInterval = 50 * time.Millisecond
	callTimeout     = 5 * time.Second
)

var sentinels = []error{
	domain.ErrLocationRequired,
	domain.ErrHospitalRequired,
	domain.ErrDonatorRequired,
	domain.ErrInvalidBloodType,
	domain.ErrInvalidID,
	domain.ErrInvalidAllocationID,
	domain.ErrUnitNotFound,
	domain.ErrAllocationNotFound,
	domain.ErrDuplicateID,
	domain.ErrFieldNotUpdatable,
}

// Do invokes fn until it succeeds, returns a definite semantic error,
// or the attempt budget is exhausted. Each attempt runs under its own
// timeout; an attempt that exceeds it counts as transient as long as
// the caller's context is still alive.
func Do(ctx context.Context, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval

	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if isSemantic(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
}

// Permanent marks an error as definite so Do surfaces it without
// further attempts. Used by adapters for driver-level outcomes such as
// no-rows that are not transport failures.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func isSemantic(err error) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

package backend

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// retry runs the call until it succeeds, fails permanently or the retries are exhausted.
func (b *Backend) retry(ctx context.Context, method string, call func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.opts.RetryInterval

	var attempt int
	return backoff.Retry(func() error {
		attempt++
		err := call()
		if err != nil {
			b.logger.Debug("rpc call failed", "method", method, "attempt", attempt, "error", err.Error())
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, b.opts.MaxRetries), ctx))
}

func permanent(err error) error {
	return backoff.Permanent(err)
}

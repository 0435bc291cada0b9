// Package retry runs operations again after a backoff delay.
//
// Two policies are used by the collector. Transient transport failures
// (network errors and 5xx responses) get a short exponential backoff with a
// bounded number of attempts:
//
//	err := retry.Do(func() error {
//		return client.get(ctx, url, &out)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	})
//
// Rate-limit responses get a long constant backoff with no attempt limit,
// re-issuing the same request until it succeeds or fails some other way:
//
//	err := retry.Do(fetch, &retry.Config{
//		Backoff: &retry.ConstantBackoff{Delay: 15 * time.Minute},
//		RetryIf: retry.RateLimitOnly,
//		Context: ctx,
//	})
//
// Auth, not-found and parsing errors are never retried.
package retry

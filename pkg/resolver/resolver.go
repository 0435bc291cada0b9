package resolver

import (
	"context"
	"fmt"
	"time"

	"followgraph/pkg/logger"
	"followgraph/pkg/models"
	"followgraph/pkg/retry"
)

// BatchSize is the most ids sent in one lookup request
const BatchSize = 100

// LookupFunc returns the profiles found for a batch of ids, in any order.
// Ids with no account are simply absent.
type LookupFunc func(ctx context.Context, ids []string) ([]models.Profile, error)

// Resolver turns ids into profiles through a batched lookup endpoint
type Resolver struct {
	lookup           LookupFunc
	rateLimitBackoff time.Duration
	sleep            retry.SleepFunc
	logger           logger.Logger

	target  string
	listing string
}

// New creates a resolver. Rate-limited batches are retried after backoff.
func New(lookup LookupFunc, rateLimitBackoff time.Duration, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		lookup:           lookup,
		rateLimitBackoff: rateLimitBackoff,
		sleep:            retry.Wait,
		logger:           log,
	}
}

// SetSleep replaces the backoff wait
func (r *Resolver) SetSleep(sleep retry.SleepFunc) {
	r.sleep = sleep
}

// Named returns a copy whose log lines carry the target and listing the ids
// came from
func (r *Resolver) Named(target, listing string) *Resolver {
	cp := *r
	cp.target = target
	cp.listing = listing
	return &cp
}

// Resolve looks ids up in consecutive batches of at most BatchSize, one
// request at a time, and returns the profiles in input order. Ids the
// endpoint did not return are dropped.
func (r *Resolver) Resolve(ctx context.Context, ids []string) ([]models.Profile, error) {
	found := make(map[string]models.Profile, len(ids))

	for start := 0; start < len(ids); start += BatchSize {
		end := start + BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		profiles, err := r.lookupBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("looking up ids %d-%d of %d: %w", start+1, end, len(ids), err)
		}
		for _, p := range profiles {
			found[p.ID] = p
		}

		r.logger.InfoWithFields("lookup batch resolved", map[string]interface{}{
			"target":    r.target,
			"listing":   r.listing,
			"requested": len(batch),
			"resolved":  len(profiles),
			"progress":  end,
			"total":     len(ids),
		})
	}

	resolved := make([]models.Profile, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			resolved = append(resolved, p)
		}
	}

	if missing := len(ids) - len(resolved); missing > 0 {
		r.logger.DebugWithFields("ids without profile dropped", map[string]interface{}{
			"target":  r.target,
			"listing": r.listing,
			"missing": missing,
		})
	}
	return resolved, nil
}

func (r *Resolver) lookupBatch(ctx context.Context, batch []string) ([]models.Profile, error) {
	return retry.DoWithResult(func() ([]models.Profile, error) {
		return r.lookup(ctx, batch)
	}, &retry.Config{
		MaxAttempts: 0,
		Backoff:     &retry.ConstantBackoff{Delay: r.rateLimitBackoff},
		RetryIf:     retry.RateLimitOnly,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.LogRateLimit(r.logger, "users/lookup", "", delay)
		},
		Context: ctx,
		Sleep:   r.sleep,
	})
}

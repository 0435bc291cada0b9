package paginator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"followgraph/pkg/config"
	errs "followgraph/pkg/errors"
	"followgraph/pkg/logger"
	"followgraph/pkg/retry"
)

// ErrMaxPages is returned when a listing is still not exhausted after the
// configured page bound
var ErrMaxPages = errors.New("page limit reached before end of list")

// Page is one response of a cursored listing. A nil NextCursor ends the list.
type Page struct {
	IDs        []string
	NextCursor *string
}

// PageFunc fetches the page at cursor. A nil cursor is the start of the list.
type PageFunc func(ctx context.Context, cursor *string) (Page, error)

// Decision is what the loop does after a fetch attempt
type Decision int

const (
	// Continue adopts the page and advances the cursor
	Continue Decision = iota
	// RetryWait backs off and fetches the same cursor again
	RetryWait
	// Fatal stops the loop and returns the error
	Fatal
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case RetryWait:
		return "retry_wait"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Classify maps a fetch result to a Decision. Only rate-limit errors are
// recoverable; anything else is fatal.
func Classify(err error) Decision {
	switch {
	case err == nil:
		return Continue
	case errs.IsRateLimit(err):
		return RetryWait
	default:
		return Fatal
	}
}

// Paginator drains cursored listings one page at a time
type Paginator struct {
	// PageDelay is waited after each page that has a successor
	PageDelay time.Duration
	// RateLimitBackoff is waited before re-fetching a rate-limited cursor
	RateLimitBackoff time.Duration
	// MaxPages bounds the pages fetched per listing; 0 disables the bound
	MaxPages int
	// Sleep waits between requests; nil uses retry.Wait
	Sleep retry.SleepFunc
	// Logger receives progress and backoff events
	Logger logger.Logger

	target string
	name   string
}

// New creates a paginator from paging configuration
func New(cfg config.PagingConfig, log logger.Logger) *Paginator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Paginator{
		PageDelay:        cfg.PageDelay,
		RateLimitBackoff: cfg.RateLimitBackoff,
		MaxPages:         cfg.MaxPages,
		Logger:           log,
	}
}

// Named returns a copy whose log lines carry the target and listing
func (p *Paginator) Named(target, listing string) *Paginator {
	cp := *p
	cp.target = target
	cp.name = listing
	return &cp
}

// CollectIDs fetches pages from the start of the list until the cursor is
// exhausted and returns every id in page order. Rate-limited fetches are
// retried on the same cursor without limit; any other error is returned.
func (p *Paginator) CollectIDs(ctx context.Context, fetch PageFunc) ([]string, error) {
	log := p.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = retry.Wait
	}

	var (
		ids    []string
		cursor *string
		pages  int
	)

	for {
		if p.MaxPages > 0 && pages >= p.MaxPages {
			log.ErrorWithFields("page limit reached", map[string]interface{}{
				"target":    p.target,
				"listing":   p.name,
				"pages":     pages,
				"collected": len(ids),
			})
			return ids, fmt.Errorf("%s: %w (%d pages)", p.name, ErrMaxPages, pages)
		}

		page, err := p.fetchWithBackoff(ctx, fetch, cursor, sleep, log)
		if err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"target":   p.target,
				"listing":  p.name,
				"cursor":   cursorLabel(cursor),
				"decision": Classify(err).String(),
			}).Error("Page fetch failed")
			return nil, fmt.Errorf("fetching page at cursor %s: %w", cursorLabel(cursor), err)
		}
		pages++

		ids = append(ids, page.IDs...)
		cursor = page.NextCursor
		more := cursor != nil

		delay := time.Duration(0)
		if more {
			delay = p.PageDelay
		}
		logger.LogPageProgress(log, p.target, p.name, len(ids), more, delay)

		if !more {
			return ids, nil
		}

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// fetchWithBackoff fetches one cursor, waiting RateLimitBackoff and
// re-issuing the same request for as long as it is rate limited
func (p *Paginator) fetchWithBackoff(ctx context.Context, fetch PageFunc, cursor *string, sleep retry.SleepFunc, log logger.Logger) (Page, error) {
	return retry.DoWithResult(func() (Page, error) {
		return fetch(ctx, cursor)
	}, &retry.Config{
		MaxAttempts: 0,
		Backoff:     &retry.ConstantBackoff{Delay: p.RateLimitBackoff},
		RetryIf:     retry.RateLimitOnly,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.LogRateLimit(log, p.name, cursorLabel(cursor), delay)
		},
		Context: ctx,
		Sleep:   sleep,
	})
}

func cursorLabel(cursor *string) string {
	if cursor == nil {
		return "start"
	}
	return *cursor
}

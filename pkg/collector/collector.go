package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"followgraph/pkg/cache"
	"followgraph/pkg/config"
	errs "followgraph/pkg/errors"
	"followgraph/pkg/export"
	"followgraph/pkg/graph"
	"followgraph/pkg/logger"
	"followgraph/pkg/models"
	"followgraph/pkg/paginator"
	"followgraph/pkg/resolver"
	"followgraph/pkg/retry"
	"followgraph/pkg/twitter"
)

// ErrNoTargets is returned when a run has nothing to collect
var ErrNoTargets = errors.New("no targets given")

// ErrInvalidHandle is returned for a target that is not a well-formed
// screen name. No request is made for it.
var ErrInvalidHandle = errors.New("invalid handle")

// API is the subset of the Twitter client the collector calls
type API interface {
	FollowerIDs(ctx context.Context, handle string, cursor *string) (*twitter.IDsPage, error)
	FriendIDs(ctx context.Context, handle string, cursor *string) (*twitter.IDsPage, error)
	LookupUsers(ctx context.Context, ids []string) ([]models.Profile, error)
	LookupHandle(ctx context.Context, handle string) (*models.Profile, error)
}

// Outcome says how a target was handled
type Outcome string

const (
	OutcomeRefreshed Outcome = "refreshed"
	OutcomeCached    Outcome = "cached"
	OutcomeSkipped   Outcome = "skipped"
)

// TargetResult is the per-target part of a Result
type TargetResult struct {
	Handle    string
	ID        string
	Outcome   Outcome
	Followers int
	Following int
	Err       error
}

// Result summarizes a run
type Result struct {
	Targets   []TargetResult
	Nodes     int
	Following int
	Followers int
	Files     []string
}

// Count returns how many targets ended with outcome
func (r *Result) Count(outcome Outcome) int {
	n := 0
	for _, t := range r.Targets {
		if t.Outcome == outcome {
			n++
		}
	}
	return n
}

// Collector runs the fetch, cache, merge and export pipeline. Every API
// call is issued sequentially from the calling goroutine.
type Collector struct {
	api      API
	cache    *cache.Cache
	pager    *paginator.Paginator
	resolver *resolver.Resolver
	writer   *export.Writer
	config   *config.Config
	logger   logger.Logger
	now      func() time.Time
	sleep    retry.SleepFunc
}

// New wires a collector from its collaborators
func New(cfg *config.Config, api API, c *cache.Cache, writer *export.Writer, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		api:      api,
		cache:    c,
		pager:    paginator.New(cfg.Paging, log),
		resolver: resolver.New(api.LookupUsers, cfg.Paging.RateLimitBackoff, log),
		writer:   writer,
		config:   cfg,
		logger:   log,
		now:      time.Now,
		sleep:    retry.Wait,
	}
}

// SetClock replaces the wall clock
func (c *Collector) SetClock(now func() time.Time) {
	c.now = now
}

// SetSleep replaces every pacing and backoff wait
func (c *Collector) SetSleep(sleep retry.SleepFunc) {
	c.sleep = sleep
	c.pager.Sleep = sleep
	c.resolver.SetSleep(sleep)
}

// Run collects every handle in order, then writes the three tables.
// With the abort policy the first target error ends the run before export;
// with skip the target is logged and left out.
func (c *Collector) Run(ctx context.Context, handles []string) (*Result, error) {
	if err := c.config.ValidateCredentials(); err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, ErrNoTargets
	}

	c.logger.InfoWithFields("Collection started", map[string]interface{}{
		"targets":        len(handles),
		"refresh_window": c.config.RefreshWindow().String(),
		"force_refresh":  c.config.Refresh.Force,
		"on_error":       c.config.Errors.OnTargetError,
	})

	result := &Result{}
	agg := graph.NewAggregator()

	for _, handle := range handles {
		g, tr, err := c.collectTarget(ctx, handle)
		if err != nil {
			tr.Outcome = OutcomeSkipped
			tr.Err = err
			result.Targets = append(result.Targets, tr)

			if c.config.Errors.OnTargetError != config.OnErrorSkip || ctx.Err() != nil {
				c.logger.WithError(err).WithField("target", handle).Error("Target failed, aborting run")
				return result, fmt.Errorf("target %s: %w", handle, err)
			}
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"target": handle,
				"type":   string(errs.TypeOf(err)),
			}).Error("Target failed, skipping")
			continue
		}

		agg.Add(g)
		result.Targets = append(result.Targets, tr)
		logger.LogTargetOutcome(c.logger, tr.Handle, string(tr.Outcome), tr.Followers, tr.Following)
	}

	nodes, following, followers := agg.Nodes(), agg.Following(), agg.Followers()
	tables, err := export.Render(nodes, following, followers)
	if err != nil {
		return result, err
	}
	if err := c.writer.Write(tables); err != nil {
		return result, err
	}

	result.Nodes = len(nodes)
	result.Following = len(following)
	result.Followers = len(followers)
	result.Files = c.writer.Paths()

	c.logger.InfoWithFields("Collection finished", map[string]interface{}{
		"refreshed": result.Count(OutcomeRefreshed),
		"cached":    result.Count(OutcomeCached),
		"skipped":   result.Count(OutcomeSkipped),
		"nodes":     result.Nodes,
		"following": result.Following,
		"followers": result.Followers,
	})
	return result, nil
}

// collectTarget resolves handle to its account, then loads its graph from
// the cache or fetches it fresh
func (c *Collector) collectTarget(ctx context.Context, handle string) (models.TargetGraph, TargetResult, error) {
	tr := TargetResult{Handle: handle}

	name := twitter.SanitizeHandle(handle)
	if !twitter.IsValidHandle(name) {
		return models.TargetGraph{}, tr, fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}

	target, err := c.lookupTarget(ctx, name)
	if err != nil {
		return models.TargetGraph{}, tr, fmt.Errorf("resolving handle: %w", err)
	}
	tr.Handle = target.Handle
	tr.ID = target.ID

	windowMs := c.config.RefreshWindow().Milliseconds()
	if !c.config.Refresh.Force && !c.cache.NeedsRefresh(target.ID, c.now().UnixMilli(), windowMs) {
		followers, following, ok, err := c.cache.LoadEdges(target.ID)
		if err != nil {
			return models.TargetGraph{}, tr, fmt.Errorf("loading cached edges: %w", err)
		}
		if ok {
			tr.Outcome = OutcomeCached
			tr.Followers, tr.Following = len(followers), len(following)
			return models.TargetGraph{Target: *target, Followers: followers, Following: following}, tr, nil
		}
	}

	followers, err := c.fetchDirection(ctx, *target, models.DirectionFollowers)
	if err != nil {
		return models.TargetGraph{}, tr, err
	}
	following, err := c.fetchDirection(ctx, *target, models.DirectionFollowing)
	if err != nil {
		return models.TargetGraph{}, tr, err
	}

	if err := c.cache.RecordRefresh(ctx, *target, followers, following, c.now().UnixMilli()); err != nil {
		return models.TargetGraph{}, tr, fmt.Errorf("recording refresh: %w", err)
	}

	tr.Outcome = OutcomeRefreshed
	tr.Followers, tr.Following = len(followers), len(following)
	return models.TargetGraph{Target: *target, Followers: followers, Following: following}, tr, nil
}

// lookupTarget resolves a handle, waiting out rate limits like every
// other call
func (c *Collector) lookupTarget(ctx context.Context, handle string) (*models.Profile, error) {
	return retry.DoWithResult(func() (*models.Profile, error) {
		return c.api.LookupHandle(ctx, handle)
	}, &retry.Config{
		Backoff: &retry.ConstantBackoff{Delay: c.config.Paging.RateLimitBackoff},
		RetryIf: retry.RateLimitOnly,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.LogRateLimit(c.logger, "users/lookup", handle, delay)
		},
		Context: ctx,
		Sleep:   c.sleep,
	})
}

// fetchDirection pages through one id listing and resolves the ids
func (c *Collector) fetchDirection(ctx context.Context, target models.Profile, direction models.Direction) ([]models.Profile, error) {
	list := c.api.FollowerIDs
	if direction == models.DirectionFollowing {
		list = c.api.FriendIDs
	}

	ids, err := c.pager.Named(target.Handle, string(direction)).CollectIDs(ctx, func(ctx context.Context, cursor *string) (paginator.Page, error) {
		page, err := list(ctx, target.Handle, cursor)
		if err != nil {
			return paginator.Page{}, err
		}
		return paginator.Page{IDs: page.IDs, NextCursor: page.Next()}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting %s ids: %w", direction, err)
	}

	profiles, err := c.resolver.Named(target.Handle, string(direction)).Resolve(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", direction, err)
	}

	c.logger.DebugWithFields("Direction collected", map[string]interface{}{
		"target":    target.Handle,
		"direction": string(direction),
		"ids":       len(ids),
		"resolved":  len(profiles),
	})
	return profiles, nil
}

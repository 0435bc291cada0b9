package cache

import (
	"context"
	"errors"
	"fmt"

	"followgraph/pkg/logger"
	"followgraph/pkg/models"
)

// Cache decides which targets are stale and keeps their edge sets between
// runs. The registry is rewritten after every recorded refresh.
//
// Two processes sharing one cache directory are not coordinated; the last
// writer wins.
type Cache struct {
	store    Store
	registry Registry
	logger   logger.Logger
}

// Open loads the registry from store. A malformed registry starts empty
// and every target is refetched.
func Open(store Store, log logger.Logger) (*Cache, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	registry, err := store.LoadRegistry()
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			return nil, err
		}
		log.WithError(err).Warn("Registry malformed, starting with an empty cache")
		registry = Registry{}
	}

	log.DebugWithFields("Registry loaded", map[string]interface{}{
		"targets": len(registry),
	})

	return &Cache{
		store:    store,
		registry: registry,
		logger:   log,
	}, nil
}

// Registry returns a copy of the current registry
func (c *Cache) Registry() Registry {
	return c.registry.Clone()
}

// NeedsRefresh reports whether id must be fetched at nowMs
func (c *Cache) NeedsRefresh(id string, nowMs, windowMs int64) bool {
	return c.registry.NeedsRefresh(id, nowMs, windowMs)
}

// RecordRefresh persists freshly fetched edge sets for target, then
// updates and rewrites the registry
func (c *Cache) RecordRefresh(ctx context.Context, target models.Profile, followers, following []models.Profile, nowMs int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.store.SaveEdges(target.ID, models.DirectionFollowers, followers); err != nil {
		return fmt.Errorf("saving followers of %s: %w", target.ID, err)
	}
	if err := c.store.SaveEdges(target.ID, models.DirectionFollowing, following); err != nil {
		return fmt.Errorf("saving following of %s: %w", target.ID, err)
	}

	updated := c.registry.Clone()
	updated.Record(target.ID, target.Handle, nowMs)
	if err := c.store.SaveRegistry(updated); err != nil {
		return fmt.Errorf("saving registry: %w", err)
	}
	c.registry = updated

	c.logger.DebugWithFields("Refresh recorded", map[string]interface{}{
		"target":    target.Handle,
		"id":        target.ID,
		"followers": len(followers),
		"following": len(following),
	})
	return nil
}

// LoadEdges returns the cached edge sets for id. ok is false when either
// blob is missing or malformed.
func (c *Cache) LoadEdges(id string) (followers, following []models.Profile, ok bool, err error) {
	followers, err = c.store.LoadEdges(id, models.DirectionFollowers)
	if err != nil {
		return c.miss(id, err)
	}
	following, err = c.store.LoadEdges(id, models.DirectionFollowing)
	if err != nil {
		return c.miss(id, err)
	}
	return followers, following, true, nil
}

func (c *Cache) miss(id string, err error) ([]models.Profile, []models.Profile, bool, error) {
	if errors.Is(err, ErrMiss) {
		c.logger.WarnWithFields("Cached edges unusable, refetching", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return nil, nil, false, nil
	}
	return nil, nil, false, err
}

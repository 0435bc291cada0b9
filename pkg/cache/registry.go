package cache

import (
	"sort"

	"followgraph/pkg/models"
)

// Registry maps account ids to the last successful fetch of that target
type Registry map[string]models.TargetRecord

// NeedsRefresh reports whether id has no record, or its record is at least
// windowMs old at nowMs. A zero window always refreshes.
func (r Registry) NeedsRefresh(id string, nowMs, windowMs int64) bool {
	record, ok := r[id]
	if !ok {
		return true
	}
	return nowMs-record.LastFetchedAtEpochMs >= windowMs
}

// Record creates or updates the entry for id
func (r Registry) Record(id, handle string, nowMs int64) {
	r[id] = models.TargetRecord{
		Handle:               handle,
		LastFetchedAtEpochMs: nowMs,
	}
}

// Clone returns an independent copy
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for id, record := range r {
		out[id] = record
	}
	return out
}

// IDs returns the registered ids in sorted order
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

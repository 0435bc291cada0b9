// Package cache is the refresh cache: a registry of when each target was
// last fetched, plus that fetch's follower and following lists.
//
// On disk a cache directory holds
//
//	registry.json              {"<id>": {"handle": ..., "lastFetchedAtEpochMs": ...}}
//	<id>.followers.json        [{"id": ..., "handle": ...}, ...]
//	<id>.following.json
//
// all rewritten wholesale. A target is stale when it has no record or its
// record is at least the refresh window old. Missing or malformed edge
// files count as a miss and force a fresh fetch.
//
// Running two collectors against one cache directory is unsupported.
package cache

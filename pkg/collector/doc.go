// Package collector drives a collection run: it resolves each target
// handle, serves its follower and following lists from the refresh cache
// or fetches them page by page, merges every target into one graph and
// writes the node and edge tables.
//
// Basic usage:
//
//	col := collector.New(cfg, client, c, writer, log)
//	result, err := col.Run(ctx, []string{"alice", "bob"})
package collector

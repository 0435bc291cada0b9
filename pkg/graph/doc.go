// Package graph merges per-target neighborhoods into the run's node table
// and its two edge tables.
package graph

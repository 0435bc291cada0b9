package models

// Profile is the part of an account record the collector consumes.
// ID is always the exact decimal string returned by the API.
type Profile struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

// Label returns the display label used in the node table
func (p Profile) Label() string {
	return "@" + p.Handle
}

// TargetGraph is one target account with its resolved neighborhood
type TargetGraph struct {
	Target    Profile
	Followers []Profile
	Following []Profile
}

// Edge is a directed follow relation: Source follows Target
type Edge struct {
	Source string
	Target string
}

// Node is one row of the node table
type Node struct {
	ID     string
	Handle string
}

// Label returns the node's display label
func (n Node) Label() string {
	return Profile(n).Label()
}

// TargetRecord is the registry entry for a target that has been fetched
type TargetRecord struct {
	Handle               string `json:"handle"`
	LastFetchedAtEpochMs int64  `json:"lastFetchedAtEpochMs"`
}

// Direction names one of the two edge sets kept per target
type Direction string

const (
	DirectionFollowers Direction = "followers"
	DirectionFollowing Direction = "following"
)

package graph

import "followgraph/pkg/models"

// Aggregator merges target graphs into run-wide node and edge tables.
// Nodes keep first-occurrence order with the latest handle seen; each edge
// table keeps first-occurrence order with duplicate rows removed.
type Aggregator struct {
	nodeOrder []string
	handles   map[string]string

	following     []models.Edge
	followers     []models.Edge
	seenFollowing map[models.Edge]struct{}
	seenFollowers map[models.Edge]struct{}
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		handles:       make(map[string]string),
		seenFollowing: make(map[models.Edge]struct{}),
		seenFollowers: make(map[models.Edge]struct{}),
	}
}

// Add folds one target in: the target and its neighbors become nodes,
// target→followed rows go to the following table and follower→target rows
// to the followers table
func (a *Aggregator) Add(g models.TargetGraph) {
	a.addNode(g.Target)

	for _, p := range g.Following {
		a.addNode(p)
		a.following = appendEdge(a.following, a.seenFollowing, models.Edge{Source: g.Target.ID, Target: p.ID})
	}

	for _, p := range g.Followers {
		a.addNode(p)
		a.followers = appendEdge(a.followers, a.seenFollowers, models.Edge{Source: p.ID, Target: g.Target.ID})
	}
}

func (a *Aggregator) addNode(p models.Profile) {
	if _, ok := a.handles[p.ID]; !ok {
		a.nodeOrder = append(a.nodeOrder, p.ID)
	}
	a.handles[p.ID] = p.Handle
}

func appendEdge(edges []models.Edge, seen map[models.Edge]struct{}, e models.Edge) []models.Edge {
	if _, dup := seen[e]; dup {
		return edges
	}
	seen[e] = struct{}{}
	return append(edges, e)
}

// Nodes returns the node table
func (a *Aggregator) Nodes() []models.Node {
	nodes := make([]models.Node, 0, len(a.nodeOrder))
	for _, id := range a.nodeOrder {
		nodes = append(nodes, models.Node{ID: id, Handle: a.handles[id]})
	}
	return nodes
}

// Following returns the deduplicated following table
func (a *Aggregator) Following() []models.Edge {
	return append([]models.Edge{}, a.following...)
}

// Followers returns the deduplicated followers table
func (a *Aggregator) Followers() []models.Edge {
	return append([]models.Edge{}, a.followers...)
}

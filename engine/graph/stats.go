package graph

import "context"

// Stats summarizes the shape of the trip graph for the operations
// endpoints.
type Stats struct {
	Nodes         map[string]int64 `json:"nodes"`
	Relationships map[string]int64 `json:"relationships"`
}

// NodeCounts returns node counts grouped by label.
func (g *GraphStore) NodeCounts(ctx context.Context) (map[string]int64, error) {
	return g.countsBy(ctx, `MATCH (n) RETURN labels(n)[0] AS type, count(*) AS count`)
}

// RelationshipCounts returns relationship counts grouped by type.
func (g *GraphStore) RelationshipCounts(ctx context.Context) (map[string]int64, error) {
	return g.countsBy(ctx, `MATCH ()-[r]->() RETURN type(r) AS type, count(*) AS count`)
}

// GraphStats bundles both count maps in one session.
func (g *GraphStore) GraphStats(ctx context.Context) (Stats, error) {
	nodes, err := g.NodeCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	rels, err := g.RelationshipCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Nodes: nodes, Relationships: rels}, nil
}

func (g *GraphStore) countsBy(ctx context.Context, cypher string) (map[string]int64, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for result.Next(ctx) {
		rec := result.Record()
		typ, _ := rec.Get("type")
		cnt, _ := rec.Get("count")
		t, ok := typ.(string)
		if !ok {
			continue
		}
		if c, ok := cnt.(int64); ok {
			counts[t] = c
		}
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

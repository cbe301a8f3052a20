package graph

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/VoyagentAI/voyagent-mvp/pkg/repo"
)

// ErrCityNotFound is returned by GetCity for names absent from the graph.
var ErrCityNotFound = errors.New("city not found")

// newCityRepo creates the Neo4j-backed repository for City nodes. Cities
// are keyed by name rather than a surrogate id.
func newCityRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[City, string] {
	return repo.NewNeo4jRepo(
		driver,
		"City",
		cityToMap,
		cityFromRecord,
		repo.WithIDKey[City, string]("name"),
	)
}

// GetCity returns a city by exact name, ErrCityNotFound when absent.
func (g *GraphStore) GetCity(ctx context.Context, name string) (City, error) {
	if g.cities != nil {
		c, err := g.cities.Get(ctx, name)
		if errors.Is(err, repo.ErrNotFound) {
			return City{}, ErrCityNotFound
		}
		return c, err
	}
	return g.getCityFallback(ctx, name)
}

// ListCities returns all known cities ordered by name.
func (g *GraphStore) ListCities(ctx context.Context) ([]City, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (c:City) RETURN c.name AS name ORDER BY name`, nil)
	if err != nil {
		return nil, err
	}
	var cities []City
	for result.Next(ctx) {
		name, _ := result.Record().Get("name")
		if s, ok := name.(string); ok {
			cities = append(cities, City{Name: s})
		}
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return cities, nil
}

// CityCount returns the number of distinct City nodes.
func (g *GraphStore) CityCount(ctx context.Context) (int64, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (c:City) RETURN count(c) AS count`, nil)
	if err != nil {
		return 0, err
	}
	if !result.Next(ctx) {
		return 0, result.Err()
	}
	v, _ := result.Record().Get("count")
	n, _ := v.(int64)
	if err := result.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// getCityFallback serves GetCity when the store was built without a
// driver (opener-only, as in tests).
func (g *GraphStore) getCityFallback(ctx context.Context, name string) (City, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (n:City {name: $name}) RETURN n`, map[string]any{"name": name})
	if err != nil {
		return City{}, err
	}
	if !result.Next(ctx) {
		return City{}, ErrCityNotFound
	}
	return cityFromRecord(result.Record())
}

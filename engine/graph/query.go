package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

const summaryProjection = `
	RETURN t.org AS org, t.dest AS dest, t.days AS days, t.date AS date,
	       t.people_number AS people_number, t.budget AS budget,
	       t.query AS query, t.level AS level, t.annotated_plan AS annotated_plan,
	       t.reference_information AS reference_information`

// FindTrips returns flat summaries of every trip plan whose origin and
// destination match the given city names, case-insensitively. No match
// is an empty result, not an error.
func (g *GraphStore) FindTrips(ctx context.Context, origin, destination string) ([]domain.TripSummary, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `
		MATCH (t:TripPlan)
		WHERE toLower(t.org) = toLower($origin)
		  AND toLower(t.dest) = toLower($destination)` + summaryProjection
	result, err := sess.Run(ctx, cypher, map[string]any{
		"origin":      origin,
		"destination": destination,
	})
	if err != nil {
		return nil, err
	}
	return collectSummaries(ctx, result)
}

// FindTripsFromOrigin returns summaries of every trip plan departing
// from the given city, case-insensitively, regardless of destination.
func (g *GraphStore) FindTripsFromOrigin(ctx context.Context, origin string) ([]domain.TripSummary, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `
		MATCH (t:TripPlan)
		WHERE toLower(t.org) = toLower($origin)` + summaryProjection
	result, err := sess.Run(ctx, cypher, map[string]any{"origin": origin})
	if err != nil {
		return nil, err
	}
	return collectSummaries(ctx, result)
}

func collectSummaries(ctx context.Context, result CypherResult) ([]domain.TripSummary, error) {
	var out []domain.TripSummary
	for result.Next(ctx) {
		out = append(out, summaryFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func summaryFromRecord(rec *neo4j.Record) domain.TripSummary {
	return domain.TripSummary{
		Origin:        strField(rec, "org"),
		Destination:   strField(rec, "dest"),
		Days:          intField(rec, "days"),
		Date:          strField(rec, "date"),
		PartySize:     intField(rec, "people_number"),
		Budget:        floatField(rec, "budget"),
		Query:         strField(rec, "query"),
		Level:         strField(rec, "level"),
		AnnotatedPlan: strField(rec, "annotated_plan"),
		ReferenceInfo: strField(rec, "reference_information"),
	}
}

func strField(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func intField(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func floatField(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

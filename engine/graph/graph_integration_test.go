//go:build integration

package graph

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
	"github.com/VoyagentAI/voyagent-mvp/engine/normalize"
)

func testDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	url := envOr("NEO4J_URL", "neo4j://localhost:7687")
	driver, err := neo4j.NewDriverWithContext(url, neo4j.NoAuth())
	if err != nil {
		t.Fatalf("neo4j connect: %v", err)
	}
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("neo4j verify: %v", err)
	}
	t.Cleanup(func() {
		sess := driver.NewSession(ctx, neo4j.SessionConfig{})
		sess.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
		sess.Close(ctx)
		driver.Close(ctx)
	})
	return driver
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestNeo4j_WriteAndQueryTrip(t *testing.T) {
	driver := testDriver(t)
	store := New(driver)
	ctx := context.Background()

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	rec := domain.RawRecord{
		"org":           "New York",
		"dest":          "Chicago",
		"days":          int64(2),
		"people_number": int64(2),
		"budget":        1900.0,
		"query":         "Plan a 2 day trip from New York to Chicago.",
		"level":         "easy",
		"annotated_plan": "[{'days': 1, 'current_city': 'from New York to Chicago', " +
			"'breakfast': 'Lou Mitchell Cafe', 'attraction': 'Millennium Park'}, " +
			"{'days': 2, 'current_city': 'Chicago'}]",
		"reference_information": "[{'Description': 'Flights', 'Content': 'F123'}]",
	}
	trip := normalize.Trip(rec)

	id, err := store.WriteTrip(ctx, trip)
	if err != nil {
		t.Fatalf("WriteTrip: %v", err)
	}
	if id == "" {
		t.Fatal("empty trip id")
	}

	// Case-insensitive paired lookup.
	trips, err := store.FindTrips(ctx, "new york", "CHICAGO")
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	if trips[0].Origin != "New York" || trips[0].Budget != 1900.0 {
		t.Fatalf("summary mismatch: %+v", trips[0])
	}

	// Origin-only lookup.
	trips, err = store.FindTripsFromOrigin(ctx, "NEW YORK")
	if err != nil {
		t.Fatalf("FindTripsFromOrigin: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip from origin, got %d", len(trips))
	}

	// Shape of the written graph.
	nodes, err := store.NodeCounts(ctx)
	if err != nil {
		t.Fatalf("NodeCounts: %v", err)
	}
	if nodes["TripPlan"] != 1 || nodes["DayPlan"] != 2 || nodes["Meal"] != 1 ||
		nodes["Attraction"] != 1 || nodes["ReferenceInfo"] != 1 {
		t.Fatalf("node counts: %v", nodes)
	}

	rels, err := store.RelationshipCounts(ctx)
	if err != nil {
		t.Fatalf("RelationshipCounts: %v", err)
	}
	if rels["HAS_DAY_PLAN"] != 2 || rels["HAS_MEAL"] != 1 || rels["HAS_REFERENCE"] != 1 {
		t.Fatalf("relationship counts: %v", rels)
	}
}

func TestNeo4j_NoMatchIsEmpty(t *testing.T) {
	driver := testDriver(t)
	store := New(driver)
	ctx := context.Background()

	trips, err := store.FindTrips(ctx, "Atlantis", "Shangri-La")
	if err != nil {
		t.Fatalf("FindTrips: %v", err)
	}
	if len(trips) != 0 {
		t.Fatalf("expected no trips, got %d", len(trips))
	}
}

func TestNeo4j_CityMergeIdempotent(t *testing.T) {
	driver := testDriver(t)
	store := New(driver)
	ctx := context.Background()

	for range 3 {
		trip := normalize.Trip(domain.RawRecord{"org": "Boston", "dest": "Chicago"})
		if _, err := store.WriteTrip(ctx, trip); err != nil {
			t.Fatalf("WriteTrip: %v", err)
		}
	}

	cities, err := store.ListCities(ctx)
	if err != nil {
		t.Fatalf("ListCities: %v", err)
	}
	if len(cities) != 2 {
		t.Fatalf("expected 2 cities after repeated writes, got %d: %+v", len(cities), cities)
	}
}

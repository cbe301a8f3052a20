package graph

import "context"

// schemaStatements are idempotent and safe to re-run on every startup.
var schemaStatements = []string{
	`CREATE CONSTRAINT city_name IF NOT EXISTS FOR (c:City) REQUIRE c.name IS UNIQUE`,
	`CREATE CONSTRAINT trip_plan_id IF NOT EXISTS FOR (t:TripPlan) REQUIRE t.id IS UNIQUE`,
	`CREATE INDEX trip_plan_org IF NOT EXISTS FOR (t:TripPlan) ON (t.org)`,
}

// EnsureSchema creates the uniqueness constraints and indexes the trip
// graph relies on. Schema statements cannot share a transaction with
// data writes, so each runs in its own auto-commit statement.
func (g *GraphStore) EnsureSchema(ctx context.Context) error {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	for _, stmt := range schemaStatements {
		if _, err := sess.Run(ctx, stmt, nil); err != nil {
			return err
		}
	}
	return nil
}

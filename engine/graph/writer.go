package graph

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
	"github.com/VoyagentAI/voyagent-mvp/engine/normalize"
)

// WriteTrip writes one normalized trip into the graph inside a single
// write transaction: origin and destination City merges, the TripPlan
// node with its scalar properties, DayPlan nodes with their activity
// nodes, and ReferenceInfo nodes. If any statement fails the whole
// transaction rolls back and no partial trip remains.
//
// Returns the generated TripPlan id.
func (g *GraphStore) WriteTrip(ctx context.Context, trip domain.NormalizedTrip) (string, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	id := uuid.NewString()
	_, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		if err := mergeCity(ctx, tx, trip.Origin); err != nil {
			return nil, err
		}
		if err := mergeCity(ctx, tx, trip.Destination); err != nil {
			return nil, err
		}
		if err := createTripPlan(ctx, tx, id, trip); err != nil {
			return nil, err
		}
		for i, dp := range trip.DayPlans {
			if err := createDayPlan(ctx, tx, id, i, dp); err != nil {
				return nil, err
			}
		}
		for _, ref := range trip.References {
			if err := createReference(ctx, tx, id, ref); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: trip %s→%s: %v", domain.ErrWriteConflict, trip.Origin, trip.Destination, err)
	}
	return id, nil
}

// mergeCity upserts a City node by name. Normalized trips always carry a
// non-empty origin and destination (defaulted to "unknown"), so the
// merge happens unconditionally for those two.
func mergeCity(ctx context.Context, tx CypherRunner, name string) error {
	_, err := tx.Run(ctx, `MERGE (c:City {name: $name})`, map[string]any{"name": name})
	return err
}

func createTripPlan(ctx context.Context, tx CypherRunner, id string, trip domain.NormalizedTrip) error {
	_, err := tx.Run(ctx, `
		CREATE (tp:TripPlan {
			id: $id,
			org: $org,
			dest: $dest,
			days: $days,
			visiting_city_number: $visiting_city_number,
			date: $date,
			people_number: $people_number,
			local_constraint: $local_constraint,
			budget: $budget,
			query: $query,
			level: $level,
			annotated_plan: $annotated_plan,
			reference_information: $reference_information
		})`,
		map[string]any{
			"id":                    id,
			"org":                   trip.Origin,
			"dest":                  trip.Destination,
			"days":                  trip.Days,
			"visiting_city_number":  trip.VisitingCities,
			"date":                  trip.Date,
			"people_number":         trip.PartySize,
			"local_constraint":      trip.LocalConstraint,
			"budget":                trip.Budget,
			"query":                 trip.Query,
			"level":                 trip.Level,
			"annotated_plan":        trip.AnnotatedPlan,
			"reference_information": trip.ReferenceInfo,
		})
	if err != nil {
		return err
	}

	_, err = tx.Run(ctx, `
		MATCH (tp:TripPlan {id: $id})
		MATCH (c1:City {name: $org})
		MATCH (c2:City {name: $dest})
		MERGE (tp)-[:ORIGIN]->(c1)
		MERGE (tp)-[:DESTINATION]->(c2)`,
		map[string]any{"id": id, "org": trip.Origin, "dest": trip.Destination})
	return err
}

func createDayPlan(ctx context.Context, tx CypherRunner, tripID string, seq int, dp domain.NormalizedDayPlan) error {
	dpID := tripID + ":day:" + strconv.Itoa(seq)

	var day any
	if dp.Day != nil {
		day = *dp.Day
	}
	_, err := tx.Run(ctx, `
		MATCH (tp:TripPlan {id: $trip_id})
		CREATE (dp:DayPlan {id: $id, day: $day, current_city: $current_city})
		CREATE (tp)-[:HAS_DAY_PLAN]->(dp)`,
		map[string]any{
			"trip_id":      tripID,
			"id":           dpID,
			"day":          day,
			"current_city": dp.CurrentCity,
		})
	if err != nil {
		return err
	}

	// A day's current_city can be absent or the "-" sentinel; only real
	// city names get merged and linked.
	if normalize.ActivityPresent(dp.CurrentCity) {
		if err := mergeCity(ctx, tx, dp.CurrentCity); err != nil {
			return err
		}
		_, err = tx.Run(ctx, `
			MATCH (dp:DayPlan {id: $dp_id})
			MATCH (c:City {name: $city})
			MERGE (dp)-[:IN_CITY]->(c)`,
			map[string]any{"dp_id": dpID, "city": dp.CurrentCity})
		if err != nil {
			return err
		}
	}

	for _, act := range dp.Activities {
		if err := createActivity(ctx, tx, dpID, act); err != nil {
			return err
		}
	}
	return nil
}

// createActivity attaches one activity node to a day plan. Label and
// relationship type come from the closed kind enumeration; the record's
// text is a parameter only.
func createActivity(ctx context.Context, tx CypherRunner, dpID string, act domain.Activity) error {
	label := activityLabel(act.Kind)
	rel := activityRelType(act.Kind)

	params := map[string]any{"dp_id": dpID, "value": act.Value}
	props := "{value: $value}"
	if act.Slot != domain.SlotNone {
		props = "{value: $value, meal_type: $meal_type}"
		params["meal_type"] = string(act.Slot)
	}

	cypher := fmt.Sprintf(`
		MATCH (dp:DayPlan {id: $dp_id})
		CREATE (n:%s %s)
		CREATE (dp)-[:%s]->(n)`, label, props, rel)
	_, err := tx.Run(ctx, cypher, params)
	return err
}

func createReference(ctx context.Context, tx CypherRunner, tripID string, ref domain.NormalizedReference) error {
	_, err := tx.Run(ctx, `
		MATCH (tp:TripPlan {id: $trip_id})
		CREATE (ri:ReferenceInfo {description: $description, content: $content})
		CREATE (tp)-[:HAS_REFERENCE]->(ri)`,
		map[string]any{
			"trip_id":     tripID,
			"description": ref.Description,
			"content":     ref.Content,
		})
	return err
}

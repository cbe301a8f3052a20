package graph

import (
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

// City is a city node. Cities are merged by name, so the name doubles as
// the identity key.
type City struct {
	Name string `json:"name"`
}

// activityLabel returns the node label for an activity kind. The kind
// enumeration is closed, so the label set is fixed at compile time.
func activityLabel(k domain.ActivityKind) string {
	return k.String()
}

// activityRelType returns the relationship type attaching an activity to
// its day plan: HAS_TRANSPORTATION, HAS_MEAL, HAS_ATTRACTION,
// HAS_ACCOMMODATION.
func activityRelType(k domain.ActivityKind) string {
	return "HAS_" + strings.ToUpper(k.String())
}

func cityToMap(c City) map[string]any {
	return map[string]any{"name": c.Name}
}

func cityFromRecord(rec *neo4j.Record) (City, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return City{}, err
	}
	return City{Name: strProp(node.Props, "name")}, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

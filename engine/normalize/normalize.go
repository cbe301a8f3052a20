// Package normalize decodes loosely-typed corpus records into the typed
// trip structures consumed by the graph writer. Normalization is total:
// missing scalars resolve to documented defaults, and a payload that
// fails to decode yields an empty sequence for that field — never an
// error for the record as a whole.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
	"github.com/VoyagentAI/voyagent-mvp/pkg/fn"
)

// activityFields maps the six day-plan fields to their kind and meal
// slot, in materialization order. Relationship names downstream derive
// from the kind enumeration, never from record content.
var activityFields = []struct {
	key  string
	kind domain.ActivityKind
	slot domain.MealSlot
}{
	{"transportation", domain.KindTransportation, domain.SlotNone},
	{"breakfast", domain.KindMeal, domain.SlotBreakfast},
	{"lunch", domain.KindMeal, domain.SlotLunch},
	{"dinner", domain.KindMeal, domain.SlotDinner},
	{"attraction", domain.KindAttraction, domain.SlotNone},
	{"accommodation", domain.KindAccommodation, domain.SlotNone},
}

// Trip converts one raw record into a NormalizedTrip.
func Trip(rec domain.RawRecord) domain.NormalizedTrip {
	t := domain.NormalizedTrip{
		Origin:          str(rec, "org", domain.UnknownCity),
		Destination:     str(rec, "dest", domain.UnknownCity),
		Days:            integer(rec, "days"),
		VisitingCities:  integer(rec, "visiting_city_number"),
		Date:            str(rec, "date", "[]"),
		PartySize:       integer(rec, "people_number"),
		LocalConstraint: str(rec, "local_constraint", "{}"),
		Budget:          number(rec, "budget"),
		Query:           str(rec, "query", ""),
		Level:           str(rec, "level", domain.UnknownLevel),
		AnnotatedPlan:   str(rec, "annotated_plan", "[]"),
		ReferenceInfo:   str(rec, "reference_information", "[]"),
	}
	t.DayPlans = DayPlans(t.AnnotatedPlan)
	t.References = References(t.ReferenceInfo)
	return t
}

// DayPlans decodes the annotated-plan payload. Only dict-shaped,
// non-empty entries survive; anything else is dropped silently. A
// payload that does not decode at all yields nil.
func DayPlans(payload string) []domain.NormalizedDayPlan {
	return fn.FilterMap(decodeEntries(payload), func(item any) (domain.NormalizedDayPlan, bool) {
		entry, ok := item.(map[string]any)
		if !ok || len(entry) == 0 {
			return domain.NormalizedDayPlan{}, false
		}
		dp := domain.NormalizedDayPlan{
			CurrentCity: toString(entry["current_city"]),
		}
		if day, ok := toInt(entry["days"]); ok {
			dp.Day = &day
		}
		for _, f := range activityFields {
			val := toString(entry[f.key])
			if !ActivityPresent(val) {
				continue
			}
			dp.Activities = append(dp.Activities, domain.Activity{
				Kind:  f.kind,
				Value: val,
				Slot:  f.slot,
			})
		}
		return dp, true
	})
}

// References decodes the reference-information payload. Only entries
// carrying both a Description and a Content key are kept.
func References(payload string) []domain.NormalizedReference {
	return fn.FilterMap(decodeEntries(payload), func(item any) (domain.NormalizedReference, bool) {
		entry, ok := item.(map[string]any)
		if !ok {
			return domain.NormalizedReference{}, false
		}
		desc, hasDesc := entry["Description"]
		content, hasContent := entry["Content"]
		if !hasDesc || !hasContent {
			return domain.NormalizedReference{}, false
		}
		return domain.NormalizedReference{
			Description: toString(desc),
			Content:     toString(content),
		}, true
	})
}

// decodeEntries decodes a payload expected to hold a sequence. Anything
// else, including an undecodable payload, yields nil.
func decodeEntries(payload string) []any {
	v, ok := DecodeLiteral(payload)
	if !ok {
		return nil
	}
	entries, _ := v.([]any)
	return entries
}

// ActivityPresent reports whether an activity field carries real data:
// non-empty after trimming and not the "-" no-data sentinel.
func ActivityPresent(val string) bool {
	trimmed := strings.TrimSpace(val)
	return trimmed != "" && trimmed != "-"
}

// --- scalar coercion ---

// str returns the field as a string, or def when the field is absent or nil.
func str(rec domain.RawRecord, key, def string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return def
	}
	return toString(v)
}

// integer returns the field coerced to int64, or 0 when absent or unparsable.
func integer(rec domain.RawRecord, key string) int64 {
	n, ok := toInt(rec[key])
	if !ok {
		return 0
	}
	return n
}

// number returns the field coerced to float64, or 0 when absent or unparsable.
func number(rec domain.RawRecord, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Package domain defines the record and trip types shared across the
// ingestion and query paths, plus the error taxonomy of the ingestion run.
package domain

// RawRecord is one corpus record as delivered by a dataset source:
// field name → raw value. Several fields are strings that themselves
// encode nested list/dict structures (annotated_plan, reference_information).
type RawRecord map[string]any

// UnknownCity is the placeholder merged as a literal city name when a
// record carries no origin or destination.
const UnknownCity = "unknown"

// UnknownLevel is the default difficulty tag for records without one.
const UnknownLevel = "unknown"

// NormalizedTrip is one fully decoded trip record, ready for the graph writer.
type NormalizedTrip struct {
	Origin          string
	Destination     string
	Days            int64
	VisitingCities  int64
	Date            string // raw encoded date list, kept verbatim
	PartySize       int64
	LocalConstraint string
	Budget          float64
	Query           string
	Level           string

	// Raw nested payloads retained verbatim on the TripPlan node for
	// audit/debug and for the query projection.
	AnnotatedPlan string
	ReferenceInfo string

	DayPlans   []NormalizedDayPlan
	References []NormalizedReference
}

// NormalizedDayPlan is one parsed day entry of a trip. Activities holds
// only the fields that carried real data; sentinel values ("" or "-")
// never survive normalization.
type NormalizedDayPlan struct {
	Day         *int64 // nil when the source entry had no day number
	CurrentCity string // may be "" or "-" meaning unspecified
	Activities  []Activity
}

// NormalizedReference is one reference-information entry of a trip.
type NormalizedReference struct {
	Description string
	Content     string
}

// ActivityKind enumerates the closed set of activity node kinds. Schema
// label and relationship names are derived from this enumeration only,
// never from record content.
type ActivityKind int

const (
	KindTransportation ActivityKind = iota
	KindMeal
	KindAttraction
	KindAccommodation
)

func (k ActivityKind) String() string {
	switch k {
	case KindTransportation:
		return "Transportation"
	case KindMeal:
		return "Meal"
	case KindAttraction:
		return "Attraction"
	case KindAccommodation:
		return "Accommodation"
	default:
		return "Unknown"
	}
}

// MealSlot tags a Meal activity with its slot. Empty for non-meal kinds.
type MealSlot string

const (
	SlotNone      MealSlot = ""
	SlotBreakfast MealSlot = "Breakfast"
	SlotLunch     MealSlot = "Lunch"
	SlotDinner    MealSlot = "Dinner"
)

// Activity is a leaf fact attached to a day plan.
type Activity struct {
	Kind  ActivityKind
	Value string
	Slot  MealSlot
}

// TripSummary is the flat projection of TripPlan scalar fields returned
// by the query service. Day-level detail is not expanded; callers that
// need it re-derive it from AnnotatedPlan.
type TripSummary struct {
	Origin        string  `json:"org"`
	Destination   string  `json:"dest"`
	Days          int64   `json:"days"`
	Date          string  `json:"date"`
	PartySize     int64   `json:"people_number"`
	Budget        float64 `json:"budget"`
	Query         string  `json:"query"`
	Level         string  `json:"level"`
	AnnotatedPlan string  `json:"annotated_plan"`
	ReferenceInfo string  `json:"reference_information"`
}

// Package planner turns graph lookups into travel itineraries. It
// retrieves matching trip plans, formats them as model context, and asks
// a local language model for a day-by-day itinerary.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

// ErrNoOrigin is returned when a request carries no origin city.
var ErrNoOrigin = errors.New("planner: origin city required")

// TripFinder is the graph-side lookup dependency. *graph.GraphStore
// satisfies it.
type TripFinder interface {
	FindTrips(ctx context.Context, origin, destination string) ([]domain.TripSummary, error)
	FindTripsFromOrigin(ctx context.Context, origin string) ([]domain.TripSummary, error)
}

// ChatModel generates text from a prompt. *ollama.ChatClient satisfies it.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service orchestrates retrieval and generation.
type Service struct {
	finder TripFinder
	chat   ChatModel
	logger *slog.Logger
}

// New creates a planner. chat may be nil, in which case Plan returns
// the retrieved trips without a generated itinerary.
func New(finder TripFinder, chat ChatModel, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{finder: finder, chat: chat, logger: logger}
}

// Request describes what the traveler asked for.
type Request struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination,omitempty"`
	Days        int     `json:"days,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	Query       string  `json:"query,omitempty"` // free-text request, used verbatim in the prompt
}

// Itinerary is the planner's answer.
type Itinerary struct {
	Text         string               `json:"text,omitempty"`
	Trips        []domain.TripSummary `json:"trips"`
	FallbackUsed bool                 `json:"fallback_used"`
}

// Plan retrieves reference trips and generates an itinerary. When an
// origin/destination pair has no exact match, the search falls back to
// all trips departing the origin.
func (s *Service) Plan(ctx context.Context, req Request) (*Itinerary, error) {
	if strings.TrimSpace(req.Origin) == "" {
		return nil, ErrNoOrigin
	}

	trips, fallback, err := s.lookup(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("planner: lookup: %w", err)
	}
	s.logger.Info("planner: trips retrieved",
		"origin", req.Origin, "destination", req.Destination,
		"count", len(trips), "fallback", fallback)

	it := &Itinerary{Trips: trips, FallbackUsed: fallback}
	if s.chat == nil {
		return it, nil
	}

	prompt := BuildPrompt(req, FormatTrips(trips))
	text, err := s.chat.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("planner: generate: %w", err)
	}
	it.Text = text
	return it, nil
}

func (s *Service) lookup(ctx context.Context, req Request) ([]domain.TripSummary, bool, error) {
	if req.Destination != "" {
		trips, err := s.finder.FindTrips(ctx, req.Origin, req.Destination)
		if err != nil {
			return nil, false, err
		}
		if len(trips) > 0 {
			return trips, false, nil
		}
		// No exact match; widen to every trip departing the origin.
		trips, err = s.finder.FindTripsFromOrigin(ctx, req.Origin)
		return trips, true, err
	}
	trips, err := s.finder.FindTripsFromOrigin(ctx, req.Origin)
	return trips, false, err
}

// FormatTrips renders retrieved trips as model context: a count line, an
// interpretation guide, and the raw data as indented JSON.
func FormatTrips(trips []domain.TripSummary) string {
	if len(trips) == 0 {
		return "No matching trips found."
	}
	data, _ := json.MarshalIndent(trips, "", "  ")
	return fmt.Sprintf("Found %d trip plans.\n\n%s\n\nJSON DATA:\n%s",
		len(trips), interpretationGuide, data)
}

const interpretationGuide = `TRIP DATA INTERPRETATION GUIDE:
- Each trip's annotated_plan contains day plans with activities and accommodations
- "transportation" fields show how travelers move between locations
- meal fields (breakfast, lunch, dinner) contain dining information
- "attraction" fields show points of interest to visit
- "accommodation" fields show where travelers stay

COST ESTIMATION GUIDELINES:
- Write all costs in plain text format (e.g., "$20 per day for 3 days = $60")
- Present price ranges as "$100-150"
- Do not use mathematical notation that might render incorrectly in markdown
- Avoid mathematical subscripts and superscripts`

// BuildPrompt assembles the generation prompt from the request and the
// formatted trip context.
func BuildPrompt(req Request, tripsContext string) string {
	query := req.Query
	if query == "" {
		query = synthesizeQuery(req)
	}

	var b strings.Builder
	b.WriteString("You are an expert travel planner. Create a detailed travel itinerary based on the following request:\n\n")
	fmt.Fprintf(&b, "USER QUERY: %s\n\n", query)
	b.WriteString(tripsContext)
	b.WriteString(`

Based on the user query and the reference trips (if available), create a detailed day-by-day itinerary.
Include:
- Transportation recommendations
- Accommodation suggestions
- Meals and restaurants
- Activities and attractions
- Estimated costs where possible

FORMAT REQUIREMENTS:
1. Format the itinerary in a clear, organized way with headings for each day
2. Write all cost calculations in plain text format (e.g., "$20 per day for 3 days = $60 total")
3. Write price ranges with a dash (e.g., "$100-150")
4. Do not use mathematical notation that might render incorrectly in markdown
5. Present costs in a clear table format when listing multiple expenses
`)
	return b.String()
}

func synthesizeQuery(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a trip from %s", req.Origin)
	if req.Destination != "" {
		fmt.Fprintf(&b, " to %s", req.Destination)
	}
	if req.Days > 0 {
		fmt.Fprintf(&b, " for %d days", req.Days)
	}
	if req.Budget > 0 {
		fmt.Fprintf(&b, " with a budget of $%.0f", req.Budget)
	}
	b.WriteString(".")
	return b.String()
}

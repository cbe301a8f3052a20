package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

type fakeFinder struct {
	pairTrips   []domain.TripSummary
	originTrips []domain.TripSummary
	err         error

	pairCalls   int
	originCalls int
}

func (f *fakeFinder) FindTrips(_ context.Context, _, _ string) ([]domain.TripSummary, error) {
	f.pairCalls++
	return f.pairTrips, f.err
}

func (f *fakeFinder) FindTripsFromOrigin(_ context.Context, _ string) ([]domain.TripSummary, error) {
	f.originCalls++
	return f.originTrips, f.err
}

type fakeChat struct {
	prompt string
	reply  string
	err    error
}

func (c *fakeChat) Generate(_ context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.reply, c.err
}

func summary(org, dest string) domain.TripSummary {
	return domain.TripSummary{Origin: org, Destination: dest, Days: 3, Budget: 1900}
}

func TestPlan_ExactMatch(t *testing.T) {
	finder := &fakeFinder{pairTrips: []domain.TripSummary{summary("New York", "Chicago")}}
	chat := &fakeChat{reply: "Day 1: ..."}
	svc := New(finder, chat, nil)

	it, err := svc.Plan(context.Background(), Request{Origin: "New York", Destination: "Chicago"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if it.FallbackUsed {
		t.Error("fallback must not trigger on an exact match")
	}
	if finder.originCalls != 0 {
		t.Errorf("origin-only lookup called %d times", finder.originCalls)
	}
	if it.Text != "Day 1: ..." || len(it.Trips) != 1 {
		t.Errorf("itinerary wrong: %+v", it)
	}
}

func TestPlan_FallbackToOrigin(t *testing.T) {
	finder := &fakeFinder{
		pairTrips:   nil,
		originTrips: []domain.TripSummary{summary("New York", "Boston")},
	}
	svc := New(finder, &fakeChat{reply: "ok"}, nil)

	it, err := svc.Plan(context.Background(), Request{Origin: "New York", Destination: "Atlantis"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !it.FallbackUsed {
		t.Error("expected fallback to origin-only search")
	}
	if finder.pairCalls != 1 || finder.originCalls != 1 {
		t.Errorf("calls: pair=%d origin=%d", finder.pairCalls, finder.originCalls)
	}
	if len(it.Trips) != 1 || it.Trips[0].Destination != "Boston" {
		t.Errorf("trips wrong: %+v", it.Trips)
	}
}

func TestPlan_OriginOnly(t *testing.T) {
	finder := &fakeFinder{originTrips: []domain.TripSummary{summary("Denver", "Seattle")}}
	svc := New(finder, &fakeChat{reply: "ok"}, nil)

	it, err := svc.Plan(context.Background(), Request{Origin: "Denver"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if it.FallbackUsed {
		t.Error("origin-only request is not a fallback")
	}
	if finder.pairCalls != 0 {
		t.Errorf("pair lookup called %d times", finder.pairCalls)
	}
}

func TestPlan_NoOrigin(t *testing.T) {
	svc := New(&fakeFinder{}, nil, nil)
	if _, err := svc.Plan(context.Background(), Request{Origin: "  "}); !errors.Is(err, ErrNoOrigin) {
		t.Fatalf("expected ErrNoOrigin, got %v", err)
	}
}

func TestPlan_NilChatReturnsTripsOnly(t *testing.T) {
	finder := &fakeFinder{originTrips: []domain.TripSummary{summary("A", "B")}}
	svc := New(finder, nil, nil)

	it, err := svc.Plan(context.Background(), Request{Origin: "A"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if it.Text != "" || len(it.Trips) != 1 {
		t.Errorf("itinerary wrong: %+v", it)
	}
}

func TestPlan_LookupError(t *testing.T) {
	finder := &fakeFinder{err: errors.New("neo4j down")}
	svc := New(finder, nil, nil)
	if _, err := svc.Plan(context.Background(), Request{Origin: "A"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPlan_PromptCarriesQueryAndTrips(t *testing.T) {
	finder := &fakeFinder{pairTrips: []domain.TripSummary{summary("New York", "Chicago")}}
	chat := &fakeChat{reply: "ok"}
	svc := New(finder, chat, nil)

	req := Request{Origin: "New York", Destination: "Chicago", Query: "romantic weekend with jazz"}
	if _, err := svc.Plan(context.Background(), req); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !strings.Contains(chat.prompt, "romantic weekend with jazz") {
		t.Error("prompt missing user query")
	}
	if !strings.Contains(chat.prompt, "Found 1 trip plans.") {
		t.Error("prompt missing trip context")
	}
	if !strings.Contains(chat.prompt, `"org": "New York"`) {
		t.Error("prompt missing trip JSON")
	}
}

func TestFormatTrips_Empty(t *testing.T) {
	if got := FormatTrips(nil); got != "No matching trips found." {
		t.Errorf("FormatTrips(nil) = %q", got)
	}
}

func TestSynthesizeQuery(t *testing.T) {
	got := synthesizeQuery(Request{Origin: "New York", Destination: "Chicago", Days: 3, Budget: 1900})
	want := "Plan a trip from New York to Chicago for 3 days with a budget of $1900."
	if got != want {
		t.Errorf("synthesizeQuery = %q, want %q", got, want)
	}
}

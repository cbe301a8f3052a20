// Command plan generates a travel itinerary from the command line. It
// looks up matching trip plans in the knowledge graph and, unless told
// otherwise, asks a local Ollama model to write the itinerary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/VoyagentAI/voyagent-mvp/engine/graph"
	"github.com/VoyagentAI/voyagent-mvp/engine/planner"
	"github.com/VoyagentAI/voyagent-mvp/pkg/ollama"
)

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	_ = godotenv.Load()

	var (
		origin      = flag.String("origin", "", "origin city (required)")
		dest        = flag.String("dest", "", "destination city")
		days        = flag.Int("days", 0, "trip length in days")
		budget      = flag.Float64("budget", 0, "trip budget in dollars")
		query       = flag.String("query", "", "free-text request passed to the model")
		tripsOnly   = flag.Bool("trips-only", false, "print retrieved trips without calling the model")
		neo4jURL    = flag.String("neo4j", envOr("NEO4J_URL", "neo4j://localhost:7687"), "Neo4j bolt URL")
		neo4jUser   = flag.String("neo4j-user", envOr("NEO4J_USER", "neo4j"), "Neo4j username")
		neo4jPass   = flag.String("neo4j-pass", envOr("NEO4J_PASS", "password"), "Neo4j password")
		ollamaURL   = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
		ollamaModel = flag.String("model", envOr("OLLAMA_MODEL", "llama3.1"), "Ollama model name")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *origin == "" {
		fmt.Fprintln(os.Stderr, "usage: plan -origin <city> [-dest <city>] [-days N] [-budget N] [-query \"...\"]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
	if err != nil {
		logger.Error("neo4j connect failed", "err", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)

	store := graph.New(driver)

	var chat planner.ChatModel
	if !*tripsOnly {
		chat = ollama.NewChatClient(*ollamaURL, *ollamaModel)
	}
	svc := planner.New(store, chat, logger)

	it, err := svc.Plan(ctx, planner.Request{
		Origin:      *origin,
		Destination: *dest,
		Days:        *days,
		Budget:      *budget,
		Query:       *query,
	})
	if err != nil {
		logger.Error("planning failed", "err", err)
		os.Exit(1)
	}

	if it.FallbackUsed {
		fmt.Printf("No exact %s -> %s match; showing trips departing %s.\n\n", *origin, *dest, *origin)
	}
	if it.Text != "" {
		fmt.Println(it.Text)
		return
	}
	fmt.Println(planner.FormatTrips(it.Trips))
}

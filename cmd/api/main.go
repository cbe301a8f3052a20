// Command api serves the trip query and planning HTTP API on top of the
// Neo4j knowledge graph.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
	"github.com/VoyagentAI/voyagent-mvp/engine/graph"
	"github.com/VoyagentAI/voyagent-mvp/engine/planner"
	"github.com/VoyagentAI/voyagent-mvp/pkg/mid"
	"github.com/VoyagentAI/voyagent-mvp/pkg/ollama"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	Neo4jURL    string
	Neo4jUser   string
	Neo4jPass   string
	OllamaURL   string
	OllamaModel string
	CORSOrigin  string
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		Neo4jURL:    envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:   envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:   envOr("NEO4J_PASS", "password"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: envOr("OLLAMA_MODEL", "llama3.1"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()
	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	store := graph.New(driver)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	chat := ollama.NewChatClient(cfg.OllamaURL, cfg.OllamaModel)
	plannerSvc := planner.New(store, chat, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/trips", handleTrips(store, logger))
	mux.HandleFunc("GET /api/cities", handleCities(store, logger))
	mux.HandleFunc("GET /api/cities/{name}", handleCity(store, logger))
	mux.HandleFunc("GET /api/stats", handleStats(store, logger))
	mux.HandleFunc("POST /api/plan", handlePlan(plannerSvc, logger))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("voyagent-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTrips serves GET /api/trips?origin=X[&destination=Y]. No match
// returns 200 with an empty list.
func handleTrips(store *graph.GraphStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.URL.Query().Get("origin")
		destination := r.URL.Query().Get("destination")
		if origin == "" {
			writeError(w, http.StatusBadRequest, "origin is required")
			return
		}

		var (
			trips []domain.TripSummary
			err   error
		)
		if destination != "" {
			trips, err = store.FindTrips(r.Context(), origin, destination)
		} else {
			trips, err = store.FindTripsFromOrigin(r.Context(), origin)
		}
		if err != nil {
			logger.Error("trip query failed", "err", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(trips), "trips": trips})
	}
}

func handleCities(store *graph.GraphStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cities, err := store.ListCities(r.Context())
		if err != nil {
			logger.Error("city list failed", "err", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if cities == nil {
			cities = []graph.City{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(cities), "cities": cities})
	}
}

func handleCity(store *graph.GraphStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		city, err := store.GetCity(r.Context(), name)
		if err != nil {
			if errors.Is(err, graph.ErrCityNotFound) {
				writeError(w, http.StatusNotFound, "city not found")
				return
			}
			logger.Error("city lookup failed", "err", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		writeJSON(w, http.StatusOK, city)
	}
}

func handleStats(store *graph.GraphStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GraphStats(r.Context())
		if err != nil {
			logger.Error("stats query failed", "err", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handlePlan(svc *planner.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planner.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		it, err := svc.Plan(r.Context(), req)
		if err != nil {
			if errors.Is(err, planner.ErrNoOrigin) {
				writeError(w, http.StatusBadRequest, "origin is required")
				return
			}
			logger.Error("plan failed", "err", err)
			writeError(w, http.StatusInternalServerError, "planning failed")
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

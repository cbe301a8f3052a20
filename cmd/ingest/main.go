// Command ingest loads travel-plan records into the Neo4j knowledge
// graph, either from a local JSON/JSONL file, straight from the Hugging
// Face datasets server, or by consuming records published on NATS.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/VoyagentAI/voyagent-mvp/engine/dataset"
	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
	"github.com/VoyagentAI/voyagent-mvp/engine/graph"
	"github.com/VoyagentAI/voyagent-mvp/engine/ingest"
	"github.com/VoyagentAI/voyagent-mvp/pkg/metrics"
	"github.com/VoyagentAI/voyagent-mvp/pkg/resilience"
)

var met = metrics.New()

var (
	mTripsWritten = met.Counter("voyagent_ingest_trips_written_total", "Trips written to the graph")
	mTripsSkipped = met.Counter("voyagent_ingest_trips_skipped_total", "Records skipped during ingestion")
	mWriteDur     = met.Histogram("voyagent_ingest_write_duration_seconds", "Per-record graph write latency", nil)
	mRunActive    = met.Gauge("voyagent_ingest_run_active", "1 while an ingestion run is in flight")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	var (
		source      = flag.String("source", "hub", "record source: hub, file, or nats")
		file        = flag.String("file", "", "path to a JSON/JSONL file or directory (source=file)")
		offset      = flag.Int("offset", 0, "record offset to resume from")
		stateFile   = flag.String("state", "", "file persisting the resume offset across runs")
		hubRPS      = flag.Float64("hub-rps", 2, "datasets-server requests per second")
		writeRPS    = flag.Float64("write-rps", 0, "graph writes per second, 0 for unlimited")
		workers     = flag.Int("workers", 1, "concurrent graph writers")
		neo4jURL    = flag.String("neo4j", envOr("NEO4J_URL", "neo4j://localhost:7687"), "Neo4j bolt URL")
		neo4jUser   = flag.String("neo4j-user", envOr("NEO4J_USER", "neo4j"), "Neo4j username")
		neo4jPass   = flag.String("neo4j-pass", envOr("NEO4J_PASS", "password"), "Neo4j password")
		natsURL     = flag.String("nats", envOr("NATS_URL", nats.DefaultURL), "NATS URL (source=nats or -publish)")
		publish     = flag.Bool("publish", false, "publish records to NATS instead of writing to the graph")
		metricsPort = flag.Int("metrics-port", 9091, "Prometheus metrics port")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	met.ServeAsync(*metricsPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	off := *offset
	if off == 0 && *stateFile != "" {
		off = loadOffset(*stateFile)
		if off > 0 {
			log.Info("resuming from saved offset", "offset", off, "state", *stateFile)
		}
	}

	var src dataset.Source
	switch *source {
	case "nats":
		// consumed below, no local source
	case "file":
		if *file == "" {
			log.Error("source=file requires -file")
			os.Exit(1)
		}
		if info, err := os.Stat(*file); err == nil && info.IsDir() {
			dirSrc, err := dataset.NewDirSource(*file, dataset.WithConcatOffset(off))
			if err != nil {
				log.Error("directory source failed", "error", err)
				os.Exit(1)
			}
			src = dirSrc
		} else {
			src = dataset.NewFileSource(*file, dataset.WithFileOffset(off))
		}
	case "hub":
		src = dataset.NewHubSource(
			dataset.WithHubOffset(off),
			dataset.WithRateLimit(*hubRPS),
		)
	default:
		log.Error("unknown source", "source", *source)
		os.Exit(1)
	}

	// Publish mode forwards records to NATS and never touches the graph.
	if *publish {
		if src == nil {
			log.Error("-publish requires source=file or source=hub")
			os.Exit(1)
		}
		nc, err := nats.Connect(*natsURL, nats.Name("voyagent-ingest"))
		if err != nil {
			log.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		defer nc.Drain()
		n, err := ingest.PublishRecords(ctx, nc, src, log)
		if err != nil {
			log.Error("publish aborted", "error", err, "published", n)
			os.Exit(1)
		}
		log.Info("publish finished", "published", n, "subject", ingest.TripSubject)
		return
	}

	driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
	if err != nil {
		log.Error("neo4j connect failed", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Error("neo4j verify failed", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Neo4j", "url", *neo4jURL)

	store := graph.New(driver)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	deps := ingest.Deps{
		Writer:  &meteredWriter{store: store},
		Breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		Logger:  log,
	}
	if *writeRPS > 0 {
		deps.Limiter = resilience.NewLimiter(resilience.LimiterOpts{Rate: *writeRPS, Burst: 1})
	}

	if *source == "nats" {
		runConsumer(ctx, *natsURL, deps, log)
		return
	}

	mRunActive.Set(1)
	report, err := ingest.RunParallel(ctx, src, deps, *workers)
	mRunActive.Set(0)
	mTripsSkipped.Add(int64(report.Skipped))
	saveOffset(*stateFile, src, log)
	if err != nil {
		log.Error("ingestion aborted", "error", err, "written", report.Written, "skipped", report.Skipped)
		os.Exit(1)
	}
	log.Info("ingestion finished", "written", report.Written, "skipped", report.Skipped, "elapsed", report.Elapsed)
}

// loadOffset reads a saved resume offset, 0 when absent or unreadable.
func loadOffset(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// saveOffset persists the source position so an aborted run can resume.
func saveOffset(path string, src dataset.Source, log *slog.Logger) {
	if path == "" {
		return
	}
	p, ok := src.(dataset.Positioned)
	if !ok {
		return
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(p.Offset())+"\n"), 0o644); err != nil {
		log.Error("state save failed", "error", err, "state", path)
	}
}

// runConsumer blocks on a NATS subscription until the context ends.
func runConsumer(ctx context.Context, url string, deps ingest.Deps, log *slog.Logger) {
	nc, err := nats.Connect(url, nats.Name("voyagent-ingest"))
	if err != nil {
		log.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Drain()

	sub, err := ingest.StartConsumer(nc, deps)
	if err != nil {
		log.Error("consumer start failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	log.Info("consuming trip records", "subject", ingest.TripSubject)
	<-ctx.Done()
	log.Info("shutting down")
}

// meteredWriter counts and times graph writes around the real store.
type meteredWriter struct {
	store *graph.GraphStore
}

func (w *meteredWriter) WriteTrip(ctx context.Context, trip domain.NormalizedTrip) (string, error) {
	start := time.Now()
	id, err := w.store.WriteTrip(ctx, trip)
	mWriteDur.Since(start)
	if err == nil {
		mTripsWritten.Inc()
	}
	return id, err
}

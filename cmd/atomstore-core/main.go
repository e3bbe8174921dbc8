package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/covalent-labs/atomstore-core/internal/adapters/driven/postgres"
	postgresqueue "github.com/covalent-labs/atomstore-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/covalent-labs/atomstore-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/covalent-labs/atomstore-core/internal/adapters/driven/redis"
	"github.com/covalent-labs/atomstore-core/internal/adapters/driven/spacegroup"
	"github.com/covalent-labs/atomstore-core/internal/codec"
	"github.com/covalent-labs/atomstore-core/internal/config"
	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
	"github.com/covalent-labs/atomstore-core/internal/core/services"
	"github.com/covalent-labs/atomstore-core/internal/worker"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line arg overrides the configured mode
	mode := cfg.Mode
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	log.Printf("atomstore-core %s starting in %s mode", version, mode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	dbConfig := postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 300 * time.Second,
		ConnMaxIdleTime: 60 * time.Second,
	}
	db, err := postgres.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize schema (idempotent)
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== PostgreSQL stores =====
	catalogStore := postgres.NewCatalogStore(db)
	jobStore := postgres.NewJobStore(db)
	schedulerStore := postgres.NewSchedulerStore(db)

	// ===== Task queue (Redis if available, otherwise PostgreSQL) =====
	var taskQueue driven.TaskQueue
	if redisClient != nil {
		var err error
		taskQueue, err = redisqueue.NewQueue(redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		log.Println("Using Redis task queue")
	} else {
		taskQueue = postgresqueue.NewQueue(db.DB)
		log.Println("Using PostgreSQL task queue")
	}
	defer taskQueue.Close()

	// ===== Distributed lock (Redis if available, otherwise advisory locks) =====
	var distributedLock driven.DistributedLock
	if redisClient != nil {
		distributedLock = redisadapter.NewLock(redisClient)
		log.Println("Using Redis distributed lock")
	} else {
		distributedLock = postgres.NewAdvisoryLock(db)
		log.Println("Using PostgreSQL advisory lock")
	}

	// ===== Core pipeline =====
	structureCodec := codec.New(codec.Config{
		Spacegroups: spacegroup.NewDetector(),
	})

	orchestrator := services.NewIngestOrchestrator(services.IngestOrchestratorConfig{
		Tracker: jobStore,
		Store:   catalogStore,
		Codec:   structureCodec,
		User:    cfg.User,
		Logger:  slog.Default(),
	})

	var scheduler *services.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = services.NewScheduler(services.SchedulerConfig{
			Store:        schedulerStore,
			TaskQueue:    taskQueue,
			Lock:         distributedLock,
			Logger:       slog.Default(),
			PollInterval: cfg.Scheduler.PollInterval,
			LockTTL:      cfg.Scheduler.LockTTL,
			LockRequired: true,
		})

		if err := ensureDefaultSchedules(ctx, scheduler, cfg.Scheduler.UpdateInterval); err != nil {
			log.Fatalf("Failed to register default schedules: %v", err)
		}
		log.Printf("Scheduler enabled (update_interval=%s)", cfg.Scheduler.UpdateInterval)
	} else {
		log.Println("Scheduler disabled")
	}

	switch mode {
	case "worker":
		runWorkerMode(ctx, cfg, taskQueue, orchestrator, scheduler)

	case "update":
		runUpdate(ctx, orchestrator)

	case "stats":
		runStats(ctx, taskQueue, catalogStore)

	default:
		log.Fatalf("Unknown mode: %s (use: worker, update, or stats)", mode)
	}
}

// ensureDefaultSchedules registers the recurring catalog update if no
// schedule with that ID exists yet.
func ensureDefaultSchedules(ctx context.Context, scheduler *services.Scheduler, interval time.Duration) error {
	for _, scheduled := range domain.DefaultSchedulerConfig() {
		_, err := scheduler.GetScheduledTask(ctx, scheduled.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		scheduled.Interval = interval
		scheduled.NextRun = time.Now().Add(interval)
		if err := scheduler.CreateScheduledTask(ctx, scheduled); err != nil {
			return err
		}
		log.Printf("Registered schedule %s (every %s)", scheduled.ID, interval)
	}
	return nil
}

// runWorkerMode starts the worker and scheduler and blocks until shutdown.
func runWorkerMode(
	ctx context.Context,
	cfg *config.Config,
	taskQueue driven.TaskQueue,
	orchestrator *services.IngestOrchestrator,
	scheduler *services.Scheduler,
) {
	log.Println("Starting worker mode...")

	w := worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      taskQueue,
		Orchestrator:   orchestrator,
		Scheduler:      scheduler,
		Logger:         slog.Default(),
		Concurrency:    cfg.Worker.Concurrency,
		DequeueTimeout: cfg.Worker.DequeueTimeoutSeconds,
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, processing tasks...")
	log.Println("Worker handles:")
	log.Println("  - ingest_job: Catalog one completed relaxation job")
	log.Println("  - ingest_all: Catalog every missing completed job")

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// runUpdate performs one synchronous catalog update and exits.
func runUpdate(ctx context.Context, orchestrator *services.IngestOrchestrator) {
	result, err := orchestrator.IngestAll(ctx)
	if err != nil {
		log.Fatalf("Catalog update failed: %v", err)
	}

	log.Printf("Catalog update finished in %.1fs: %d seen, %d missing, %d inserted, %d skipped, %d errors",
		result.Duration,
		result.Stats.JobsSeen,
		result.Stats.JobsMissing,
		result.Stats.DocsInserted,
		result.Stats.JobsSkipped,
		result.Stats.Errors,
	)
}

// runStats prints catalog and queue statistics as JSON and exits.
func runStats(ctx context.Context, taskQueue driven.TaskQueue, catalogStore driven.CatalogStore) {
	count, err := catalogStore.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count catalog entries: %v", err)
	}

	queueStats, err := taskQueue.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read queue stats: %v", err)
	}

	out := map[string]any{
		"catalog_entries": count,
		"queue":           queueStats,
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode stats: %v", err)
	}
	fmt.Println(string(encoded))
}

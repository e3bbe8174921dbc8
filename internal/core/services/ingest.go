package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/covalent-labs/atomstore-core/internal/codec"
	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// IngestOrchestrator coordinates the catalog update pipeline.
// It implements the 5-step ingest flow:
//  1. Ask the tracker for all completed job IDs
//  2. Diff against the job IDs already cataloged
//  3. Pull each missing job with its structures
//  4. Encode each job into a document (final structure, initial
//     configuration, run metadata)
//  5. Batch-insert the new entries
type IngestOrchestrator struct {
	tracker driven.JobTracker
	store   driven.CatalogStore
	codec   *codec.Codec
	user    string
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// IngestOrchestratorConfig holds dependencies for IngestOrchestrator.
type IngestOrchestratorConfig struct {
	Tracker driven.JobTracker
	Store   driven.CatalogStore
	Codec   *codec.Codec

	// User is the provenance identity stamped into every document this
	// instance writes.
	User   string
	Logger *slog.Logger
}

// NewIngestOrchestrator creates a new ingest orchestrator.
func NewIngestOrchestrator(cfg IngestOrchestratorConfig) *IngestOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IngestOrchestrator{
		tracker: cfg.Tracker,
		store:   cfg.Store,
		codec:   cfg.Codec,
		user:    cfg.User,
		logger:  logger,
	}
}

// IngestAll discovers every completed job missing from the catalog and
// inserts a document for each. Per-job failures are logged and counted,
// never fatal to the run; only tracker or store failures abort. At most one
// run per instance: a second concurrent call fails with ErrIngestInProgress
// instead of racing the first over the same missing set.
func (o *IngestOrchestrator) IngestAll(ctx context.Context) (*domain.IngestResult, error) {
	startTime := time.Now()

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return failResult(startTime, domain.ErrIngestInProgress), domain.ErrIngestInProgress
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	o.logger.Info("starting catalog update")

	missing, seen, err := o.missingJobIDs(ctx)
	if err != nil {
		return failResult(startTime, err), err
	}

	stats := domain.IngestStats{JobsSeen: seen, JobsMissing: len(missing)}
	var entries []*domain.CatalogEntry

	for _, jobID := range missing {
		select {
		case <-ctx.Done():
			return failResult(startTime, ctx.Err()), ctx.Err()
		default:
		}

		entry, err := o.buildEntry(ctx, jobID)
		switch {
		case errors.Is(err, domain.ErrAtomCountMismatch):
			o.logger.Warn("skipping job with inconsistent trajectory", "job_id", jobID)
			stats.JobsSkipped++
			continue
		case err != nil:
			o.logger.Warn("failed to build document", "job_id", jobID, "error", err)
			stats.Errors++
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) > 0 {
		inserted, err := o.store.InsertBatch(ctx, entries)
		if err != nil {
			err = fmt.Errorf("insert entries: %w", err)
			return failResult(startTime, err), err
		}
		stats.DocsInserted = inserted
	}

	duration := time.Since(startTime).Seconds()
	o.logger.Info("catalog update completed",
		"duration_seconds", duration,
		"jobs_seen", stats.JobsSeen,
		"jobs_missing", stats.JobsMissing,
		"docs_inserted", stats.DocsInserted,
		"jobs_skipped", stats.JobsSkipped,
		"errors", stats.Errors,
	)

	return &domain.IngestResult{
		Success:  true,
		Stats:    stats,
		Duration: duration,
	}, nil
}

// IngestJob ingests a single completed job. Already-cataloged jobs are a
// no-op, which makes task retries and races between workers harmless.
func (o *IngestOrchestrator) IngestJob(ctx context.Context, jobID int64) error {
	if _, err := o.store.GetByJobID(ctx, jobID); err == nil {
		o.logger.Debug("job already cataloged", "job_id", jobID)
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check catalog: %w", err)
	}

	entry, err := o.buildEntry(ctx, jobID)
	if err != nil {
		return err
	}

	if err := o.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("insert entry: %w", err)
	}

	o.logger.Info("cataloged job", "job_id", jobID, "entry_id", entry.ID)
	return nil
}

// missingJobIDs returns the completed job IDs not yet in the catalog,
// sorted for deterministic processing, plus the total completed count.
func (o *IngestOrchestrator) missingJobIDs(ctx context.Context) ([]int64, int, error) {
	completed, err := o.tracker.CompletedJobIDs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list completed jobs: %w", err)
	}

	cataloged, err := o.store.ListJobIDs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list cataloged jobs: %w", err)
	}

	have := make(map[int64]struct{}, len(cataloged))
	for _, id := range cataloged {
		have[id] = struct{}{}
	}

	var missing []int64
	for _, id := range completed {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, len(completed), nil
}

// buildEntry pulls one job and encodes it into a catalog entry: the relaxed
// structure as the document body, with the submitted structure and run
// metadata as extra fields.
func (o *IngestOrchestrator) buildEntry(ctx context.Context, jobID int64) (*domain.CatalogEntry, error) {
	job, err := o.tracker.Job(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch job: %w", err)
	}
	if !job.Consistent() {
		return nil, fmt.Errorf("job %d: %w", jobID, domain.ErrAtomCountMismatch)
	}

	initialDoc, err := o.codec.Encode(job.Initial, o.user, nil)
	if err != nil {
		return nil, fmt.Errorf("encode initial configuration: %w", err)
	}

	movement, err := job.Final.MaxMovement(job.Initial)
	if err != nil {
		return nil, err
	}

	doc, err := o.codec.Encode(job.Final, o.user, map[string]any{
		"initial_configuration": initialDoc,
		"job_name":              job.Name,
		"job_id":                job.ID,
		"directory":             job.Directory,
		"calculation_date":      job.CompletedAt.UTC(),
		"max_atom_movement":     movement,
	})
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	return &domain.CatalogEntry{
		ID:    domain.GenerateID(),
		JobID: job.ID,
		Doc:   doc,
	}, nil
}

func failResult(startTime time.Time, err error) *domain.IngestResult {
	return &domain.IngestResult{
		Success:  false,
		Error:    err.Error(),
		Duration: time.Since(startTime).Seconds(),
	}
}

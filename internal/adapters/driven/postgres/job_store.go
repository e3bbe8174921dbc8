package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/codec"
	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobTracker = (*JobStore)(nil)

// JobStore implements driven.JobTracker against the relaxation_jobs table.
// Cluster-side tooling writes rows there as runs finish; this adapter only
// reads. Structures are stored as codec payloads, computed quantities as a
// JSONB results column that gets attached to the final structure as a
// read-only single-point record.
type JobStore struct {
	db *DB
}

// NewJobStore creates a new JobStore
func NewJobStore(db *DB) *JobStore {
	return &JobStore{db: db}
}

// jobResults is the shape of the results column. Absent fields stay nil so
// the attached record never fabricates a zero for an uncomputed quantity.
type jobResults struct {
	Energy  *float64     `json:"energy,omitempty"`
	Forces  [][3]float64 `json:"forces,omitempty"`
	Stress  *[6]float64  `json:"stress,omitempty"`
	Magmoms []float64    `json:"magmoms,omitempty"`
}

// CompletedJobIDs returns the IDs of all jobs the tracker reports as
// successfully completed.
func (s *JobStore) CompletedJobIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT id FROM relaxation_jobs WHERE state = $1`

	rows, err := s.db.QueryContext(ctx, query, domain.JobStateCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// Job retrieves one job with its initial and final structures rebuilt from
// their stored payloads.
func (s *JobStore) Job(ctx context.Context, id int64) (*domain.RelaxationJob, error) {
	query := `
		SELECT id, name, state, directory, completed_at, initial_payload, final_payload, results
		FROM relaxation_jobs
		WHERE id = $1
	`

	var job domain.RelaxationJob
	var nameJSON, resultsJSON []byte
	var completedAt sql.NullTime
	var initialPayload, finalPayload string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&nameJSON,
		&job.State,
		&job.Directory,
		&completedAt,
		&initialPayload,
		&finalPayload,
		&resultsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		job.CompletedAt = completedAt.Time
	}

	if len(nameJSON) > 0 {
		if err := json.Unmarshal(nameJSON, &job.Name); err != nil {
			return nil, fmt.Errorf("unmarshal job name: %w", err)
		}
	}

	job.Initial, err = codec.UnmarshalPayload(initialPayload)
	if err != nil {
		return nil, fmt.Errorf("job %d initial structure: %w", id, err)
	}

	job.Final, err = codec.UnmarshalPayload(finalPayload)
	if err != nil {
		return nil, fmt.Errorf("job %d final structure: %w", id, err)
	}

	var results jobResults
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &results); err != nil {
			return nil, fmt.Errorf("unmarshal job results: %w", err)
		}
	}
	if results.Energy != nil || results.Forces != nil || results.Stress != nil || results.Magmoms != nil {
		job.Final.Calc = domain.NewSinglePoint(job.Final, domain.SinglePointResults{
			Energy:  results.Energy,
			Forces:  results.Forces,
			Stress:  results.Stress,
			Magmoms: results.Magmoms,
		})
	}

	return &job, nil
}

// Ping checks if the tracker backend is reachable
func (s *JobStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package domain

import "time"

// JobState represents the lifecycle state of a relaxation job as reported
// by the external tracker.
type JobState string

const (
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
	JobStateDefused   JobState = "defused"
)

// RelaxationJob is one completed relaxation as reported by the external job
// tracker: the structure as submitted, the structure after relaxation, and
// run metadata.
type RelaxationJob struct {
	// ID is the tracker's job identifier
	ID int64 `json:"id"`

	// Name carries the tracker's job naming metadata (calculation type,
	// settings, target identifiers)
	Name map[string]any `json:"name"`

	// State is the tracker-reported lifecycle state
	State JobState `json:"state"`

	// Directory is the cluster path the relaxation ran in
	Directory string `json:"directory"`

	// CompletedAt is when the tracker marked the job done
	CompletedAt time.Time `json:"completed_at"`

	// Initial is the structure as submitted
	Initial *Structure `json:"-"`

	// Final is the relaxed structure with attached results
	Final *Structure `json:"-"`
}

// Consistent reports whether the initial and final structures describe the
// same atom collection. Jobs failing this check come from corrupt
// trajectories and are skipped during ingest.
func (j *RelaxationJob) Consistent() bool {
	if j.Initial == nil || j.Final == nil {
		return false
	}
	return len(j.Initial.Atoms) == len(j.Final.Atoms)
}

// IngestStats holds statistics for one catalog update run
type IngestStats struct {
	JobsSeen     int `json:"jobs_seen"`
	JobsMissing  int `json:"jobs_missing"`
	DocsInserted int `json:"docs_inserted"`
	JobsSkipped  int `json:"jobs_skipped"`
	Errors       int `json:"errors"`
}

// IngestResult represents the outcome of a catalog update run
type IngestResult struct {
	Success  bool        `json:"success"`
	Stats    IngestStats `json:"stats"`
	Error    string      `json:"error,omitempty"`
	Duration float64     `json:"duration_seconds"`
}

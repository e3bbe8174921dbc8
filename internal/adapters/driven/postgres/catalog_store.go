package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/covalent-labs/atomstore-core/internal/core/domain"
	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CatalogStore = (*CatalogStore)(nil)

// CatalogStore implements driven.CatalogStore using PostgreSQL. The full
// document is stored as JSONB; natoms, spacegroup, user, and the timestamps
// are promoted into plain columns so common queries skip JSONB operators.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new CatalogStore
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

const insertEntryQuery = `
	INSERT INTO catalog_entries (id, job_id, doc, natoms, spacegroup, username, ctime, mtime)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (job_id) DO NOTHING
`

// Insert adds one catalog entry. The catalog is append-only per job: an
// entry for an already-cataloged job returns domain.ErrAlreadyExists and
// leaves the stored document untouched.
func (s *CatalogStore) Insert(ctx context.Context, entry *domain.CatalogEntry) error {
	docJSON, err := json.Marshal(entry.Doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	result, err := s.db.ExecContext(ctx, insertEntryQuery,
		entry.ID,
		entry.JobID,
		docJSON,
		entry.Doc.Atoms.NAtoms,
		entry.Doc.Atoms.Spacegroup,
		entry.Doc.User,
		entry.Doc.Ctime,
		entry.Doc.Mtime,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrAlreadyExists
	}

	return nil
}

// InsertBatch adds multiple entries in one transaction, skipping jobs that
// already have one. Returns the number actually inserted.
func (s *CatalogStore) InsertBatch(ctx context.Context, entries []*domain.CatalogEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	var inserted int
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertEntryQuery)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, entry := range entries {
			docJSON, err := json.Marshal(entry.Doc)
			if err != nil {
				return fmt.Errorf("marshal document for job %d: %w", entry.JobID, err)
			}

			result, err := stmt.ExecContext(ctx,
				entry.ID,
				entry.JobID,
				docJSON,
				entry.Doc.Atoms.NAtoms,
				entry.Doc.Atoms.Spacegroup,
				entry.Doc.User,
				entry.Doc.Ctime,
				entry.Doc.Mtime,
			)
			if err != nil {
				return fmt.Errorf("insert entry for job %d: %w", entry.JobID, err)
			}

			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			inserted += int(rows)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// Get retrieves an entry by its catalog ID
func (s *CatalogStore) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	query := `
		SELECT id, job_id, doc
		FROM catalog_entries
		WHERE id = $1
	`

	return s.scanEntry(s.db.QueryRowContext(ctx, query, id))
}

// GetByJobID retrieves the entry produced by a relaxation job
func (s *CatalogStore) GetByJobID(ctx context.Context, jobID int64) (*domain.CatalogEntry, error) {
	query := `
		SELECT id, job_id, doc
		FROM catalog_entries
		WHERE job_id = $1
	`

	return s.scanEntry(s.db.QueryRowContext(ctx, query, jobID))
}

func (s *CatalogStore) scanEntry(row *sql.Row) (*domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	var docJSON []byte

	err := row.Scan(&entry.ID, &entry.JobID, &docJSON)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.Doc = &domain.Document{}
	if err := json.Unmarshal(docJSON, entry.Doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return &entry, nil
}

// ListJobIDs returns the job IDs of every cataloged entry. The updater
// diffs this set against the tracker's completed set.
func (s *CatalogStore) ListJobIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT job_id FROM catalog_entries`

	rows, err := s.db.QueryContext(ctx, query)
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

// List retrieves entries ordered by creation time with pagination
func (s *CatalogStore) List(ctx context.Context, limit, offset int) ([]*domain.CatalogEntry, error) {
	query := `
		SELECT id, job_id, doc
		FROM catalog_entries
		ORDER BY ctime DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.CatalogEntry
	for rows.Next() {
		var entry domain.CatalogEntry
		var docJSON []byte

		if err := rows.Scan(&entry.ID, &entry.JobID, &docJSON); err != nil {
			return nil, err
		}

		entry.Doc = &domain.Document{}
		if err := json.Unmarshal(docJSON, entry.Doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Count returns total entry count
func (s *CatalogStore) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM catalog_entries`
	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// Ping checks if the database is reachable
func (s *CatalogStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

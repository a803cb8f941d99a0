package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zonuko/internal/database"
	"zonuko/internal/models"
)

// CompletionRepository handles per-child project progress records
type CompletionRepository struct {
	db database.DBTX
}

// NewCompletionRepository creates a new completion repository
func NewCompletionRepository(db database.DBTX) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) WithTx(tx *database.Tx) *CompletionRepository {
	return &CompletionRepository{db: tx}
}

const completionColumns = `id, child_id, project_id, status, rating, reflection_text, has_reflection,
	started_at, completed_at, reflection_at, created_at, updated_at`

// GetOrCreate returns the record for the pair, creating a not_started one
// if none exists. A concurrent insert for the same pair is absorbed by the
// unique constraint and the existing row is returned.
func (r *CompletionRepository) GetOrCreate(ctx context.Context, childID, projectID int64) (*models.ProjectCompletion, error) {
	now := time.Now().UTC()
	query := r.db.GetDialect().InsertIgnore(`
		INSERT INTO project_completions (child_id, project_id, status, reflection_text, has_reflection, created_at, updated_at)
		VALUES (?, ?, ?, '', ?, ?, ?)
	`)
	if _, err := r.db.ExecContext(ctx, query, childID, projectID, string(models.StatusNotStarted), false, now, now); err != nil {
		return nil, fmt.Errorf("failed to create completion: %w", err)
	}

	c, err := r.Get(ctx, childID, projectID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("completion for child %d project %d missing after insert", childID, projectID)
	}
	return c, nil
}

// Get returns the record for the pair, or nil
func (r *CompletionRepository) Get(ctx context.Context, childID, projectID int64) (*models.ProjectCompletion, error) {
	query := "SELECT " + completionColumns + " FROM project_completions WHERE child_id = ? AND project_id = ?"
	c, err := scanCompletion(r.db.QueryRowContext(ctx, query, childID, projectID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}
	return c, nil
}

// ListByChild returns all of a child's records keyed by project id
func (r *CompletionRepository) ListByChild(ctx context.Context, childID int64) (map[int64]*models.ProjectCompletion, error) {
	query := "SELECT " + completionColumns + " FROM project_completions WHERE child_id = ?"
	rows, err := r.db.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	out := map[int64]*models.ProjectCompletion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		out[c.ProjectID] = c
	}
	return out, rows.Err()
}

// MarkStarted moves a not_started record to in_progress. It reports false
// when the record was in any other state.
func (r *CompletionRepository) MarkStarted(ctx context.Context, childID, projectID int64, now time.Time) (bool, error) {
	query := `
		UPDATE project_completions
		SET status = ?, started_at = ?, updated_at = ?
		WHERE child_id = ? AND project_id = ? AND status = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		string(models.StatusInProgress), now, now, childID, projectID, string(models.StatusNotStarted))
	if err != nil {
		return false, fmt.Errorf("failed to start project: %w", err)
	}
	return rowsAffected(res)
}

// MarkCompleted moves an in_progress record to completed and stores the
// reflection. It reports false when the record was not in progress.
func (r *CompletionRepository) MarkCompleted(ctx context.Context, childID, projectID int64, reflection string, meaningful bool, now time.Time) (bool, error) {
	var reflectionAt sql.NullTime
	if reflection != "" {
		reflectionAt = sql.NullTime{Time: now, Valid: true}
	}
	query := `
		UPDATE project_completions
		SET status = ?, completed_at = ?, reflection_text = ?, has_reflection = ?, reflection_at = ?, updated_at = ?
		WHERE child_id = ? AND project_id = ? AND status = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		string(models.StatusCompleted), now, reflection, meaningful, reflectionAt, now,
		childID, projectID, string(models.StatusInProgress))
	if err != nil {
		return false, fmt.Errorf("failed to complete project: %w", err)
	}
	return rowsAffected(res)
}

// SetRating annotates a completed record. It reports false for any other state.
func (r *CompletionRepository) SetRating(ctx context.Context, childID, projectID int64, rating int, now time.Time) (bool, error) {
	query := `
		UPDATE project_completions
		SET rating = ?, updated_at = ?
		WHERE child_id = ? AND project_id = ? AND status = ?
	`
	res, err := r.db.ExecContext(ctx, query, rating, now, childID, projectID, string(models.StatusCompleted))
	if err != nil {
		return false, fmt.Errorf("failed to rate project: %w", err)
	}
	return rowsAffected(res)
}

// History aggregates the counts a child's stage and badges derive from
func (r *CompletionRepository) History(ctx context.Context, childID int64) (models.CompletionHistory, error) {
	query := `
		SELECT
			COUNT(DISTINCT project_id),
			COALESCE(SUM(CASE WHEN has_reflection THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reflection_text <> '' THEN 1 ELSE 0 END), 0)
		FROM project_completions
		WHERE child_id = ? AND (status = ? OR completed_at IS NOT NULL)
	`
	var h models.CompletionHistory
	err := r.db.QueryRowContext(ctx, query, childID, string(models.StatusCompleted)).Scan(
		&h.CompletedProjects,
		&h.MeaningfulReflections,
		&h.ReflectiveCompletions,
	)
	if err != nil {
		return h, fmt.Errorf("failed to load completion history: %w", err)
	}
	return h, nil
}

func scanCompletion(row rowScanner) (*models.ProjectCompletion, error) {
	c := &models.ProjectCompletion{}
	var status string
	var rating sql.NullInt64
	var startedAt, completedAt, reflectionAt sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.ChildID,
		&c.ProjectID,
		&status,
		&rating,
		&c.ReflectionText,
		&c.HasReflection,
		&startedAt,
		&completedAt,
		&reflectionAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = models.CompletionStatus(status)
	if rating.Valid {
		v := int(rating.Int64)
		c.Rating = &v
	}
	c.StartedAt = timePtr(startedAt)
	c.CompletedAt = timePtr(completedAt)
	c.ReflectionAt = timePtr(reflectionAt)
	return c, nil
}

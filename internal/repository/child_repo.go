package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zonuko/internal/database"
	"zonuko/internal/models"
)

// ChildRepository handles database operations for child accounts
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ChildRepository) WithTx(tx *database.Tx) *ChildRepository {
	return &ChildRepository{db: tx}
}

const childColumns = `id, parent_id, username, age_band, current_stage, stage_reached_at,
	total_reflections, creative_thinking, practical_making, problem_solving, resilience,
	created_at, updated_at`

// CreateChild creates a child at stage 1 together with a zeroed accumulator
// for every growth pathway.
func (r *ChildRepository) CreateChild(ctx context.Context, parentID int64, username string, band models.AgeBand) (*models.Child, error) {
	now := time.Now().UTC()
	var id int64

	err := inTx(ctx, r.db, func(db database.DBTX) error {
		var err error
		id, err = db.ExecReturningID(ctx, `
			INSERT INTO children (parent_id, username, age_band, current_stage, stage_reached_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, parentID, username, string(band), int(models.StageExplorer), now, now, now)
		if err != nil {
			return fmt.Errorf("failed to create child: %w", err)
		}
		return NewPathwayRepository(db).EnsureForChild(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return r.GetChild(ctx, id)
}

// GetChild retrieves a child by ID
func (r *ChildRepository) GetChild(ctx context.Context, childID int64) (*models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE id = ?"
	child, err := scanChild(r.db.QueryRowContext(ctx, query, childID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// ListChildIDs returns every child id in ascending order
func (r *ChildRepository) ListChildIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM children ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateStage stores a recomputed stage
func (r *ChildRepository) UpdateStage(ctx context.Context, childID int64, stage models.Stage, now time.Time) error {
	query := "UPDATE children SET current_stage = ?, stage_reached_at = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, int(stage), now, now, childID); err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	return nil
}

// AddGrowth increments the child's raw dimension counters and reflection count
func (r *ChildRepository) AddGrowth(ctx context.Context, childID int64, gain models.SkillDimensions, reflections int, now time.Time) error {
	query := `
		UPDATE children SET
			creative_thinking = creative_thinking + ?,
			practical_making = practical_making + ?,
			problem_solving = problem_solving + ?,
			resilience = resilience + ?,
			total_reflections = total_reflections + ?,
			updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		gain.CreativeThinking, gain.PracticalMaking, gain.ProblemSolving, gain.Resilience,
		reflections, now, childID)
	if err != nil {
		return fmt.Errorf("failed to add growth: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChild(row rowScanner) (*models.Child, error) {
	child := &models.Child{}
	var band string
	var stage int
	var reachedAt sql.NullTime
	err := row.Scan(
		&child.ID,
		&child.ParentID,
		&child.Username,
		&band,
		&stage,
		&reachedAt,
		&child.TotalReflections,
		&child.Dimensions.CreativeThinking,
		&child.Dimensions.PracticalMaking,
		&child.Dimensions.ProblemSolving,
		&child.Dimensions.Resilience,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	child.AgeBand = models.AgeBand(band)
	child.Stage = models.Stage(stage)
	child.StageReachedAt = timePtr(reachedAt)
	return child, nil
}

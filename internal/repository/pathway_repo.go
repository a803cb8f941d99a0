package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zonuko/internal/database"
	"zonuko/internal/models"
)

// PathwayRepository stores per-child growth pathway accumulators
type PathwayRepository struct {
	db database.DBTX
}

func NewPathwayRepository(db database.DBTX) *PathwayRepository {
	return &PathwayRepository{db: db}
}

func (r *PathwayRepository) WithTx(tx *database.Tx) *PathwayRepository {
	return &PathwayRepository{db: tx}
}

// EnsureForChild creates any missing pathway rows at zero points.
func (r *PathwayRepository) EnsureForChild(ctx context.Context, childID int64) error {
	query := r.db.GetDialect().InsertIgnore(
		"INSERT INTO growth_pathways (child_id, pathway, points, level, progress, updated_at) VALUES (?, ?, 0, 1, 0, ?)")
	now := time.Now().UTC()
	for _, p := range models.Pathways {
		if _, err := r.db.ExecContext(ctx, query, childID, string(p), now); err != nil {
			return fmt.Errorf("failed to create pathway %s: %w", p, err)
		}
	}
	return nil
}

// ListByChild returns the child's pathways keyed by pathway
func (r *PathwayRepository) ListByChild(ctx context.Context, childID int64) (map[models.Pathway]*models.GrowthPathway, error) {
	query := `
		SELECT id, child_id, pathway, points, level, progress, last_boosted_at, updated_at
		FROM growth_pathways
		WHERE child_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pathways: %w", err)
	}
	defer rows.Close()

	out := map[models.Pathway]*models.GrowthPathway{}
	for rows.Next() {
		p := &models.GrowthPathway{}
		var key string
		var boosted sql.NullTime
		if err := rows.Scan(&p.ID, &p.ChildID, &key, &p.Points, &p.Level, &p.Progress, &boosted, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pathway: %w", err)
		}
		p.Pathway = models.Pathway(key)
		p.LastBoostedAt = timePtr(boosted)
		out[p.Pathway] = p
	}
	return out, rows.Err()
}

// Save writes back points, level and progress
func (r *PathwayRepository) Save(ctx context.Context, p *models.GrowthPathway) error {
	query := `
		UPDATE growth_pathways
		SET points = ?, level = ?, progress = ?, last_boosted_at = ?, updated_at = ?
		WHERE child_id = ? AND pathway = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		p.Points, p.Level, p.Progress, nullTime(p.LastBoostedAt), p.UpdatedAt, p.ChildID, string(p.Pathway))
	if err != nil {
		return fmt.Errorf("failed to save pathway %s: %w", p.Pathway, err)
	}
	return nil
}

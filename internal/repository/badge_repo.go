package repository

import (
	"context"
	"fmt"
	"time"

	"zonuko/internal/database"
	"zonuko/internal/models"
)

// BadgeRepository records badges awarded to children
type BadgeRepository struct {
	db database.DBTX
}

func NewBadgeRepository(db database.DBTX) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func (r *BadgeRepository) WithTx(tx *database.Tx) *BadgeRepository {
	return &BadgeRepository{db: tx}
}

// ListByChild returns awarded badges, oldest first
func (r *BadgeRepository) ListByChild(ctx context.Context, childID int64) ([]models.ChildBadge, error) {
	query := "SELECT child_id, badge, awarded_at FROM child_badges WHERE child_id = ? ORDER BY awarded_at ASC, badge ASC"
	rows, err := r.db.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []models.ChildBadge
	for rows.Next() {
		var b models.ChildBadge
		var name string
		if err := rows.Scan(&b.ChildID, &name, &b.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		b.Badge = models.Badge(name)
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// Award records a badge and reports whether it was new
func (r *BadgeRepository) Award(ctx context.Context, childID int64, badge models.Badge, now time.Time) (bool, error) {
	query := r.db.GetDialect().InsertIgnore("INSERT INTO child_badges (child_id, badge, awarded_at) VALUES (?, ?, ?)")
	res, err := r.db.ExecContext(ctx, query, childID, string(badge), now)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	return rowsAffected(res)
}

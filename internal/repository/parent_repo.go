package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zonuko/internal/database"
	"zonuko/internal/models"
)

// ParentRepository reads the parent accounts that own children. Account
// management itself lives outside this service.
type ParentRepository struct {
	db database.DBTX
}

func NewParentRepository(db database.DBTX) *ParentRepository {
	return &ParentRepository{db: db}
}

// CreateParent inserts a parent record
func (r *ParentRepository) CreateParent(ctx context.Context, email, displayName string) (*models.Parent, error) {
	now := time.Now().UTC()
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO parents (email, display_name, created_at) VALUES (?, ?, ?)",
		email, displayName, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}
	return &models.Parent{ID: id, Email: email, DisplayName: displayName, CreatedAt: now}, nil
}

// GetByChildID returns the parent that owns the child
func (r *ParentRepository) GetByChildID(ctx context.Context, childID int64) (*models.Parent, error) {
	query := `
		SELECT p.id, p.email, p.display_name, p.created_at
		FROM parents p
		JOIN children c ON c.parent_id = p.id
		WHERE c.id = ?
	`
	parent := &models.Parent{}
	err := r.db.QueryRowContext(ctx, query, childID).Scan(
		&parent.ID,
		&parent.Email,
		&parent.DisplayName,
		&parent.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return parent, nil
}

package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"zonuko/internal/database"
	"zonuko/internal/models"
	"zonuko/internal/repository"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "service.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}

func seedChild(t *testing.T, db *database.DB, username string, band models.AgeBand) *models.Child {
	t.Helper()
	ctx := context.Background()
	parent, err := repository.NewParentRepository(db).CreateParent(ctx, username+"-parent@example.com", "Parent of "+username)
	require.NoError(t, err)
	child, err := repository.NewChildRepository(db).CreateChild(ctx, parent.ID, username, band)
	require.NoError(t, err)
	return child
}

func seedProject(t *testing.T, db *database.DB, p models.Project) int64 {
	t.Helper()
	id, _, err := repository.NewCatalogRepository(db).UpsertProject(context.Background(), &p)
	require.NoError(t, err)
	return id
}

// liveSpark is a released stage-1 spark for the given band.
func liveSpark(title string, band models.AgeBand) models.Project {
	return models.Project{
		Title:        title,
		Category:     models.CategoryScience,
		Type:         models.ProjectTypeSpark,
		Difficulty:   1,
		AgeBands:     []models.AgeBand{band},
		MinimumStage: models.StageExplorer,
		Visibility:   models.VisibilityLive,
	}
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

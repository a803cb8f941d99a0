package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonuko/internal/database"
	"zonuko/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}

func seedChild(t *testing.T, db *database.DB, band models.AgeBand) *models.Child {
	t.Helper()
	ctx := context.Background()
	parent, err := NewParentRepository(db).CreateParent(ctx, "parent-"+string(band)+"@example.com", "Pat")
	require.NoError(t, err)
	child, err := NewChildRepository(db).CreateChild(ctx, parent.ID, "kid-"+string(band), band)
	require.NoError(t, err)
	return child
}

func seedProject(t *testing.T, db *database.DB, p models.Project) int64 {
	t.Helper()
	id, created, err := NewCatalogRepository(db).UpsertProject(context.Background(), &p)
	require.NoError(t, err)
	require.True(t, created)
	return id
}

func TestChildRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewChildRepository(db)

	child := seedChild(t, db, models.AgeBandNavigators)
	assert.Equal(t, models.StageExplorer, child.Stage)
	assert.Equal(t, models.AgeBandNavigators, child.AgeBand)
	assert.NotNil(t, child.StageReachedAt)

	pathways, err := NewPathwayRepository(db).ListByChild(ctx, child.ID)
	require.NoError(t, err)
	assert.Len(t, pathways, len(models.Pathways))
	for _, p := range pathways {
		assert.Zero(t, p.Points)
		assert.Equal(t, 1, p.Level)
	}

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateStage(ctx, child.ID, models.StageBuilder, now))
	require.NoError(t, repo.AddGrowth(ctx, child.ID, models.SkillDimensions{PracticalMaking: 6, Resilience: 2}, 1, now))
	require.NoError(t, repo.AddGrowth(ctx, child.ID, models.SkillDimensions{PracticalMaking: 1}, 0, now))

	got, err := repo.GetChild(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageBuilder, got.Stage)
	assert.Equal(t, 7, got.Dimensions.PracticalMaking)
	assert.Equal(t, 2, got.Dimensions.Resilience)
	assert.Equal(t, 1, got.TotalReflections)

	missing, err := repo.GetChild(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	ids, err := repo.ListChildIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{child.ID}, ids)

	parent, err := NewParentRepository(db).GetByChildID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, "parent-NAVIGATORS@example.com", parent.Email)
}

func TestCatalogRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCatalogRepository(db)

	measuring, err := repo.GetOrCreateSkill(ctx, "measuring", "")
	require.NoError(t, err)
	again, err := repo.GetOrCreateSkill(ctx, "measuring", "ignored")
	require.NoError(t, err)
	assert.Equal(t, measuring, again)
	cutting, err := repo.GetOrCreateSkill(ctx, "cutting", "")
	require.NoError(t, err)

	publish := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	base := models.Project{
		Title:        "Paper Bridge",
		Category:     models.CategoryEngineering,
		Type:         models.ProjectTypeSpark,
		Difficulty:   2,
		AgeBands:     []models.AgeBand{models.AgeBandNavigators, models.AgeBandImaginauts},
		MinimumStage: models.StageExperimenter,
		Visibility:   models.VisibilityScheduled,
		PublishedAt:  &publish,
		IsFeatured:   true,
		Tags:         []string{"paper", "bridges"},
		Dimensions:   models.SkillDimensions{PracticalMaking: 3, ProblemSolving: 2},
		Skills: []models.SkillWeight{
			{SkillID: measuring, Weight: 4},
			{SkillID: cutting, Weight: 2},
		},
		InstructionSteps: []models.InstructionStep{{Title: "Step 1", Body: "Fold"}, {Title: "Step 2", Body: "Test"}},
		PathwayPoints:    models.PathwayPointMap{models.PathwayMaking: 15, models.PathwayDesignPlanning: 5},
	}
	bridgeID := seedProject(t, db, base)

	other := models.Project{
		Title:           "Star Map",
		Category:        models.CategoryScience,
		Type:            models.ProjectTypeLab,
		Difficulty:      1,
		AgeBands:        []models.AgeBand{models.AgeBandTrailblazers},
		MinimumStage:    models.StageExplorer,
		Visibility:      models.VisibilityLive,
		PrerequisiteIDs: []int64{bridgeID},
	}
	starID := seedProject(t, db, other)

	navigators, err := repo.ListByAgeBand(ctx, models.AgeBandNavigators)
	require.NoError(t, err)
	require.Len(t, navigators, 1)
	p := navigators[0]
	assert.Equal(t, bridgeID, p.ID)
	assert.ElementsMatch(t, []models.AgeBand{models.AgeBandNavigators, models.AgeBandImaginauts}, p.AgeBands)
	assert.Equal(t, models.StageExperimenter, p.MinimumStage)
	require.NotNil(t, p.PublishedAt)
	assert.True(t, publish.Equal(*p.PublishedAt))
	assert.True(t, p.IsFeatured)
	assert.Equal(t, []string{"paper", "bridges"}, p.Tags)
	assert.Equal(t, base.Dimensions, p.Dimensions)
	require.Len(t, p.Skills, 2)
	assert.Equal(t, "measuring", p.Skills[0].SkillName)
	assert.Equal(t, 4, p.Skills[0].Weight)
	assert.Equal(t, base.InstructionSteps, p.InstructionSteps)
	assert.Equal(t, base.PathwayPoints, p.PathwayPoints)

	star, err := repo.GetProject(ctx, starID)
	require.NoError(t, err)
	require.NotNil(t, star)
	assert.Equal(t, []int64{bridgeID}, star.PrerequisiteIDs)
	assert.Empty(t, star.Skills)

	// Upsert by title updates in place and replaces associations.
	base.Difficulty = 3
	base.Skills = []models.SkillWeight{{SkillID: cutting, Weight: 5}}
	base.AgeBands = []models.AgeBand{models.AgeBandNavigators}
	id, created, err := repo.UpsertProject(ctx, &base)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, bridgeID, id)

	updated, err := repo.GetProject(ctx, bridgeID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Difficulty)
	assert.Equal(t, []models.AgeBand{models.AgeBandNavigators}, updated.AgeBands)
	require.Len(t, updated.Skills, 1)
	assert.Equal(t, "cutting", updated.Skills[0].SkillName)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	missing, err := repo.GetProject(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, missing)

	skills, err := repo.ListSkills(ctx)
	require.NoError(t, err)
	assert.Len(t, skills, 2)
}

func TestCompletionTransitions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	child := seedChild(t, db, models.AgeBandImaginauts)
	projectID := seedProject(t, db, models.Project{
		Title: "Bottle Rocket", Category: models.CategoryScience, Type: models.ProjectTypeLab,
		Difficulty: 1, AgeBands: []models.AgeBand{models.AgeBandImaginauts},
		MinimumStage: models.StageExplorer, Visibility: models.VisibilityLive,
	})
	repo := NewCompletionRepository(db)
	now := time.Now().UTC()

	rec, err := repo.GetOrCreate(ctx, child.ID, projectID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotStarted, rec.Status)

	again, err := repo.GetOrCreate(ctx, child.ID, projectID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)

	ok, err := repo.MarkCompleted(ctx, child.ID, projectID, "skipped ahead", false, now)
	require.NoError(t, err)
	assert.False(t, ok, "complete from not_started must be a no-op")

	ok, err = repo.SetRating(ctx, child.ID, projectID, 5, now)
	require.NoError(t, err)
	assert.False(t, ok, "rating before completion must be a no-op")

	ok, err = repo.MarkStarted(ctx, child.ID, projectID, now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkStarted(ctx, child.ID, projectID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkCompleted(ctx, child.ID, projectID, "The rocket went really high today!", true, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetRating(ctx, child.ID, projectID, 4, now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Get(ctx, child.ID, projectID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, got.HasReflection)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4, *got.Rating)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.NotNil(t, got.ReflectionAt)

	h, err := repo.History(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionHistory{CompletedProjects: 1, MeaningfulReflections: 1, ReflectiveCompletions: 1}, h)

	byProject, err := repo.ListByChild(ctx, child.ID)
	require.NoError(t, err)
	assert.Len(t, byProject, 1)
	assert.Equal(t, got.ID, byProject[projectID].ID)
}

func TestCompletionGetOrCreateConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	child := seedChild(t, db, models.AgeBandNavigators)
	projectID := seedProject(t, db, models.Project{
		Title: "Marble Run", Category: models.CategoryEngineering, Type: models.ProjectTypeLab,
		Difficulty: 2, AgeBands: []models.AgeBand{models.AgeBandNavigators},
		MinimumStage: models.StageExplorer, Visibility: models.VisibilityLive,
	})
	repo := NewCompletionRepository(db)

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := repo.GetOrCreate(ctx, child.ID, projectID)
			if assert.NoError(t, err) {
				ids[i] = rec.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM project_completions").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestBadgesAndPathways(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	child := seedChild(t, db, models.AgeBandTrailblazers)
	now := time.Now().UTC()

	badges := NewBadgeRepository(db)
	awarded, err := badges.Award(ctx, child.ID, models.BadgeFirstThoughts, now)
	require.NoError(t, err)
	assert.True(t, awarded)
	awarded, err = badges.Award(ctx, child.ID, models.BadgeFirstThoughts, now)
	require.NoError(t, err)
	assert.False(t, awarded)

	list, err := badges.ListByChild(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.BadgeFirstThoughts, list[0].Badge)

	pathways := NewPathwayRepository(db)
	require.NoError(t, pathways.EnsureForChild(ctx, child.ID))
	set, err := pathways.ListByChild(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, set, len(models.Pathways))

	making := set[models.PathwayMaking]
	making.Points, making.Level, making.Progress = 120, 2, 13
	making.LastBoostedAt = &now
	making.UpdatedAt = now
	require.NoError(t, pathways.Save(ctx, making))

	set, err = pathways.ListByChild(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, set[models.PathwayMaking].Points)
	assert.Equal(t, 2, set[models.PathwayMaking].Level)
	assert.NotNil(t, set[models.PathwayMaking].LastBoostedAt)
}

type countingSource struct {
	calls int
}

func (c *countingSource) ListByAgeBand(ctx context.Context, band models.AgeBand) ([]models.Project, error) {
	c.calls++
	return []models.Project{{ID: 1, Title: "Kite", AgeBands: []models.AgeBand{band}}}, nil
}

func TestCachedCatalogWithoutRedis(t *testing.T) {
	src := &countingSource{}
	cache := NewCachedCatalog(src, nil, time.Minute, nil)

	for i := 0; i < 2; i++ {
		projects, err := cache.ListByAgeBand(context.Background(), models.AgeBandNavigators)
		require.NoError(t, err)
		assert.Len(t, projects, 1)
	}
	assert.Equal(t, 2, src.calls)
	assert.NoError(t, cache.Invalidate(context.Background()))
}

func TestNewRedisClientDisabledWithoutAddr(t *testing.T) {
	rdb, err := NewRedisClient(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

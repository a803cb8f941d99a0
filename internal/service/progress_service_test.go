package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonuko/internal/config"
	"zonuko/internal/models"
	"zonuko/internal/repository"
)

const thoughtfulReflection = "I learned that the tape holds better when it is tight"

type recordingNotifier struct {
	milestones []Milestone
	parents    []string
}

func (r *recordingNotifier) SendMilestoneEmail(ctx context.Context, parent *models.Parent, child *models.Child, m Milestone) error {
	r.milestones = append(r.milestones, m)
	r.parents = append(r.parents, parent.Email)
	return nil
}

func newProgressService(t *testing.T) (*ProgressService, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	return NewProgressService(newTestDB(t), config.DefaultPacing(), n, nil), n
}

func startAndComplete(t *testing.T, svc *ProgressService, childID, projectID int64, reflection string) *CompletionResult {
	t.Helper()
	ctx := context.Background()
	started, err := svc.StartProject(ctx, childID, projectID)
	require.NoError(t, err)
	require.True(t, started.Applied)
	res, err := svc.CompleteProject(ctx, childID, projectID, reflection)
	require.NoError(t, err)
	return res
}

func TestStartProject(t *testing.T) {
	svc, _ := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)
	pid := seedProject(t, svc.db, liveSpark("Straw Rocket", models.AgeBandNavigators))

	res, err := svc.StartProject(ctx, child.ID, pid)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.StatusInProgress, res.Completion.Status)
	assert.NotNil(t, res.Completion.StartedAt)

	again, err := svc.StartProject(ctx, child.ID, pid)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, res.Completion.ID, again.Completion.ID)
}

func TestProgressNotFound(t *testing.T) {
	svc, _ := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)
	pid := seedProject(t, svc.db, liveSpark("Straw Rocket", models.AgeBandNavigators))

	_, err := svc.StartProject(ctx, 999, pid)
	assert.ErrorIs(t, err, ErrChildNotFound)
	_, err = svc.CompleteProject(ctx, child.ID, 999, "")
	assert.ErrorIs(t, err, ErrProjectNotFound)
	_, err = svc.Growth(ctx, 999)
	assert.ErrorIs(t, err, ErrChildNotFound)
}

func TestCompleteProjectPipeline(t *testing.T) {
	svc, notifier := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)

	p := liveSpark("Cardboard Loom", models.AgeBandNavigators)
	p.Dimensions = models.SkillDimensions{PracticalMaking: 4}
	p.PathwayPoints = models.PathwayPointMap{models.PathwayMaking: 100}
	pid := seedProject(t, svc.db, p)

	res := startAndComplete(t, svc, child.ID, pid, thoughtfulReflection)
	assert.True(t, res.Applied)
	assert.Equal(t, models.StatusCompleted, res.Completion.Status)
	assert.True(t, res.Completion.HasReflection)
	assert.Contains(t, res.Messages, "+6 Practical Making")
	assert.Contains(t, res.Messages, "+2 Resilience for a thoughtful reflection")
	assert.Contains(t, res.Messages, "+125 Practical Making points")
	assert.Contains(t, res.Messages, "Practical Making reached level 2")
	assert.False(t, res.StageAdvanced)
	assert.Empty(t, res.NewBadges)
	assert.Empty(t, notifier.milestones)

	growth, err := svc.Growth(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SkillDimensions{PracticalMaking: 6, Resilience: 2}, growth.Dimensions)
	assert.Equal(t, 1, growth.TotalReflections)
	assert.Equal(t, 1, growth.History.CompletedProjects)
	require.Len(t, growth.Pathways, len(models.Pathways))
	for _, gp := range growth.Pathways {
		if gp.Pathway == models.PathwayMaking {
			assert.Equal(t, 125, gp.Points)
			assert.Equal(t, 2, gp.Level)
			assert.NotNil(t, gp.LastBoostedAt)
		} else {
			assert.Zero(t, gp.Points, gp.Pathway)
		}
	}

	// A second completion of the same project changes nothing.
	again, err := svc.CompleteProject(ctx, child.ID, pid, thoughtfulReflection)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Empty(t, again.Messages)

	after, err := svc.Growth(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, growth.Dimensions, after.Dimensions)
	assert.Equal(t, 1, after.TotalReflections)
}

func TestCompleteProjectShortReflection(t *testing.T) {
	svc, _ := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)

	p := liveSpark("Cardboard Loom", models.AgeBandNavigators)
	p.Dimensions = models.SkillDimensions{PracticalMaking: 3, CreativeThinking: 1}
	pid := seedProject(t, svc.db, p)

	res := startAndComplete(t, svc, child.ID, pid, "fun")
	assert.True(t, res.Applied)
	assert.False(t, res.Completion.HasReflection)
	assert.Equal(t, []string{"+1 Creative Thinking", "+3 Practical Making"}, res.Messages)

	growth, err := svc.Growth(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SkillDimensions{CreativeThinking: 1, PracticalMaking: 3}, growth.Dimensions)
	assert.Zero(t, growth.TotalReflections)
}

func TestCompleteWithoutStartIsIgnored(t *testing.T) {
	svc, _ := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)
	pid := seedProject(t, svc.db, liveSpark("Straw Rocket", models.AgeBandNavigators))

	res, err := svc.CompleteProject(ctx, child.ID, pid, thoughtfulReflection)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Nil(t, res.Completion)

	growth, err := svc.Growth(ctx, child.ID)
	require.NoError(t, err)
	assert.Zero(t, growth.History.CompletedProjects)
	assert.True(t, growth.Dimensions.IsZero())
}

func TestRateProject(t *testing.T) {
	svc, _ := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)
	pid := seedProject(t, svc.db, liveSpark("Straw Rocket", models.AgeBandNavigators))

	_, err := svc.StartProject(ctx, child.ID, pid)
	require.NoError(t, err)

	early, err := svc.RateProject(ctx, child.ID, pid, 4)
	require.NoError(t, err)
	assert.False(t, early.Applied)
	assert.Nil(t, early.Completion.Rating)

	_, err = svc.CompleteProject(ctx, child.ID, pid, "")
	require.NoError(t, err)

	rated, err := svc.RateProject(ctx, child.ID, pid, 4)
	require.NoError(t, err)
	assert.True(t, rated.Applied)
	require.NotNil(t, rated.Completion.Rating)
	assert.Equal(t, 4, *rated.Completion.Rating)
	assert.Equal(t, models.StatusCompleted, rated.Completion.Status)

	_, err = svc.RateProject(ctx, child.ID, pid, 6)
	assert.Error(t, err)
}

func TestStageAdvanceAndBadges(t *testing.T) {
	svc, notifier := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)

	var ids []int64
	for i := 1; i <= 5; i++ {
		ids = append(ids, seedProject(t, svc.db, liveSpark(fmt.Sprintf("Spark %d", i), models.AgeBandNavigators)))
	}

	var results []*CompletionResult
	for _, id := range ids {
		results = append(results, startAndComplete(t, svc, child.ID, id, thoughtfulReflection))
	}

	assert.False(t, results[1].StageAdvanced)
	assert.True(t, results[2].StageAdvanced)
	assert.Equal(t, models.StageExperimenter, results[2].NewStage)
	assert.Equal(t, "Experimenter", results[2].NewStageLabel)
	assert.Contains(t, results[2].Messages, "You reached the Experimenter stage!")

	assert.Empty(t, results[3].NewBadges)
	assert.Equal(t, []models.Badge{models.BadgeFirstThoughts}, results[4].NewBadges)
	assert.Contains(t, results[4].Messages, "New badge: First Thoughts")

	require.Len(t, notifier.milestones, 2)
	assert.True(t, notifier.milestones[0].StageAdvanced)
	assert.Equal(t, []models.Badge{models.BadgeFirstThoughts}, notifier.milestones[1].NewBadges)
	assert.Equal(t, "ada-parent@example.com", notifier.parents[0])

	growth, err := svc.Growth(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageExperimenter, growth.Stage)
	assert.Equal(t, "I can adapt and improve", growth.StageDescription)
	require.Len(t, growth.Badges, 1)
	assert.Equal(t, models.BadgeFirstThoughts, growth.Badges[0].Badge)
}

func TestReconcileAllStages(t *testing.T) {
	svc, _ := newProgressService(t)
	ctx := context.Background()
	drifted := seedChild(t, svc.db, "ada", models.AgeBandNavigators)
	seedChild(t, svc.db, "grace", models.AgeBandImaginauts)

	children := repository.NewChildRepository(svc.db)
	require.NoError(t, children.UpdateStage(ctx, drifted.ID, models.StageDesigner, time.Now().UTC()))

	changed, err := svc.ReconcileAllStages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := children.GetChild(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageExplorer, got.Stage)

	changed, err = svc.ReconcileAllStages(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed, "a second pass with unchanged history writes nothing")
}

func TestProjectActionsRequireAvailability(t *testing.T) {
	svc, _ := newProgressService(t)
	ctx := context.Background()
	child := seedChild(t, svc.db, "ada", models.AgeBandNavigators)
	open := seedProject(t, svc.db, liveSpark("Straw Rocket", models.AgeBandNavigators))

	hidden := liveSpark("Secret Lab", models.AgeBandNavigators)
	hidden.Visibility = models.VisibilityHidden
	soon := liveSpark("Moon Base", models.AgeBandNavigators)
	soon.Visibility = models.VisibilityComingSoon
	future := time.Now().Add(48 * time.Hour)
	scheduled := liveSpark("Next Week", models.AgeBandNavigators)
	scheduled.Visibility = models.VisibilityScheduled
	scheduled.PublishedAt = &future
	advanced := liveSpark("Bridge Builder", models.AgeBandNavigators)
	advanced.MinimumStage = models.StageBuilder

	blocked := map[string]int64{
		"hidden":         seedProject(t, svc.db, hidden),
		"other age band": seedProject(t, svc.db, liveSpark("Finger Paint", models.AgeBandImaginauts)),
		"coming soon":    seedProject(t, svc.db, soon),
		"unpublished":    seedProject(t, svc.db, scheduled),
		"above stage":    seedProject(t, svc.db, advanced),
	}

	completions := repository.NewCompletionRepository(svc.db)
	for name, pid := range blocked {
		t.Run(name, func(t *testing.T) {
			_, err := svc.StartProject(ctx, child.ID, pid)
			assert.ErrorIs(t, err, ErrProjectNotFound)
			_, err = svc.CompleteProject(ctx, child.ID, pid, thoughtfulReflection)
			assert.ErrorIs(t, err, ErrProjectNotFound)

			rec, err := completions.Get(ctx, child.ID, pid)
			require.NoError(t, err)
			assert.Nil(t, rec, "no record is created for a project the child cannot see")
		})
	}

	res, err := svc.StartProject(ctx, child.ID, open)
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

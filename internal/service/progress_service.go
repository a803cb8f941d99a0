package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zonuko/internal/config"
	"zonuko/internal/content"
	"zonuko/internal/database"
	"zonuko/internal/logger"
	"zonuko/internal/models"
	"zonuko/internal/progression"
	"zonuko/internal/repository"
)

var (
	ErrChildNotFound   = errors.New("child not found")
	ErrProjectNotFound = errors.New("project not found")
)

// ActionResult reports a progress transition. Applied is false when the
// record was not in a state the action accepts.
type ActionResult struct {
	Applied    bool                      `json:"applied"`
	Completion *models.ProjectCompletion `json:"completion,omitempty"`
}

// CompletionResult is what the completion pipeline produced.
type CompletionResult struct {
	Applied       bool                      `json:"applied"`
	Completion    *models.ProjectCompletion `json:"completion,omitempty"`
	Messages      []string                  `json:"messages"`
	StageAdvanced bool                      `json:"stage_advanced"`
	NewStage      models.Stage              `json:"new_stage,omitempty"`
	NewStageLabel string                    `json:"new_stage_label,omitempty"`
	NewBadges     []models.Badge            `json:"new_badges"`
}

// GrowthReport is a child's progression snapshot.
type GrowthReport struct {
	ChildID          int64                    `json:"child_id"`
	Stage            models.Stage             `json:"stage"`
	StageLabel       string                   `json:"stage_label"`
	StageDescription string                   `json:"stage_description"`
	StageReachedAt   *time.Time               `json:"stage_reached_at,omitempty"`
	Dimensions       models.SkillDimensions   `json:"dimensions"`
	TotalReflections int                      `json:"total_reflections"`
	History          models.CompletionHistory `json:"history"`
	Pathways         []models.GrowthPathway   `json:"pathways"`
	Badges           []models.ChildBadge      `json:"badges"`
}

// MilestoneNotifier is satisfied by EmailService
type MilestoneNotifier interface {
	SendMilestoneEmail(ctx context.Context, parent *models.Parent, child *models.Child, m Milestone) error
}

// ProgressService handles project transitions and the completion pipeline
type ProgressService struct {
	db          *database.DB
	children    *repository.ChildRepository
	parents     *repository.ParentRepository
	catalog     *repository.CatalogRepository
	completions *repository.CompletionRepository
	pathways    *repository.PathwayRepository
	badges      *repository.BadgeRepository
	notifier    MilestoneNotifier
	pacing      config.PacingConfig
	reflection  config.ReflectionConfig
	now         func() time.Time
	log         *logger.Logger
}

// NewProgressService creates a new progress service. notifier may be nil.
func NewProgressService(db *database.DB, pacing config.PacingConfig, notifier MilestoneNotifier, log *logger.Logger) *ProgressService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressService{
		db:          db,
		children:    repository.NewChildRepository(db),
		parents:     repository.NewParentRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		completions: repository.NewCompletionRepository(db),
		pathways:    repository.NewPathwayRepository(db),
		badges:      repository.NewBadgeRepository(db),
		notifier:    notifier,
		pacing:      pacing,
		reflection:  pacing.Reflection,
		now:         func() time.Time { return time.Now().UTC() },
		log:         log.With("service", "ProgressService"),
	}
}

func (s *ProgressService) loadPair(ctx context.Context, childID, projectID int64) (*models.Child, *models.Project, error) {
	child, err := s.children.GetChild(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	if child == nil {
		return nil, nil, ErrChildNotFound
	}
	project, err := s.catalog.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, ErrProjectNotFound
	}
	return child, project, nil
}

// loadAvailable is loadPair restricted to projects the child can currently
// see. Anything else reports ErrProjectNotFound.
func (s *ProgressService) loadAvailable(ctx context.Context, childID, projectID int64) (*models.Child, *models.Project, error) {
	child, project, err := s.loadPair(ctx, childID, projectID)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	if _, err := reconcileStage(ctx, s.children, s.completions, child, now); err != nil {
		return nil, nil, err
	}

	projects, err := s.catalog.ListByAgeBand(ctx, child.AgeBand)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.completions.ListByChild(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	if !content.NewQueryEngine(child, projects, progress, s.pacing, now).IsAvailable(projectID) {
		s.log.Debug("Project not available to child", "child_id", childID, "project_id", projectID)
		return nil, nil, ErrProjectNotFound
	}
	return child, project, nil
}

// StartProject moves a project from not_started to in_progress, creating the
// record on first touch. Projects outside the child's available list are
// reported as ErrProjectNotFound.
func (s *ProgressService) StartProject(ctx context.Context, childID, projectID int64) (*ActionResult, error) {
	if _, _, err := s.loadAvailable(ctx, childID, projectID); err != nil {
		return nil, err
	}

	if _, err := s.completions.GetOrCreate(ctx, childID, projectID); err != nil {
		return nil, err
	}
	applied, err := s.completions.MarkStarted(ctx, childID, projectID, s.now())
	if err != nil {
		return nil, err
	}
	rec, err := s.completions.Get(ctx, childID, projectID)
	if err != nil {
		return nil, err
	}

	if applied {
		s.log.Info("Project started", "child_id", childID, "project_id", projectID)
	} else {
		s.log.Debug("Ignoring start", "child_id", childID, "project_id", projectID, "status", rec.Status)
	}
	return &ActionResult{Applied: applied, Completion: rec}, nil
}

// CompleteProject finishes an in-progress project and runs the completion
// pipeline in one transaction: dimension boost, pathway points, stage
// recompute and badge check. The parent is emailed after commit when a
// milestone was reached.
func (s *ProgressService) CompleteProject(ctx context.Context, childID, projectID int64, reflection string) (*CompletionResult, error) {
	child, project, err := s.loadAvailable(ctx, childID, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &CompletionResult{Messages: []string{}, NewBadges: []models.Badge{}}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		completions := s.completions.WithTx(tx)
		children := s.children.WithTx(tx)

		meaningful := progression.IsMeaningfulReflection(reflection, s.reflection.MeaningfulLength)
		applied, err := completions.MarkCompleted(ctx, childID, projectID, reflection, meaningful, now)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
		result.Applied = true

		boost := progression.ComputeDimensionBoost(project.Dimensions, reflection, s.reflection)
		if err := children.AddGrowth(ctx, childID, boost.Gain, boost.ReflectionIncrement, now); err != nil {
			return err
		}
		progression.ApplyDimensionBoost(child, boost)
		result.Messages = append(result.Messages, boost.Messages...)

		gains, err := s.awardPathwayPoints(ctx, tx, child.ID, project, boost.Thoughtful, now)
		if err != nil {
			return err
		}
		result.Messages = append(result.Messages, progression.PathwayMessages(gains)...)

		check, err := reconcileStage(ctx, children, completions, child, now)
		if err != nil {
			return err
		}
		if check.Advanced(child.Stage) {
			result.StageAdvanced = true
			result.NewStage = child.Stage
			result.NewStageLabel = child.Stage.Label()
			result.Messages = append(result.Messages, fmt.Sprintf("You reached the %s stage!", child.Stage.Label()))
		}

		awarded, err := s.awardBadges(ctx, tx, child, check.History, now)
		if err != nil {
			return err
		}
		for _, b := range awarded {
			result.NewBadges = append(result.NewBadges, b)
			result.Messages = append(result.Messages, fmt.Sprintf("New badge: %s", b.Label()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete project: %w", err)
	}

	rec, err := s.completions.Get(ctx, childID, projectID)
	if err != nil {
		return nil, err
	}
	result.Completion = rec

	if !result.Applied {
		s.log.Debug("Ignoring completion", "child_id", childID, "project_id", projectID)
		return result, nil
	}

	s.log.Info("Project completed",
		"child_id", childID,
		"project_id", projectID,
		"stage", int(child.Stage),
		"stage_advanced", result.StageAdvanced,
		"new_badges", len(result.NewBadges),
	)
	s.notify(ctx, child, Milestone{
		StageAdvanced: result.StageAdvanced,
		NewStage:      child.Stage,
		NewBadges:     result.NewBadges,
	})
	return result, nil
}

func (s *ProgressService) awardPathwayPoints(ctx context.Context, tx *database.Tx, childID int64, project *models.Project, boost bool, now time.Time) ([]progression.PathwayGain, error) {
	if len(project.PathwayPoints) == 0 {
		return nil, nil
	}
	pathways := s.pathways.WithTx(tx)
	if err := pathways.EnsureForChild(ctx, childID); err != nil {
		return nil, err
	}
	current, err := pathways.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	gains := progression.ApplyPathwayPoints(current, project.PathwayPoints, boost, now)
	for _, g := range gains {
		if err := pathways.Save(ctx, current[g.Pathway]); err != nil {
			return nil, err
		}
	}
	return gains, nil
}

func (s *ProgressService) awardBadges(ctx context.Context, tx *database.Tx, child *models.Child, h models.CompletionHistory, now time.Time) ([]models.Badge, error) {
	badges := s.badges.WithTx(tx)
	owned, err := badges.ListByChild(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	have := make([]models.Badge, 0, len(owned))
	for _, b := range owned {
		have = append(have, b.Badge)
	}

	var awarded []models.Badge
	for _, b := range progression.NewBadges(child.TotalReflections, h.ReflectiveCompletions, have) {
		isNew, err := badges.Award(ctx, child.ID, b, now)
		if err != nil {
			return nil, err
		}
		if isNew {
			awarded = append(awarded, b)
		}
	}
	return awarded, nil
}

func (s *ProgressService) notify(ctx context.Context, child *models.Child, m Milestone) {
	if s.notifier == nil || m.Empty() {
		return
	}
	parent, err := s.parents.GetByChildID(ctx, child.ID)
	if err != nil {
		s.log.Warn("Failed to load parent for milestone email", "child_id", child.ID, "error", err)
		return
	}
	if parent == nil {
		return
	}
	if err := s.notifier.SendMilestoneEmail(ctx, parent, child, m); err != nil {
		s.log.Warn("Failed to send milestone email", "child_id", child.ID, "error", err)
	}
}

// RateProject annotates a completed project. Ratings on any other state are
// ignored.
func (s *ProgressService) RateProject(ctx context.Context, childID, projectID int64, rating int) (*ActionResult, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}
	if _, _, err := s.loadPair(ctx, childID, projectID); err != nil {
		return nil, err
	}

	applied, err := s.completions.SetRating(ctx, childID, projectID, rating, s.now())
	if err != nil {
		return nil, err
	}
	rec, err := s.completions.Get(ctx, childID, projectID)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Applied: applied, Completion: rec}, nil
}

// Growth reports the child's stage, dimension counters, pathways and badges.
func (s *ProgressService) Growth(ctx context.Context, childID int64) (*GrowthReport, error) {
	child, err := s.children.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}

	check, err := reconcileStage(ctx, s.children, s.completions, child, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.pathways.EnsureForChild(ctx, childID); err != nil {
		return nil, err
	}
	byPathway, err := s.pathways.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	pathways := make([]models.GrowthPathway, 0, len(models.Pathways))
	for _, p := range models.Pathways {
		if gp := byPathway[p]; gp != nil {
			pathways = append(pathways, *gp)
		}
	}

	badges, err := s.badges.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if badges == nil {
		badges = []models.ChildBadge{}
	}

	return &GrowthReport{
		ChildID:          child.ID,
		Stage:            child.Stage,
		StageLabel:       child.Stage.Label(),
		StageDescription: child.Stage.Description(),
		StageReachedAt:   child.StageReachedAt,
		Dimensions:       child.Dimensions,
		TotalReflections: child.TotalReflections,
		History:          check.History,
		Pathways:         pathways,
		Badges:           badges,
	}, nil
}

// ReconcileAllStages recomputes every child's stage and returns how many
// changed.
func (s *ProgressService) ReconcileAllStages(ctx context.Context) (int, error) {
	ids, err := s.children.ListChildIDs(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	now := s.now()
	for _, id := range ids {
		child, err := s.children.GetChild(ctx, id)
		if err != nil {
			return changed, err
		}
		if child == nil {
			continue
		}
		check, err := reconcileStage(ctx, s.children, s.completions, child, now)
		if err != nil {
			return changed, fmt.Errorf("failed to reconcile child %d: %w", id, err)
		}
		if check.Changed {
			changed++
			s.log.Info("Stage reconciled", "child_id", id, "from", int(check.Previous), "to", int(child.Stage))
		}
	}
	return changed, nil
}

package service

import (
	"context"
	"time"

	"zonuko/internal/config"
	"zonuko/internal/content"
	"zonuko/internal/database"
	"zonuko/internal/logger"
	"zonuko/internal/models"
	"zonuko/internal/repository"
)

const (
	teaserLimit     = 2
	comingSoonLimit = 1
)

// Dashboard is everything the child's home screen shows.
type Dashboard struct {
	Child          *models.Child                       `json:"child"`
	Stage          models.Stage                        `json:"stage"`
	StageLabel     string                              `json:"stage_label"`
	EffectiveStage models.Stage                        `json:"effective_stage"`
	Featured       []*models.Project                   `json:"featured"`
	Available      []content.ProjectView               `json:"available"`
	InProgress     []*models.Project                   `json:"in_progress"`
	New            []*models.Project                   `json:"new"`
	Teasers        []*models.Project                   `json:"teasers"`
	ComingSoon     []*models.Project                   `json:"coming_soon"`
	Slots          content.Slots                       `json:"slots"`
	MasteredSkills int                                 `json:"mastered_skills"`
	Progress       map[int64]*models.ProjectCompletion `json:"progress"`
}

// Filter narrows Browse results. Zero values are ignored and set filters
// combine.
type Filter struct {
	Category   models.Category
	Difficulty int
	Skill      string
	Type       models.ProjectType
}

func (f Filter) empty() bool {
	return f.Category == "" && f.Difficulty == 0 && f.Skill == "" && f.Type == ""
}

// DashboardService builds per-child catalog views
type DashboardService struct {
	children    *repository.ChildRepository
	completions *repository.CompletionRepository
	catalog     repository.CatalogSource
	pacing      config.PacingConfig
	now         func() time.Time
	log         *logger.Logger
}

// NewDashboardService creates a new dashboard service. catalog is usually a
// CachedCatalog over the catalog repository.
func NewDashboardService(db *database.DB, catalog repository.CatalogSource, pacing config.PacingConfig, log *logger.Logger) *DashboardService {
	if log == nil {
		log = logger.Nop()
	}
	if catalog == nil {
		catalog = repository.NewCatalogRepository(db)
	}
	return &DashboardService{
		children:    repository.NewChildRepository(db),
		completions: repository.NewCompletionRepository(db),
		catalog:     catalog,
		pacing:      pacing,
		now:         func() time.Time { return time.Now().UTC() },
		log:         log.With("service", "DashboardService"),
	}
}

func (s *DashboardService) engineFor(ctx context.Context, childID int64) (*models.Child, *content.QueryEngine, error) {
	child, err := s.children.GetChild(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	if child == nil {
		return nil, nil, ErrChildNotFound
	}

	now := s.now()
	check, err := reconcileStage(ctx, s.children, s.completions, child, now)
	if err != nil {
		return nil, nil, err
	}
	if check.Changed {
		s.log.Info("Stage updated", "child_id", childID, "from", int(check.Previous), "to", int(child.Stage))
	}

	projects, err := s.catalog.ListByAgeBand(ctx, child.AgeBand)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.completions.ListByChild(ctx, childID)
	if err != nil {
		return nil, nil, err
	}

	return child, content.NewQueryEngine(child, projects, progress, s.pacing, now), nil
}

// Load builds the dashboard. newSlotLimit is clamped to the configured
// window; zero or less uses the default.
func (s *DashboardService) Load(ctx context.Context, childID int64, newSlotLimit int) (*Dashboard, error) {
	child, engine, err := s.engineFor(ctx, childID)
	if err != nil {
		return nil, err
	}

	if newSlotLimit <= 0 {
		newSlotLimit = s.pacing.Slots.Default
	}
	lists := engine.DashboardLists(newSlotLimit)
	d := &Dashboard{
		Child:          child,
		Stage:          engine.CurrentStage(),
		StageLabel:     engine.CurrentStage().Label(),
		EffectiveStage: engine.EffectiveStage(),
		Featured:       nonNil(engine.Featured(0)),
		Available:      lists.Available,
		InProgress:     nonNil(lists.InProgress),
		New:            nonNil(lists.New),
		Teasers:        nonNil(engine.Teasers(teaserLimit)),
		ComingSoon:     nonNil(engine.ComingSoon(comingSoonLimit)),
		Slots:          lists.Slots,
		MasteredSkills: lists.Mastery.MasteredCount(),
		Progress:       lists.Progress,
	}
	if d.Available == nil {
		d.Available = []content.ProjectView{}
	}

	s.log.Debug("Dashboard built",
		"child_id", childID,
		"stage", int(d.Stage),
		"effective_stage", int(d.EffectiveStage),
		"available", len(d.Available),
		"new", len(d.New),
	)
	return d, nil
}

// Browse lists available projects matching every set filter field.
func (s *DashboardService) Browse(ctx context.Context, childID int64, f Filter) ([]content.ProjectView, error) {
	_, engine, err := s.engineFor(ctx, childID)
	if err != nil {
		return nil, err
	}

	matches := engine.Available()
	if !f.empty() {
		if f.Category != "" {
			matches = intersect(matches, engine.ByCategory(f.Category))
		}
		if f.Difficulty != 0 {
			matches = intersect(matches, engine.ByDifficulty(f.Difficulty))
		}
		if f.Skill != "" {
			matches = intersect(matches, engine.BySkill(f.Skill))
		}
		switch f.Type {
		case models.ProjectTypeSpark:
			matches = intersect(matches, engine.Sparks())
		case models.ProjectTypeLab:
			matches = intersect(matches, engine.Labs())
		case "":
		default:
			matches = nil
		}
	}

	out := make([]content.ProjectView, 0, len(matches))
	for _, p := range matches {
		out = append(out, content.ProjectView{Project: p, Progress: engine.Progress(p.ID)})
	}
	return out, nil
}

func intersect(a, b []*models.Project) []*models.Project {
	keep := make(map[int64]bool, len(b))
	for _, p := range b {
		keep[p.ID] = true
	}
	var out []*models.Project
	for _, p := range a {
		if keep[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func nonNil(ps []*models.Project) []*models.Project {
	if ps == nil {
		return []*models.Project{}
	}
	return ps
}

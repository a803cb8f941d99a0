// Package content decides which catalog projects a child can see, which are
// teased or coming soon, and which new projects to surface next.
//
// A QueryEngine is built per request from data the caller has already loaded.
// It performs no IO and never fails: missing progress, missing skills and
// empty catalogs all degrade to empty or default results.
package content

import (
	"cmp"
	"slices"
	"time"

	"zonuko/internal/config"
	"zonuko/internal/models"
)

// QueryEngine answers catalog queries for a single child.
type QueryEngine struct {
	band     models.AgeBand
	stage    models.Stage
	catalog  []*models.Project // age-matched, ascending id
	progress map[int64]*models.ProjectCompletion
	cfg      config.PacingConfig
	now      time.Time

	effective models.Stage
}

// NewQueryEngine captures the child's age band and stage. A nil child or a
// missing stage is treated as stage 1. catalog may hold projects of any
// band or visibility; progress is keyed by project id.
func NewQueryEngine(child *models.Child, catalog []models.Project, progress map[int64]*models.ProjectCompletion, cfg config.PacingConfig, now time.Time) *QueryEngine {
	e := &QueryEngine{
		stage:    models.StageExplorer,
		progress: progress,
		cfg:      cfg,
		now:      now,
	}
	if child != nil {
		e.band = child.AgeBand
		e.stage = child.Stage.Normalize()
	}
	if e.progress == nil {
		e.progress = map[int64]*models.ProjectCompletion{}
	}

	for i := range catalog {
		if catalog[i].TargetsAgeBand(e.band) {
			e.catalog = append(e.catalog, &catalog[i])
		}
	}
	slices.SortStableFunc(e.catalog, func(a, b *models.Project) int {
		return cmp.Compare(a.ID, b.ID)
	})

	e.effective = e.computeEffectiveStage()
	return e
}

// CurrentStage is the child's stored stage.
func (e *QueryEngine) CurrentStage() models.Stage { return e.stage }

// EffectiveStage is the stage used to gate available content. It runs one
// stage ahead of CurrentStage when the current stage has no content for the
// child's band, or when every project in it has been completed.
func (e *QueryEngine) EffectiveStage() models.Stage { return e.effective }

// Progress returns the child's record for a project, or nil.
func (e *QueryEngine) Progress(projectID int64) *models.ProjectCompletion {
	return e.progress[projectID]
}

func (e *QueryEngine) computeEffectiveStage() models.Stage {
	var pool []*models.Project
	for _, p := range e.catalog {
		if p.IsReleased(e.now) && p.MinimumStage <= e.stage {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		return e.stage.Next()
	}
	for _, p := range pool {
		if !e.progress[p.ID].IsCompleted() {
			return e.stage
		}
	}
	return e.stage.Next()
}

func (e *QueryEngine) filter(keep func(*models.Project) bool) []*models.Project {
	var out []*models.Project
	for _, p := range e.catalog {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func limited(ps []*models.Project, limit int) []*models.Project {
	if limit > 0 && len(ps) > limit {
		return ps[:limit]
	}
	return ps
}

// Available returns released projects at or below the effective stage.
func (e *QueryEngine) Available() []*models.Project {
	return e.filter(e.isAvailable)
}

func (e *QueryEngine) isAvailable(p *models.Project) bool {
	return p.IsReleased(e.now) && p.MinimumStage <= e.effective
}

// IsAvailable reports whether the project is in Available for this child.
func (e *QueryEngine) IsAvailable(projectID int64) bool {
	for _, p := range e.catalog {
		if p.ID == projectID {
			return e.isAvailable(p)
		}
	}
	return false
}

// Teasers returns released projects of the next stage after the stored
// stage. A non-positive limit means no limit.
func (e *QueryEngine) Teasers(limit int) []*models.Project {
	if e.stage >= models.MaxStage {
		return nil
	}
	next := e.stage + 1
	return limited(e.filter(func(p *models.Project) bool {
		return p.IsReleased(e.now) && p.MinimumStage == next
	}), limit)
}

// ComingSoon returns age-matched coming-soon projects regardless of stage.
func (e *QueryEngine) ComingSoon(limit int) []*models.Project {
	return limited(e.filter(func(p *models.Project) bool {
		return p.Visibility == models.VisibilityComingSoon
	}), limit)
}

// Featured returns available featured projects. A non-positive limit uses
// the configured default.
func (e *QueryEngine) Featured(limit int) []*models.Project {
	if limit <= 0 {
		limit = e.cfg.FeaturedLimit
	}
	var out []*models.Project
	for _, p := range e.Available() {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return limited(out, limit)
}

func (e *QueryEngine) availableWhere(keep func(*models.Project) bool) []*models.Project {
	var out []*models.Project
	for _, p := range e.Available() {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (e *QueryEngine) ByCategory(c models.Category) []*models.Project {
	return e.availableWhere(func(p *models.Project) bool { return p.Category == c })
}

// ByDifficulty returns nothing for a difficulty outside 1..3.
func (e *QueryEngine) ByDifficulty(d int) []*models.Project {
	if d < 1 || d > 3 {
		return nil
	}
	return e.availableWhere(func(p *models.Project) bool { return p.Difficulty == d })
}

// BySkill matches on skill name; an unknown name yields nothing.
func (e *QueryEngine) BySkill(name string) []*models.Project {
	if name == "" {
		return nil
	}
	return e.availableWhere(func(p *models.Project) bool { return p.HasSkill(name) })
}

func (e *QueryEngine) Sparks() []*models.Project {
	return e.availableWhere((*models.Project).IsSpark)
}

func (e *QueryEngine) Labs() []*models.Project {
	return e.availableWhere((*models.Project).IsLab)
}

package service

import (
	"context"
	"time"

	"zonuko/internal/models"
	"zonuko/internal/progression"
	"zonuko/internal/repository"
)

type stageCheck struct {
	History  models.CompletionHistory
	Previous models.Stage
	Changed  bool
}

// Advanced reports whether the child moved up at least one stage.
func (c stageCheck) Advanced(current models.Stage) bool {
	return c.Changed && current > c.Previous
}

// reconcileStage recomputes the child's stage from committed history and
// writes it back only when it differs. The child is updated in place.
func reconcileStage(ctx context.Context, children *repository.ChildRepository, completions *repository.CompletionRepository, child *models.Child, now time.Time) (stageCheck, error) {
	check := stageCheck{Previous: child.Stage}
	history, err := completions.History(ctx, child.ID)
	if err != nil {
		return check, err
	}
	check.History = history

	stage, changed := progression.Reconcile(child, history)
	if !changed {
		return check, nil
	}
	if err := children.UpdateStage(ctx, child.ID, stage, now); err != nil {
		return check, err
	}
	child.Stage = stage
	reached := now
	child.StageReachedAt = &reached
	check.Changed = true
	return check, nil
}

// Package progression holds the pure rules that turn a child's completion
// and reflection history into stages, pathway levels, growth and badges.
package progression

import (
	"strings"
	"unicode/utf8"

	"zonuko/internal/models"
)

type stageRule struct {
	stage       models.Stage
	completed   int
	reflections int
}

// Checked highest first.
var stageRules = []stageRule{
	{stage: models.StageIndependentMaker, completed: 25, reflections: 10},
	{stage: models.StageDesigner, completed: 15, reflections: 3},
	{stage: models.StageBuilder, completed: 8},
	{stage: models.StageExperimenter, completed: 3},
}

// StageFor computes the stage from distinct completed projects and
// meaningful reflections. It is stateless, so a shrinking history yields a
// lower stage.
func StageFor(completed, reflections int) models.Stage {
	for _, r := range stageRules {
		if completed >= r.completed && reflections >= r.reflections {
			return r.stage
		}
	}
	return models.StageExplorer
}

// StageFromHistory is StageFor applied to an aggregate.
func StageFromHistory(h models.CompletionHistory) models.Stage {
	return StageFor(h.CompletedProjects, h.MeaningfulReflections)
}

// Reconcile returns the stage the child should hold and whether it differs
// from the cached one.
func Reconcile(child *models.Child, h models.CompletionHistory) (models.Stage, bool) {
	stage := StageFromHistory(h)
	if child == nil {
		return stage, false
	}
	return stage, stage != child.Stage
}

func reflectionLength(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// IsMeaningfulReflection reports whether text is long enough to count toward
// stage progression.
func IsMeaningfulReflection(text string, minLength int) bool {
	return reflectionLength(text) >= minLength
}

// IsThoughtfulReflection reports whether text earns the growth multiplier.
// The bound is strict.
func IsThoughtfulReflection(text string, minLength int) bool {
	return reflectionLength(text) > minLength
}

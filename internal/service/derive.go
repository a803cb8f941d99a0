package service

import (
	"fmt"
	"regexp"
	"strings"

	"zonuko/internal/models"
)

const maxDerivedSteps = 8

var categoryDimensions = map[models.Category]models.SkillDimensions{
	models.CategoryScience:     {CreativeThinking: 3, PracticalMaking: 4, ProblemSolving: 5, Resilience: 2},
	models.CategoryTech:        {CreativeThinking: 4, PracticalMaking: 3, ProblemSolving: 5, Resilience: 3},
	models.CategoryEngineering: {CreativeThinking: 3, PracticalMaking: 5, ProblemSolving: 4, Resilience: 3},
	models.CategoryArt:         {CreativeThinking: 5, PracticalMaking: 4, ProblemSolving: 2, Resilience: 2},
	models.CategoryMath:        {CreativeThinking: 3, PracticalMaking: 2, ProblemSolving: 5, Resilience: 3},
}

var defaultDimensions = models.SkillDimensions{CreativeThinking: 3, PracticalMaking: 3, ProblemSolving: 3, Resilience: 2}

// DeriveDimensions builds a project's four-key dimensions from its category
// template scaled by difficulty (x1.0, x1.2, x1.4), each clamped to 1..5.
// Medium and hard projects get one extra resilience point.
func DeriveDimensions(category models.Category, difficulty int) models.SkillDimensions {
	base, ok := categoryDimensions[category]
	if !ok {
		base = defaultDimensions
	}
	scale := func(v int) int {
		return min(5, max(1, v*(8+2*difficulty)/10))
	}
	d := models.SkillDimensions{
		CreativeThinking: scale(base.CreativeThinking),
		PracticalMaking:  scale(base.PracticalMaking),
		ProblemSolving:   scale(base.ProblemSolving),
		Resilience:       scale(base.Resilience),
	}
	if difficulty >= 2 {
		d.Resilience = min(5, d.Resilience+1)
	}
	return d
}

var (
	bulletPrefix   = regexp.MustCompile(`^[-*•\s]+`)
	numberPrefix   = regexp.MustCompile(`^\d+[.)]\s*`)
	numberedMarker = regexp.MustCompile(`\s*(?:^|\s)\d+[.)]\s*`)
	sentenceEnd    = regexp.MustCompile(`\.(?:\s+|$)`)
)

func cleanStepLine(s string) string {
	s = strings.TrimSpace(s)
	s = bulletPrefix.ReplaceAllString(s, "")
	s = numberPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func splitClean(re *regexp.Regexp, s string) []string {
	var out []string
	for _, part := range re.Split(s, -1) {
		if c := cleanStepLine(part); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// DeriveInstructionSteps turns free-text instructions into at most eight
// "Step N" cards. Lines are split first, then inline "1. ... 2. ..." runs,
// falling back to sentences when that yields a single step.
func DeriveInstructionSteps(instructions string) []models.InstructionStep {
	if strings.TrimSpace(instructions) == "" {
		return nil
	}

	var steps []string
	for _, line := range strings.Split(strings.ReplaceAll(instructions, "\r", ""), "\n") {
		cleaned := cleanStepLine(line)
		if cleaned == "" {
			continue
		}
		if parts := splitClean(numberedMarker, cleaned); len(parts) >= 2 {
			steps = append(steps, parts...)
		} else {
			steps = append(steps, cleaned)
		}
	}

	if len(steps) <= 1 {
		if sentences := splitClean(sentenceEnd, instructions); len(sentences) > len(steps) {
			steps = sentences
		}
	}

	if len(steps) > maxDerivedSteps {
		steps = steps[:maxDerivedSteps]
	}

	out := make([]models.InstructionStep, 0, len(steps))
	for i, s := range steps {
		out = append(out, models.InstructionStep{Title: fmt.Sprintf("Step %d", i+1), Body: s})
	}
	return out
}

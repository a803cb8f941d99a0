package progression

import (
	"time"

	"zonuko/internal/models"
)

// LevelThresholds are cumulative point totals; level i starts at
// LevelThresholds[i-1].
var LevelThresholds = []int{0, 100, 250, 450, 700, 1000, 1350, 1750, 2200}

const MaxLevel = 8

const reflectionBoostPercent = 25

// LevelFor maps a point total onto 1..MaxLevel.
func LevelFor(points int) int {
	for i := 1; i <= MaxLevel; i++ {
		if points < LevelThresholds[i] {
			return i
		}
	}
	return MaxLevel
}

// ProgressPercent is the percent travelled from the current level's
// threshold toward the next one, 100 once past the last threshold.
func ProgressPercent(points int) int {
	if points >= LevelThresholds[len(LevelThresholds)-1] {
		return 100
	}
	level := LevelFor(points)
	lo, hi := LevelThresholds[level-1], LevelThresholds[level]
	pct := (points - lo) * 100 / (hi - lo)
	if pct < 0 {
		return 0
	}
	return pct
}

// AddPoints credits a pathway. A reflection boost adds a truncated 25% on
// top and stamps LastBoostedAt. It returns the points actually added.
func AddPoints(p *models.GrowthPathway, points int, reflectionBoost bool, now time.Time) int {
	if p == nil || points <= 0 {
		return 0
	}
	added := points
	if reflectionBoost {
		added += points * reflectionBoostPercent / 100
		ts := now
		p.LastBoostedAt = &ts
	}
	p.Points += added
	p.Level = LevelFor(p.Points)
	p.Progress = ProgressPercent(p.Points)
	p.UpdatedAt = now
	return added
}

// PathwayGain is the outcome of crediting one pathway on completion.
type PathwayGain struct {
	Pathway    models.Pathway
	Added      int
	LevelUp    bool
	NewLevel   int
	NewPercent int
}

// ApplyPathwayPoints credits every pathway the project awards points to.
// Pathways missing from the child's set are skipped. Gains follow
// models.Pathways order.
func ApplyPathwayPoints(pathways map[models.Pathway]*models.GrowthPathway, award models.PathwayPointMap, reflectionBoost bool, now time.Time) []PathwayGain {
	var gains []PathwayGain
	for _, key := range models.Pathways {
		pts := award[key]
		p := pathways[key]
		if pts <= 0 || p == nil {
			continue
		}
		before := LevelFor(p.Points)
		added := AddPoints(p, pts, reflectionBoost, now)
		gains = append(gains, PathwayGain{
			Pathway:    key,
			Added:      added,
			LevelUp:    p.Level > before,
			NewLevel:   p.Level,
			NewPercent: p.Progress,
		})
	}
	return gains
}

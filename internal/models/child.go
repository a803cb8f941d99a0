package models

import (
	"strings"
	"time"
)

// AgeBand groups children by age for content targeting. The bands are ordered.
type AgeBand string

const (
	AgeBandImaginauts   AgeBand = "IMAGINAUTS"   // 6–10
	AgeBandNavigators   AgeBand = "NAVIGATORS"   // 11–13
	AgeBandTrailblazers AgeBand = "TRAILBLAZERS" // 14–16
)

// AgeBands lists every band in order.
var AgeBands = []AgeBand{AgeBandImaginauts, AgeBandNavigators, AgeBandTrailblazers}

// ParseAgeBand normalizes s into a known band.
func ParseAgeBand(s string) (AgeBand, bool) {
	band := AgeBand(strings.ToUpper(strings.TrimSpace(s)))
	for _, b := range AgeBands {
		if b == band {
			return band, true
		}
	}
	return "", false
}

func (b AgeBand) Label() string {
	switch b {
	case AgeBandImaginauts:
		return "Imaginauts (6–10)"
	case AgeBandNavigators:
		return "Navigators (11–13)"
	case AgeBandTrailblazers:
		return "Trailblazers (14–16)"
	}
	return string(b)
}

// Stage is a child's progression level, 1 through 5.
type Stage int

const (
	StageExplorer         Stage = 1
	StageExperimenter     Stage = 2
	StageBuilder          Stage = 3
	StageDesigner         Stage = 4
	StageIndependentMaker Stage = 5

	MinStage = StageExplorer
	MaxStage = StageIndependentMaker
)

// Normalize maps out-of-range values onto the nearest valid stage; zero
// (no progression state) becomes Explorer.
func (s Stage) Normalize() Stage {
	if s < MinStage {
		return MinStage
	}
	if s > MaxStage {
		return MaxStage
	}
	return s
}

// Next returns the following stage, saturating at MaxStage.
func (s Stage) Next() Stage {
	return (s.Normalize() + 1).Normalize()
}

func (s Stage) Label() string {
	switch s {
	case StageExplorer:
		return "Explorer"
	case StageExperimenter:
		return "Experimenter"
	case StageBuilder:
		return "Builder"
	case StageDesigner:
		return "Designer"
	case StageIndependentMaker:
		return "Independent Maker"
	}
	return "Explorer"
}

func (s Stage) Description() string {
	switch s {
	case StageExplorer:
		return "I can follow a build"
	case StageExperimenter:
		return "I can adapt and improve"
	case StageBuilder:
		return "I can strengthen designs"
	case StageDesigner:
		return "I can plan before building"
	case StageIndependentMaker:
		return "I build with purpose"
	}
	return ""
}

// Child is a child sub-account. Stage, dimension counters and
// TotalReflections are cached state derived from completion history.
type Child struct {
	ID               int64           `json:"id"`
	ParentID         int64           `json:"parent_id"`
	Username         string          `json:"username"`
	AgeBand          AgeBand         `json:"age_band"`
	Stage            Stage           `json:"stage"`
	StageReachedAt   *time.Time      `json:"stage_reached_at"`
	TotalReflections int             `json:"total_reflections"`
	Dimensions       SkillDimensions `json:"dimensions"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Parent is the read-only view of the account that owns a child.
type Parent struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

package models

import "time"

// SkillDimensions is the fixed four-key dimension map carried by each project
// and accumulated as raw counters on each child.
type SkillDimensions struct {
	CreativeThinking int `json:"creative_thinking" yaml:"creative_thinking" validate:"min=0,max=5"`
	PracticalMaking  int `json:"practical_making" yaml:"practical_making" validate:"min=0,max=5"`
	ProblemSolving   int `json:"problem_solving" yaml:"problem_solving" validate:"min=0,max=5"`
	Resilience       int `json:"resilience" yaml:"resilience" validate:"min=0,max=5"`
}

// IsZero reports whether no dimension is set.
func (d SkillDimensions) IsZero() bool {
	return d == SkillDimensions{}
}

// Add returns the element-wise sum.
func (d SkillDimensions) Add(o SkillDimensions) SkillDimensions {
	return SkillDimensions{
		CreativeThinking: d.CreativeThinking + o.CreativeThinking,
		PracticalMaking:  d.PracticalMaking + o.PracticalMaking,
		ProblemSolving:   d.ProblemSolving + o.ProblemSolving,
		Resilience:       d.Resilience + o.Resilience,
	}
}

// Pathway is one of the six growth pathways. It is a separate accounting
// from SkillDimensions.
type Pathway string

const (
	PathwayThinking       Pathway = "thinking"
	PathwayMaking         Pathway = "making"
	PathwayProblemSolving Pathway = "problem_solving"
	PathwayResilience     Pathway = "resilience"
	PathwayDesignPlanning Pathway = "design_planning"
	PathwayContribution   Pathway = "contribution"
)

// Pathways lists every pathway in display order.
var Pathways = []Pathway{
	PathwayThinking,
	PathwayMaking,
	PathwayProblemSolving,
	PathwayResilience,
	PathwayDesignPlanning,
	PathwayContribution,
}

func (p Pathway) Label() string {
	switch p {
	case PathwayThinking:
		return "Creative Thinking"
	case PathwayMaking:
		return "Practical Making"
	case PathwayProblemSolving:
		return "Problem Solving"
	case PathwayResilience:
		return "Resilience"
	case PathwayDesignPlanning:
		return "Design Planning"
	case PathwayContribution:
		return "Contribution"
	}
	return string(p)
}

// PathwayPointMap is a project's per-pathway point award.
type PathwayPointMap map[Pathway]int

// GrowthPathway is a child's accumulator for one pathway.
type GrowthPathway struct {
	ID            int64      `json:"id"`
	ChildID       int64      `json:"child_id"`
	Pathway       Pathway    `json:"pathway"`
	Points        int        `json:"points"`
	Level         int        `json:"level"`    // 1..8
	Progress      int        `json:"progress"` // percent toward next level
	LastBoostedAt *time.Time `json:"last_boosted_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Badge identifies an award earned at most once per child.
type Badge string

const (
	BadgeFirstThoughts    Badge = "first_thoughts"    // 5 reflections
	BadgeDeepThinker      Badge = "deep_thinker"      // 10 reflections
	BadgeWisdomSeeker     Badge = "wisdom_seeker"     // 20 reflections
	BadgeMasterReflector  Badge = "master_reflector"  // 30 reflections
	BadgeMakerStoryteller Badge = "maker_storyteller" // 10 completed projects with reflection text
)

func (b Badge) Label() string {
	switch b {
	case BadgeFirstThoughts:
		return "First Thoughts"
	case BadgeDeepThinker:
		return "Deep Thinker"
	case BadgeWisdomSeeker:
		return "Wisdom Seeker"
	case BadgeMasterReflector:
		return "Master Reflector"
	case BadgeMakerStoryteller:
		return "Maker Storyteller"
	}
	return string(b)
}

// ChildBadge records when a badge was awarded.
type ChildBadge struct {
	ChildID   int64     `json:"child_id"`
	Badge     Badge     `json:"badge"`
	AwardedAt time.Time `json:"awarded_at"`
}

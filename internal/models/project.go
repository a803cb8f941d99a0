package models

import "time"

type ProjectType string

const (
	ProjectTypeSpark ProjectType = "spark" // short touch, ~15–20 minutes
	ProjectTypeLab   ProjectType = "lab"   // full build
)

type Visibility string

const (
	VisibilityHidden     Visibility = "hidden"
	VisibilityScheduled  Visibility = "scheduled"
	VisibilityLive       Visibility = "live"
	VisibilityComingSoon Visibility = "coming_soon"
)

type Category string

const (
	CategoryScience     Category = "science"
	CategoryTech        Category = "tech"
	CategoryEngineering Category = "engineering"
	CategoryArt         Category = "art"
	CategoryMath        Category = "math"
)

// Project is a catalog entry.
type Project struct {
	ID               int64             `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Category         Category          `json:"category"`
	Type             ProjectType       `json:"type"`
	Difficulty       int               `json:"difficulty"` // 1..3
	AgeBands         []AgeBand         `json:"age_bands"`
	MinimumStage     Stage             `json:"minimum_stage"`
	EstimatedMinutes int               `json:"estimated_minutes"`
	Visibility       Visibility        `json:"visibility"`
	PublishedAt      *time.Time        `json:"published_at"`
	IsFeatured       bool              `json:"is_featured"`
	Emoji            string            `json:"emoji"`
	MaterialsNeeded  string            `json:"materials_needed"`
	Instructions     string            `json:"instructions"`
	InstructionSteps []InstructionStep `json:"instruction_steps"`
	VideoURL         string            `json:"video_url"`
	Tags             []string          `json:"tags"`
	Dimensions       SkillDimensions   `json:"dimensions"`
	PathwayPoints    PathwayPointMap   `json:"pathway_points"`
	Skills           []SkillWeight     `json:"skills"`
	PrerequisiteIDs  []int64           `json:"prerequisite_ids"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// InstructionStep is one card of a project's build instructions.
type InstructionStep struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"instructions" yaml:"instructions"`
}

// Skill is a named competency that projects exercise.
type Skill struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SkillWeight is one entry of a project's skill manifest: how central the
// skill is to the project, 1 (peripheral) to 5 (core).
type SkillWeight struct {
	SkillID   int64  `json:"skill_id"`
	SkillName string `json:"skill_name"`
	Weight    int    `json:"weight"`
}

// TargetsAgeBand reports whether band is among the project's target bands.
func (p *Project) TargetsAgeBand(band AgeBand) bool {
	for _, b := range p.AgeBands {
		if b == band {
			return true
		}
	}
	return false
}

// IsReleased reports whether the project is live at now. Scheduled projects
// become live once their publish time has passed.
func (p *Project) IsReleased(now time.Time) bool {
	switch p.Visibility {
	case VisibilityLive:
		return true
	case VisibilityScheduled:
		return p.PublishedAt != nil && !p.PublishedAt.After(now)
	}
	return false
}

func (p *Project) IsSpark() bool { return p.Type == ProjectTypeSpark }
func (p *Project) IsLab() bool   { return p.Type == ProjectTypeLab }

// HasSkill reports whether the manifest contains the named skill.
func (p *Project) HasSkill(name string) bool {
	for _, s := range p.Skills {
		if s.SkillName == name {
			return true
		}
	}
	return false
}

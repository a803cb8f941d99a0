package content

import (
	"slices"

	"zonuko/internal/models"
)

// ProjectView pairs a project with the child's progress record, if any.
type ProjectView struct {
	Project  *models.Project           `json:"project"`
	Progress *models.ProjectCompletion `json:"progress"`
}

// Slots is the split of the new-project window between Sparks and Labs.
type Slots struct {
	Window int `json:"window"`
	Sparks int `json:"sparks"`
	Labs   int `json:"labs"`
}

// DashboardLists is the paced dashboard content for one child.
type DashboardLists struct {
	Available  []ProjectView
	InProgress []*models.Project
	New        []*models.Project
	Progress   map[int64]*models.ProjectCompletion
	Slots      Slots
	Mastery    Mastery
}

type labFit struct {
	project  *models.Project
	coverage float64
	overlap  int
}

type labBuckets struct {
	aligned    []labFit // ranked
	skillless  []*models.Project
	nonAligned []*models.Project
}

// DashboardLists partitions available projects into in-progress and new, and
// paces the new list between Sparks and Labs according to the child's
// completed Sparks and mastered skills.
func (e *QueryEngine) DashboardLists(newSlotLimit int) DashboardLists {
	available := e.Available()
	out := DashboardLists{Progress: e.progress}

	var sparks, labs []*models.Project
	for _, p := range available {
		rec := e.progress[p.ID]
		out.Available = append(out.Available, ProjectView{Project: p, Progress: rec})
		switch {
		case rec.IsCompleted():
		case rec.IsInProgress():
			out.InProgress = append(out.InProgress, p)
		case p.IsSpark():
			sparks = append(sparks, p)
		case p.IsLab():
			labs = append(labs, p)
		}
	}

	out.Mastery = e.Mastery()
	out.Slots = e.allocateSlots(newSlotLimit, len(sparks) > 0, out.Mastery)
	out.New = e.fill(out.Slots, sparks, e.classifyLabs(labs, out.Mastery))
	return out
}

func (e *QueryEngine) allocateSlots(requested int, haveSparks bool, m Mastery) Slots {
	s := Slots{Window: e.cfg.ClampSlots(requested)}
	if !haveSparks {
		s.Labs = s.Window
		return s
	}

	base := 1
	if m.CompletedSparks == 0 {
		base = 2
	}
	bonus := min(e.cfg.Slots.MaxMasteryBonus, m.MasteredCount()/e.cfg.Slots.MasteryBonusDivisor)
	s.Sparks = min(s.Window, base+bonus)

	if m.CompletedSparks >= e.cfg.Labs.SparksBeforeLabs {
		s.Labs = min(s.Window-s.Sparks, 1+m.CompletedSparks/e.cfg.Labs.SparksPerExtraLab)
	}
	return s
}

// coreSkills are the skills at or above the core weight, or else the single
// heaviest skill with ties going to the lowest skill id.
func (e *QueryEngine) coreSkills(skills []models.SkillWeight) []int64 {
	var core []int64
	for _, s := range skills {
		if s.Weight >= e.cfg.Labs.CoreSkillWeight {
			core = append(core, s.SkillID)
		}
	}
	if len(core) > 0 || len(skills) == 0 {
		return core
	}
	best := skills[0]
	for _, s := range skills[1:] {
		if s.Weight > best.Weight || (s.Weight == best.Weight && s.SkillID < best.SkillID) {
			best = s
		}
	}
	return []int64{best.SkillID}
}

func (e *QueryEngine) classifyLabs(labs []*models.Project, m Mastery) labBuckets {
	var b labBuckets
	for _, p := range labs {
		if len(p.Skills) == 0 {
			b.skillless = append(b.skillless, p)
			continue
		}

		aligned := true
		for _, id := range e.coreSkills(p.Skills) {
			if !m.IsMastered(id) {
				aligned = false
				break
			}
		}

		ids := map[int64]bool{}
		covered := map[int64]bool{}
		overlap := 0
		for _, s := range p.Skills {
			ids[s.SkillID] = true
			if m.IsMastered(s.SkillID) {
				covered[s.SkillID] = true
				overlap += s.Weight
			}
		}
		coverage := float64(len(covered)) / float64(len(ids))

		if aligned && coverage >= e.cfg.Labs.CoverageThreshold {
			b.aligned = append(b.aligned, labFit{project: p, coverage: coverage, overlap: overlap})
		} else {
			b.nonAligned = append(b.nonAligned, p)
		}
	}

	slices.SortStableFunc(b.aligned, func(x, y labFit) int {
		switch {
		case x.coverage > y.coverage:
			return -1
		case x.coverage < y.coverage:
			return 1
		}
		return y.overlap - x.overlap
	})
	return b
}

type picker struct {
	window int
	picked []*models.Project
	used   map[int64]bool
}

func (pk *picker) full() bool { return len(pk.picked) >= pk.window }

// take adds up to n unused projects from ps and reports how many it added.
func (pk *picker) take(ps []*models.Project, n int) int {
	added := 0
	for _, p := range ps {
		if added >= n || pk.full() {
			break
		}
		if pk.used[p.ID] {
			continue
		}
		pk.used[p.ID] = true
		pk.picked = append(pk.picked, p)
		added++
	}
	return added
}

func (e *QueryEngine) fill(s Slots, sparks []*models.Project, labs labBuckets) []*models.Project {
	pk := &picker{window: s.Window, used: map[int64]bool{}}

	aligned := make([]*models.Project, 0, len(labs.aligned))
	for _, f := range labs.aligned {
		aligned = append(aligned, f.project)
	}

	pk.take(sparks, s.Sparks)
	labsTaken := pk.take(aligned, s.Labs)

	if len(sparks) == 0 {
		remaining := s.Labs - labsTaken
		remaining -= pk.take(labs.skillless, remaining)
		pk.take(labs.nonAligned, remaining)
	}

	// Backfill never reaches non-aligned Labs.
	for _, ps := range [][]*models.Project{sparks, aligned, labs.skillless} {
		if pk.full() {
			break
		}
		pk.take(ps, s.Window)
	}
	return pk.picked
}

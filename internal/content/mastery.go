package content

// Mastery is the skill profile inferred from completed Sparks.
type Mastery struct {
	Weights         map[int64]int // skill id -> cumulative weight
	Mastered        map[int64]bool
	CompletedSparks int
}

// MasteredCount is the number of mastered skills.
func (m Mastery) MasteredCount() int { return len(m.Mastered) }

// IsMastered reports whether the skill has reached the threshold.
func (m Mastery) IsMastered(skillID int64) bool { return m.Mastered[skillID] }

// Mastery sums skill weights across every completed Spark in the child's
// band, released or not, and marks skills at or above the threshold.
func (e *QueryEngine) Mastery() Mastery {
	m := Mastery{Weights: map[int64]int{}, Mastered: map[int64]bool{}}
	for _, p := range e.catalog {
		if !p.IsSpark() || !e.progress[p.ID].IsCompleted() {
			continue
		}
		m.CompletedSparks++
		for _, s := range p.Skills {
			m.Weights[s.SkillID] += s.Weight
		}
	}
	for id, w := range m.Weights {
		if w >= e.cfg.Mastery.WeightThreshold {
			m.Mastered[id] = true
		}
	}
	return m
}

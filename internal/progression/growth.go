package progression

import (
	"fmt"

	"zonuko/internal/config"
	"zonuko/internal/models"
)

const (
	thoughtfulResilienceBonus = 2
)

// DimensionBoost is the four-key growth earned by one completion. It is
// independent of pathway points.
type DimensionBoost struct {
	Gain                models.SkillDimensions
	Thoughtful          bool
	ReflectionIncrement int
	Messages            []string
}

// ComputeDimensionBoost scales the project's dimensions by the thoughtful
// multiplier, truncating each value, and adds the resilience bonus for a
// thoughtful reflection.
func ComputeDimensionBoost(dims models.SkillDimensions, reflection string, cfg config.ReflectionConfig) DimensionBoost {
	thoughtful := IsThoughtfulReflection(reflection, cfg.ThoughtfulLength)
	mult := 1.0
	if thoughtful {
		mult = cfg.ThoughtfulMultiplier
	}
	scale := func(v int) int {
		if v <= 0 {
			return 0
		}
		return int(float64(v) * mult)
	}

	b := DimensionBoost{
		Gain: models.SkillDimensions{
			CreativeThinking: scale(dims.CreativeThinking),
			PracticalMaking:  scale(dims.PracticalMaking),
			ProblemSolving:   scale(dims.ProblemSolving),
			Resilience:       scale(dims.Resilience),
		},
		Thoughtful: thoughtful,
	}
	for _, e := range []struct {
		label string
		v     int
	}{
		{"Creative Thinking", b.Gain.CreativeThinking},
		{"Practical Making", b.Gain.PracticalMaking},
		{"Problem Solving", b.Gain.ProblemSolving},
		{"Resilience", b.Gain.Resilience},
	} {
		if e.v > 0 {
			b.Messages = append(b.Messages, fmt.Sprintf("+%d %s", e.v, e.label))
		}
	}

	if thoughtful {
		b.Gain.Resilience += thoughtfulResilienceBonus
		b.ReflectionIncrement = 1
		b.Messages = append(b.Messages, fmt.Sprintf("+%d Resilience for a thoughtful reflection", thoughtfulResilienceBonus))
	}
	return b
}

// ApplyDimensionBoost adds the boost to the child's raw counters.
func ApplyDimensionBoost(child *models.Child, b DimensionBoost) {
	if child == nil {
		return
	}
	child.Dimensions = child.Dimensions.Add(b.Gain)
	child.TotalReflections += b.ReflectionIncrement
}

// PathwayMessages renders pathway gains for the completion summary.
func PathwayMessages(gains []PathwayGain) []string {
	var msgs []string
	for _, g := range gains {
		msgs = append(msgs, fmt.Sprintf("+%d %s points", g.Added, g.Pathway.Label()))
		if g.LevelUp {
			msgs = append(msgs, fmt.Sprintf("%s reached level %d", g.Pathway.Label(), g.NewLevel))
		}
	}
	return msgs
}

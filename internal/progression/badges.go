package progression

import "zonuko/internal/models"

type badgeRule struct {
	badge models.Badge
	met   func(totalReflections, reflectiveCompletions int) bool
}

var badgeRules = []badgeRule{
	{models.BadgeFirstThoughts, func(r, _ int) bool { return r >= 5 }},
	{models.BadgeDeepThinker, func(r, _ int) bool { return r >= 10 }},
	{models.BadgeWisdomSeeker, func(r, _ int) bool { return r >= 20 }},
	{models.BadgeMasterReflector, func(r, _ int) bool { return r >= 30 }},
	{models.BadgeMakerStoryteller, func(_, c int) bool { return c >= 10 }},
}

// EligibleBadges lists every badge the counts qualify for.
func EligibleBadges(totalReflections, reflectiveCompletions int) []models.Badge {
	var out []models.Badge
	for _, r := range badgeRules {
		if r.met(totalReflections, reflectiveCompletions) {
			out = append(out, r.badge)
		}
	}
	return out
}

// NewBadges filters eligible badges down to those not already owned.
func NewBadges(totalReflections, reflectiveCompletions int, owned []models.Badge) []models.Badge {
	have := make(map[models.Badge]bool, len(owned))
	for _, b := range owned {
		have[b] = true
	}
	var out []models.Badge
	for _, b := range EligibleBadges(totalReflections, reflectiveCompletions) {
		if !have[b] {
			out = append(out, b)
		}
	}
	return out
}

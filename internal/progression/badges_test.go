package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zonuko/internal/models"
)

func TestEligibleBadges(t *testing.T) {
	tests := []struct {
		name        string
		reflections int
		reflective  int
		want        []models.Badge
	}{
		{"none", 4, 9, nil},
		{"first thoughts", 5, 0, []models.Badge{models.BadgeFirstThoughts}},
		{"deep thinker", 10, 0, []models.Badge{models.BadgeFirstThoughts, models.BadgeDeepThinker}},
		{"all reflection badges", 30, 0, []models.Badge{
			models.BadgeFirstThoughts, models.BadgeDeepThinker, models.BadgeWisdomSeeker, models.BadgeMasterReflector,
		}},
		{"storyteller only", 0, 10, []models.Badge{models.BadgeMakerStoryteller}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleBadges(tt.reflections, tt.reflective))
		})
	}
}

func TestNewBadgesSkipsOwned(t *testing.T) {
	owned := []models.Badge{models.BadgeFirstThoughts}
	got := NewBadges(10, 0, owned)
	assert.Equal(t, []models.Badge{models.BadgeDeepThinker}, got)

	owned = append(owned, got...)
	assert.Empty(t, NewBadges(10, 0, owned))
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRituals(t *testing.T) {
	rituals, err := Rituals()
	require.NoError(t, err)
	require.Len(t, rituals, 3)

	first := rituals[0]
	assert.Equal(t, "Circle of Intentions", first.Name)
	assert.Equal(t, "opening", first.RitualType)
	assert.Equal(t, 8, first.ParticipantCount)
	assert.True(t, first.IsOptional)
	assert.NotContains(t, first.Instructions, "\n")

	assert.False(t, rituals[2].IsOptional)
	assert.Equal(t, "indigenous", rituals[2].CulturalContext)
}

func TestBundles(t *testing.T) {
	bundles, err := Bundles()
	require.NoError(t, err)

	var types []string
	for _, b := range bundles {
		types = append(types, b.InstitutionType)
		assert.True(t, b.IsActive, b.Name)
		assert.NotEmpty(t, b.Config, b.Name)
	}
	assert.Equal(t, []string{"education", "religious", "neighborhood", "mutual_aid", "wellbeing"}, types)
	assert.Equal(t, int64(21), bundles[4].Config["sanctuary_days"])
}

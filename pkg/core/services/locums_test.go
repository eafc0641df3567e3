package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/db"
)

func TestBrowseLocums_Anonymised(t *testing.T) {
	m := newMarketplace(t)
	m.store.dentistDetails[m.dentist.ProfileID] = db.DentistDetails{
		ProfileID:        m.dentist.ProfileID,
		UKExperience:     6,
		AdditionalSkills: []string{"implants"},
		LocumType:        "temporary",
		NHSPreference:    "nhs",
		RateMin:          400,
		RateMax:          550,
	}
	// Give the seeded profiles a deterministic order
	for i, id := range []string{m.dentist.ProfileID, m.outsider.ProfileID} {
		p := m.store.profiles[id]
		p.CreatedAt = m.store.clock.Add(time.Duration(i) * time.Second)
		m.store.profiles[id] = p
	}

	cards, err := BrowseLocums(context.Background(), m.store, zap.NewNop(), m.practice)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, "Locum A", cards[0].Label)
	assert.True(t, cards[0].HasDetails)
	assert.Equal(t, []string{"implants"}, cards[0].AdditionalSkills)
	assert.Equal(t, "Locum B", cards[1].Label)
	assert.False(t, cards[1].HasDetails)
}

func TestLocumLabel(t *testing.T) {
	assert.Equal(t, "A", locumLabel(0))
	assert.Equal(t, "Z", locumLabel(25))
	assert.Equal(t, "AA", locumLabel(26))
	assert.Equal(t, "AB", locumLabel(27))
	assert.Equal(t, "BA", locumLabel(52))
}

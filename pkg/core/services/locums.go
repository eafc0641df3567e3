package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// BrowseLocumsStore defines the database operations needed to list locums
type BrowseLocumsStore interface {
	ListLocums(ctx context.Context) ([]db.LocumListing, error)
}

// LocumCard is an anonymised dentist listing. Names and contact details are never included.
type LocumCard struct {
	Label            string   `json:"label"`
	UKExperience     int      `json:"ukExperience"`
	AdditionalSkills []string `json:"additionalSkills"`
	LocumType        string   `json:"locumType"`
	NHSPreference    string   `json:"nhsPreference"`
	RateMin          float64  `json:"rateMin"`
	RateMax          float64  `json:"rateMax"`
	HasDetails       bool     `json:"hasDetails"`
}

// BrowseLocums lists dentist profiles under anonymous labels
func BrowseLocums(ctx context.Context, store BrowseLocumsStore, logger *zap.Logger, s *session.Session) ([]LocumCard, error) {
	const op = "browse locums"

	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	listings, err := store.ListLocums(ctx)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	cards := make([]LocumCard, 0, len(listings))
	for i, l := range listings {
		card := LocumCard{Label: "Locum " + locumLabel(i)}
		if l.Details != nil {
			card.HasDetails = true
			card.UKExperience = l.Details.UKExperience
			card.AdditionalSkills = l.Details.AdditionalSkills
			card.LocumType = l.Details.LocumType
			card.NHSPreference = l.Details.NHSPreference
			card.RateMin = l.Details.RateMin
			card.RateMax = l.Details.RateMax
		}
		cards = append(cards, card)
	}

	logger.Debug("Listed locums", zap.Int("count", len(cards)))
	return cards, nil
}

// locumLabel returns A..Z, then AA, AB, ... for index i
func locumLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

package criteria

import (
	"strings"

	"github.com/jakechorley/locum-dental/pkg/core/matching"
)

// WithinRadiusCriterion keeps shifts no further than RadiusKm from the search origin.
// Shifts without coordinates cannot be placed and are rejected.
type WithinRadiusCriterion struct {
	RadiusKm float64
}

func (c WithinRadiusCriterion) Name() string {
	return "WithinRadius"
}

func (c WithinRadiusCriterion) Accept(candidate *matching.Candidate) bool {
	if candidate.DistanceKm == nil {
		return false
	}
	return *candidate.DistanceKm <= c.RadiusKm
}

// ShiftTypeCriterion keeps shifts of the given type. An empty type matches everything.
type ShiftTypeCriterion struct {
	ShiftType string
}

func (c ShiftTypeCriterion) Name() string {
	return "ShiftType"
}

func (c ShiftTypeCriterion) Accept(candidate *matching.Candidate) bool {
	if c.ShiftType == "" {
		return true
	}
	return strings.EqualFold(candidate.Shift.ShiftType, c.ShiftType)
}

// MinRateCriterion keeps shifts paying at least MinRate
type MinRateCriterion struct {
	MinRate float64
}

func (c MinRateCriterion) Name() string {
	return "MinRate"
}

func (c MinRateCriterion) Accept(candidate *matching.Candidate) bool {
	return candidate.Shift.Rate >= c.MinRate
}

// AfterDateCriterion keeps shifts strictly after Date (YYYY-MM-DD)
type AfterDateCriterion struct {
	Date string
}

func (c AfterDateCriterion) Name() string {
	return "AfterDate"
}

func (c AfterDateCriterion) Accept(candidate *matching.Candidate) bool {
	return candidate.Shift.ShiftDate > c.Date
}

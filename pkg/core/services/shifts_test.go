package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/matching"
	"github.com/jakechorley/locum-dental/pkg/db"
)

func validShiftInput() PostShiftInput {
	return PostShiftInput{
		ShiftDate:   "2026-03-12",
		ShiftType:   "private",
		Rate:        500,
		Location:    "LS1 4AP",
		Description: " Busy list ",
	}
}

func TestPostShift(t *testing.T) {
	m := newMarketplace(t)
	geocoder := newMockGeocoder()

	shifts, err := PostShift(context.Background(), m.store, geocoder, zap.NewNop(), m.practice, 52, validShiftInput())
	require.NoError(t, err)
	require.Len(t, shifts, 1)

	s := shifts[0]
	assert.Equal(t, m.practice.ProfileID, s.PracticeID)
	assert.Equal(t, "2026-03-12", s.ShiftDate)
	assert.Equal(t, "Busy list", s.Description)
	require.NotNil(t, s.Latitude)
	assert.InDelta(t, 53.7997, *s.Latitude, 1e-9)
	assert.Contains(t, m.store.shifts, s.ID)
}

func TestPostShift_Recurring(t *testing.T) {
	m := newMarketplace(t)
	in := validShiftInput()
	in.RRule = "FREQ=WEEKLY;COUNT=4"

	shifts, err := PostShift(context.Background(), m.store, newMockGeocoder(), zap.NewNop(), m.practice, 52, in)
	require.NoError(t, err)
	require.Len(t, shifts, 4)

	dates := make([]string, len(shifts))
	for i, s := range shifts {
		dates[i] = s.ShiftDate
	}
	assert.Equal(t, []string{"2026-03-12", "2026-03-19", "2026-03-26", "2026-04-02"}, dates)
}

func TestPostShift_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PostShiftInput)
		dentist bool
		wantErr apperr.Kind
	}{
		{name: "dentist cannot post", dentist: true, wantErr: apperr.KindAuthorization},
		{name: "past date", mutate: func(in *PostShiftInput) { in.ShiftDate = "2026-02-01" }, wantErr: apperr.KindValidationRejected},
		{name: "today", mutate: func(in *PostShiftInput) { in.ShiftDate = "2026-03-01" }, wantErr: apperr.KindValidationRejected},
		{name: "bad date", mutate: func(in *PostShiftInput) { in.ShiftDate = "12/03/2026" }, wantErr: apperr.KindValidationRejected},
		{name: "bad type", mutate: func(in *PostShiftInput) { in.ShiftType = "weekend" }, wantErr: apperr.KindValidationRejected},
		{name: "zero rate", mutate: func(in *PostShiftInput) { in.Rate = 0 }, wantErr: apperr.KindValidationRejected},
		{name: "unbounded recurrence", mutate: func(in *PostShiftInput) { in.RRule = "FREQ=DAILY" }, wantErr: apperr.KindValidationRejected},
		{name: "bad recurrence", mutate: func(in *PostShiftInput) { in.RRule = "FREQ=SOMETIMES" }, wantErr: apperr.KindValidationRejected},
		{name: "unknown postcode", mutate: func(in *PostShiftInput) { in.Location = "ZZ1 1ZZ" }, wantErr: apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMarketplace(t)
			in := validShiftInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			actor := m.practice
			if tt.dentist {
				actor = m.dentist
			}

			_, err := PostShift(context.Background(), m.store, newMockGeocoder(), zap.NewNop(), actor, 52, in)
			assert.True(t, apperr.Is(err, tt.wantErr), "got %v", err)
			assert.Len(t, m.store.shifts, 1)
		})
	}
}

func TestPostShift_StoreFailure(t *testing.T) {
	m := newMarketplace(t)
	m.store.insertShiftsErr = errStoreDown

	_, err := PostShift(context.Background(), m.store, newMockGeocoder(), zap.NewNop(), m.practice, 52, validShiftInput())
	assert.True(t, apperr.Is(err, apperr.KindUpstreamFailure))
}

func TestExpandRecurrence(t *testing.T) {
	first := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	dates, err := expandRecurrence(first, "FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20260311T000000Z", 10)
	require.NoError(t, err)
	require.Len(t, dates, 4)
	assert.Equal(t, "2026-03-11", dates[3].Format(db.DateLayout))

	_, err = expandRecurrence(first, "FREQ=DAILY;COUNT=5", 4)
	assert.Error(t, err)

	dates, err = expandRecurrence(first, "FREQ=DAILY;COUNT=4", 4)
	require.NoError(t, err)
	assert.Len(t, dates, 4)
}

func seedSearchShifts(m *marketplace) {
	m.store.shifts["leeds-private"] = db.Shift{ID: "leeds-private", PracticeID: m.practice.ProfileID, ShiftDate: "2026-03-05", ShiftType: "private", Rate: 600, Location: "LS6 2AA", Latitude: ptr(53.82), Longitude: ptr(-1.57)}
	m.store.shifts["york"] = db.Shift{ID: "york", PracticeID: m.practice.ProfileID, ShiftDate: "2026-03-06", ShiftType: "nhs", Rate: 500, Location: "YO1 7HH", Latitude: ptr(53.96), Longitude: ptr(-1.0873)}
	m.store.shifts["london"] = db.Shift{ID: "london", PracticeID: m.practice.ProfileID, ShiftDate: "2026-03-07", ShiftType: "nhs", Rate: 700, Location: "SW1A 1AA", Latitude: ptr(51.501), Longitude: ptr(-0.1416)}
	m.store.shifts["leeds-past"] = db.Shift{ID: "leeds-past", PracticeID: m.practice.ProfileID, ShiftDate: "2026-02-20", ShiftType: "nhs", Rate: 450, Location: "LS1 4AP", Latitude: ptr(53.7997), Longitude: ptr(-1.5492)}
	m.store.shifts["no-coords"] = db.Shift{ID: "no-coords", PracticeID: m.practice.ProfileID, ShiftDate: "2026-03-08", ShiftType: "nhs", Rate: 450, Location: "LS1 4AP"}
}

func candidateIDs(candidates []matching.Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Shift.ID
	}
	return ids
}

func TestBrowseShifts(t *testing.T) {
	tests := []struct {
		name   string
		search ShiftSearch
		want   []string
	}{
		{name: "default radius", search: ShiftSearch{Postcode: "LS1 4AP"}, want: []string{"leeds-private", "shift-1"}},
		{name: "wider radius", search: ShiftSearch{Postcode: "LS1 4AP", RadiusKm: 50}, want: []string{"leeds-private", "york", "shift-1"}},
		{name: "type filter", search: ShiftSearch{Postcode: "LS1 4AP", RadiusKm: 50, ShiftType: "nhs"}, want: []string{"york", "shift-1"}},
		{name: "min rate", search: ShiftSearch{Postcode: "LS1 4AP", RadiusKm: 50, MinRate: 550}, want: []string{"leeds-private"}},
		{name: "nothing nearby", search: ShiftSearch{Postcode: "SW1A 1AA", RadiusKm: 5, ShiftType: "private"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMarketplace(t)
			seedSearchShifts(m)

			results, err := BrowseShifts(context.Background(), m.store, newMockGeocoder(), zap.NewNop(), m.dentist, 20, tt.search)
			require.NoError(t, err)
			assert.Equal(t, tt.want, candidateIDs(results.Candidates))
			assert.Len(t, results.Map.Markers, len(tt.want))
			assert.Equal(t, OSMTileURL, results.Map.TileURL)
			for _, c := range results.Candidates {
				require.NotNil(t, c.DistanceKm)
			}
		})
	}
}

func TestBrowseShifts_Rejections(t *testing.T) {
	m := newMarketplace(t)

	_, err := BrowseShifts(context.Background(), m.store, newMockGeocoder(), zap.NewNop(), nil, 20, ShiftSearch{Postcode: "LS1 4AP"})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = BrowseShifts(context.Background(), m.store, newMockGeocoder(), zap.NewNop(), m.dentist, 20, ShiftSearch{})
	assert.True(t, apperr.Is(err, apperr.KindValidationRejected))

	_, err = BrowseShifts(context.Background(), m.store, newMockGeocoder(), zap.NewNop(), m.dentist, 20, ShiftSearch{Postcode: "ZZ1 1ZZ"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestShiftMarkers_JitterIsBoundedAndStable(t *testing.T) {
	candidates := []matching.Candidate{
		{Shift: db.Shift{ID: "a", ShiftDate: "2026-03-05", Location: "LS1 4AP", Rate: 450, Latitude: ptr(53.8), Longitude: ptr(-1.5)}},
		{Shift: db.Shift{ID: "b", ShiftDate: "2026-03-06", Location: "LS1 4AP", Rate: 450}},
	}

	markers := ShiftMarkers(candidates)
	require.Len(t, markers, 1)
	assert.InDelta(t, 53.8, markers[0].Latitude, markerJitterDeg)
	assert.InDelta(t, -1.5, markers[0].Longitude, markerJitterDeg)
	assert.Contains(t, markers[0].Label, "2026-03-05")
	assert.Contains(t, markers[0].Label, "£450.00")

	assert.Equal(t, markers, ShiftMarkers(candidates))
}

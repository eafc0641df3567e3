package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/matching"
	"github.com/jakechorley/locum-dental/pkg/core/matching/criteria"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

const (
	// OSMTileURL is the tile template map clients render markers on
	OSMTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	// markerJitterDeg bounds how far a marker is moved from the practice's real position
	markerJitterDeg = 0.01
)

// PostShiftStore defines the database operations needed to post shifts
type PostShiftStore interface {
	InsertShifts(ctx context.Context, shifts []db.Shift) error
}

// BrowseShiftsStore defines the database operations needed to search shifts
type BrowseShiftsStore interface {
	GetShiftsAfter(ctx context.Context, date string) ([]db.Shift, error)
}

// PostShiftInput describes a shift, or a recurring series of shifts, to post
type PostShiftInput struct {
	ShiftDate   string  `json:"shiftDate" validate:"required,datetime=2006-01-02"`
	ShiftType   string  `json:"shiftType" validate:"required,oneof=nhs private mixed full_day half_day am pm"`
	Rate        float64 `json:"rate" validate:"gt=0"`
	Location    string  `json:"location" validate:"required"`
	Description string  `json:"description"`
	// RRule optionally repeats the shift, e.g. "FREQ=WEEKLY;COUNT=4". ShiftDate is the first occurrence.
	RRule string `json:"rrule"`
}

// PostShift publishes one shift per occurrence date for the signed-in practice
func PostShift(ctx context.Context, store PostShiftStore, geocoder Geocoder, logger *zap.Logger, s *session.Session, maxRecurrences int, in PostShiftInput) ([]db.Shift, error) {
	const op = "post shift"

	if err := requireRole(op, s, db.RolePractice); err != nil {
		return nil, err
	}
	if err := validateInput(op, in); err != nil {
		return nil, err
	}

	first, err := time.Parse(db.DateLayout, in.ShiftDate)
	if err != nil {
		return nil, apperr.Rejected(op, "invalid shift date %q", in.ShiftDate)
	}
	if in.ShiftDate <= today() {
		return nil, apperr.Rejected(op, "shift date must be in the future")
	}

	dates := []time.Time{first}
	if strings.TrimSpace(in.RRule) != "" {
		dates, err = expandRecurrence(first, in.RRule, maxRecurrences)
		if err != nil {
			return nil, apperr.Rejected(op, "%v", err)
		}
	}

	logger.Debug("Geocoding shift location", zap.String("postcode", in.Location))
	loc, err := geocoder.Lookup(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	shifts := make([]db.Shift, 0, len(dates))
	for _, date := range dates {
		lat, lng := loc.Latitude, loc.Longitude
		shifts = append(shifts, db.Shift{
			ID:          uuid.New().String(),
			PracticeID:  s.ProfileID,
			ShiftDate:   date.Format(db.DateLayout),
			ShiftType:   in.ShiftType,
			Rate:        in.Rate,
			Location:    loc.Postcode,
			Latitude:    &lat,
			Longitude:   &lng,
			Description: strings.TrimSpace(in.Description),
		})
	}

	if err := store.InsertShifts(ctx, shifts); err != nil {
		return nil, apperr.Upstream(op, err)
	}

	logger.Info("Shifts posted",
		zap.String("practice_id", s.ProfileID),
		zap.Int("count", len(shifts)),
		zap.String("first_date", shifts[0].ShiftDate))

	return shifts, nil
}

// expandRecurrence lists the occurrence dates of rule starting at first, refusing more than limit
func expandRecurrence(first time.Time, rule string, limit int) ([]time.Time, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}
	// Weekday and month-day defaults derive from the start, so it is set before building
	opt.Dtstart = first
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}

	var dates []time.Time
	next := r.Iterator()
	for {
		date, ok := next()
		if !ok {
			break
		}
		if len(dates) == limit {
			return nil, fmt.Errorf("recurrence produces more than %d shifts; add COUNT or UNTIL", limit)
		}
		dates = append(dates, date)
	}

	if len(dates) == 0 {
		return nil, fmt.Errorf("recurrence produces no shifts")
	}
	return dates, nil
}

// ShiftSearch is a dentist's shift search
type ShiftSearch struct {
	Postcode  string  `json:"postcode" validate:"required"`
	RadiusKm  float64 `json:"radiusKm" validate:"gte=0"`
	ShiftType string  `json:"shiftType" validate:"omitempty,oneof=nhs private mixed full_day half_day am pm"`
	MinRate   float64 `json:"minRate" validate:"gte=0"`
}

// Marker is a map pin for a shift
type Marker struct {
	ShiftID   string  `json:"shiftId"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Label     string  `json:"label"`
}

// MapView is everything a client needs to draw the search results
type MapView struct {
	TileURL string         `json:"tileUrl"`
	Center  matching.Point `json:"center"`
	Markers []Marker       `json:"markers"`
}

// ShiftResults are the matching shifts, nearest-date first, with their map
type ShiftResults struct {
	Origin     matching.Point       `json:"origin"`
	RadiusKm   float64              `json:"radiusKm"`
	Candidates []matching.Candidate `json:"candidates"`
	Map        MapView              `json:"map"`
}

// BrowseShifts finds future shifts within a radius of a postcode
func BrowseShifts(ctx context.Context, store BrowseShiftsStore, geocoder Geocoder, logger *zap.Logger, s *session.Session, defaultRadiusKm float64, search ShiftSearch) (*ShiftResults, error) {
	const op = "browse shifts"

	if err := requireSession(op, s); err != nil {
		return nil, err
	}
	if err := validateInput(op, search); err != nil {
		return nil, err
	}

	radius := search.RadiusKm
	if radius == 0 {
		radius = defaultRadiusKm
	}

	loc, err := geocoder.Lookup(ctx, search.Postcode)
	if err != nil {
		return nil, err
	}
	origin := matching.Point{Lat: loc.Latitude, Lng: loc.Longitude}

	date := today()
	shifts, err := store.GetShiftsAfter(ctx, date)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	searcher := matching.NewSearch(&origin,
		criteria.AfterDateCriterion{Date: date},
		criteria.WithinRadiusCriterion{RadiusKm: radius},
		criteria.ShiftTypeCriterion{ShiftType: search.ShiftType},
		criteria.MinRateCriterion{MinRate: search.MinRate},
	)
	candidates := searcher.Run(shifts)

	logger.Debug("Shift search complete",
		zap.String("postcode", loc.Postcode),
		zap.Float64("radius_km", radius),
		zap.Int("considered", len(shifts)),
		zap.Int("matched", len(candidates)))

	return &ShiftResults{
		Origin:     origin,
		RadiusKm:   radius,
		Candidates: candidates,
		Map: MapView{
			TileURL: OSMTileURL,
			Center:  origin,
			Markers: ShiftMarkers(candidates),
		},
	}, nil
}

// ShiftMarkers builds map pins for located shifts. Each pin is offset by up to markerJitterDeg
// so a practice's exact address is not shown; the offset is stable for a given shift.
func ShiftMarkers(candidates []matching.Candidate) []Marker {
	markers := make([]Marker, 0, len(candidates))
	for _, c := range candidates {
		if c.Shift.Latitude == nil || c.Shift.Longitude == nil {
			continue
		}
		dLat, dLng := jitter(c.Shift.ID)
		markers = append(markers, Marker{
			ShiftID:   c.Shift.ID,
			Latitude:  *c.Shift.Latitude + dLat,
			Longitude: *c.Shift.Longitude + dLng,
			Label:     fmt.Sprintf("%s\n%s\n£%.2f", c.Shift.ShiftDate, c.Shift.Location, c.Shift.Rate),
		})
	}
	return markers
}

// jitter derives an offset in [-markerJitterDeg, markerJitterDeg) for each axis from id
func jitter(id string) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(id))
	sum := h.Sum64()

	unit := func(bits uint64) float64 {
		return float64(bits&0xffffffff)/float64(1<<32)*2 - 1
	}
	return unit(sum) * markerJitterDeg, unit(sum>>32) * markerJitterDeg
}

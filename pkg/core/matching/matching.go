package matching

import (
	"math"
	"sort"

	"github.com/jakechorley/locum-dental/pkg/db"
)

const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between a and b in kilometres
func HaversineKm(a, b Point) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Pow(math.Sin(dLng/2), 2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Candidate is a shift under evaluation together with facts computed about it
type Candidate struct {
	Shift db.Shift `json:"shift"`
	// DistanceKm is nil when either side has no coordinates
	DistanceKm *float64 `json:"distanceKm"`
}

// Criterion defines the interface for shift search filters
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// Accept reports whether the candidate passes this criterion.
	// If ANY criterion rejects a candidate it is excluded from the results.
	Accept(candidate *Candidate) bool
}

// Search evaluates shifts against an origin and an ordered set of criteria
type Search struct {
	origin   *Point
	criteria []Criterion
}

// NewSearch creates a search. origin may be nil when no distance is needed.
func NewSearch(origin *Point, criteria ...Criterion) *Search {
	return &Search{origin: origin, criteria: criteria}
}

// Run returns the shifts that pass every criterion, ordered by date ascending
func (s *Search) Run(shifts []db.Shift) []Candidate {
	var results []Candidate
	for _, shift := range shifts {
		candidate := Candidate{Shift: shift}
		if s.origin != nil && shift.Latitude != nil && shift.Longitude != nil {
			d := HaversineKm(*s.origin, Point{Lat: *shift.Latitude, Lng: *shift.Longitude})
			candidate.DistanceKm = &d
		}

		if s.accept(&candidate) {
			results = append(results, candidate)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Shift.ShiftDate < results[j].Shift.ShiftDate
	})

	return results
}

func (s *Search) accept(candidate *Candidate) bool {
	for _, c := range s.criteria {
		if !c.Accept(candidate) {
			return false
		}
	}
	return true
}

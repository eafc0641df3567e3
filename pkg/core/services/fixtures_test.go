package services

import (
	"testing"
	"time"

	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// fixedNow pins the service clock to 2026-03-01 for the duration of a test
func fixedNow(t *testing.T) {
	t.Helper()
	original := now
	now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = original })
}

func ptr[T any](v T) *T { return &v }

func sessionFor(p db.Profile) *session.Session {
	return &session.Session{
		ID:        "session-" + p.ID,
		UserID:    p.UserID,
		ProfileID: p.ID,
		Role:      p.Role,
		Email:     p.Email,
	}
}

// marketplace is a store seeded with a practice, two dentists, a future shift and a pending booking
type marketplace struct {
	store *mockStore

	practice *session.Session
	dentist  *session.Session
	outsider *session.Session

	shift     db.Shift
	bookingID string
}

func newMarketplace(t *testing.T) *marketplace {
	t.Helper()
	fixedNow(t)

	store := newMockStore()

	practice := db.Profile{ID: "practice-1", UserID: "user-p", Role: db.RolePractice, FullName: "Dr Principal", Email: "owner@smile.example", Postcode: "LS1 4AP"}
	dentist := db.Profile{ID: "dentist-1", UserID: "user-d", Role: db.RoleDentist, FullName: "Dana Dentist", Email: "dana@example.com", Phone: "07700900123", Postcode: "LS6 2AA"}
	outsider := db.Profile{ID: "dentist-2", UserID: "user-o", Role: db.RoleDentist, FullName: "Olly Outsider", Email: "olly@example.com", Postcode: "YO1 7HH"}
	for _, p := range []db.Profile{practice, dentist, outsider} {
		store.profiles[p.ID] = p
	}
	store.practiceDetails[practice.ID] = db.PracticeDetails{
		ProfileID:    practice.ID,
		PracticeName: "Smile Dental",
		ContactEmail: "reception@smile.example",
		ContactPhone: "0113 496 0000",
	}

	shift := db.Shift{
		ID:         "shift-1",
		PracticeID: practice.ID,
		ShiftDate:  "2026-03-10",
		ShiftType:  "nhs",
		Rate:       450,
		Location:   "LS1 4AP",
		Latitude:   ptr(53.7997),
		Longitude:  ptr(-1.5492),
	}
	store.shifts[shift.ID] = shift

	store.bookings["booking-1"] = db.Booking{
		ID:        "booking-1",
		ShiftID:   shift.ID,
		DentistID: dentist.ID,
		Status:    db.BookingStatusPending,
	}

	return &marketplace{
		store:     store,
		practice:  sessionFor(practice),
		dentist:   sessionFor(dentist),
		outsider:  sessionFor(outsider),
		shift:     shift,
		bookingID: "booking-1",
	}
}

// accept marks the seeded booking accepted without going through the service
func (m *marketplace) accept() {
	b := m.store.bookings[m.bookingID]
	b.Status = db.BookingStatusAccepted
	m.store.bookings[m.bookingID] = b
}

// addPastBooking seeds an accepted booking on a shift that has already happened
func (m *marketplace) addPastBooking(shiftID, bookingID, date string) {
	m.store.shifts[shiftID] = db.Shift{ID: shiftID, PracticeID: m.practice.ProfileID, ShiftDate: date, ShiftType: "private", Rate: 500, Location: "LS1 4AP"}
	m.store.bookings[bookingID] = db.Booking{ID: bookingID, ShiftID: shiftID, DentistID: m.dentist.ProfileID, Status: db.BookingStatusAccepted}
}

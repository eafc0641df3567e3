package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/locum-dental/pkg/clients/postcodeclient"
	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

var errStoreDown = errors.New("store unavailable")

// mockStore is an in-memory db.Database. Setting an err field makes that operation fail.
type mockStore struct {
	mu sync.Mutex

	users           map[string]db.User
	profiles        map[string]db.Profile
	dentistDetails  map[string]db.DentistDetails
	practiceDetails map[string]db.PracticeDetails
	shifts          map[string]db.Shift
	bookings        map[string]db.Booking
	messages        []db.Message
	reviews         []db.Review

	insertProfileErr error
	updateProfileErr error
	insertShiftsErr  error
	insertMessageErr error
	getMessagesErr   error
	updateBookingErr error

	updateCalls int
	clock       time.Time
}

var _ db.Database = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		users:           make(map[string]db.User),
		profiles:        make(map[string]db.Profile),
		dentistDetails:  make(map[string]db.DentistDetails),
		practiceDetails: make(map[string]db.PracticeDetails),
		shifts:          make(map[string]db.Shift),
		bookings:        make(map[string]db.Booking),
		clock:           time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// CreateAccount applies every write or none, like the postgres transaction
func (m *mockStore) CreateAccount(ctx context.Context, account *db.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == account.User.Email {
			return db.ErrDuplicate
		}
	}
	if m.insertProfileErr != nil {
		return m.insertProfileErr
	}
	account.User.CreatedAt = m.tick()
	m.users[account.User.ID] = *account.User
	account.Profile.CreatedAt = m.tick()
	m.profiles[account.Profile.ID] = *account.Profile
	m.saveDetailsLocked(account.Dentist, account.Practice)
	return nil
}

func (m *mockStore) saveDetailsLocked(dentist *db.DentistDetails, practice *db.PracticeDetails) {
	if dentist != nil {
		m.dentistDetails[dentist.ProfileID] = *dentist
	}
	if practice != nil {
		m.practiceDetails[practice.ProfileID] = *practice
	}
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) UpdateProfile(ctx context.Context, profile *db.Profile, dentist *db.DentistDetails, practice *db.PracticeDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.ID]; !ok {
		return db.ErrNotFound
	}
	if m.updateProfileErr != nil {
		return m.updateProfileErr
	}
	m.profiles[profile.ID] = *profile
	m.saveDetailsLocked(dentist, practice)
	return nil
}

func (m *mockStore) GetProfile(ctx context.Context, id string) (*db.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) GetProfileByUserID(ctx context.Context, userID string) (*db.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) GetDentistDetails(ctx context.Context, profileID string) (*db.DentistDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dentistDetails[profileID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &d, nil
}

func (m *mockStore) GetPracticeDetails(ctx context.Context, profileID string) (*db.PracticeDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.practiceDetails[profileID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &d, nil
}

func (m *mockStore) ListLocums(ctx context.Context) ([]db.LocumListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var listings []db.LocumListing
	for _, p := range m.profiles {
		if p.Role != db.RoleDentist {
			continue
		}
		l := db.LocumListing{Profile: p}
		if d, ok := m.dentistDetails[p.ID]; ok {
			l.Details = &d
		}
		listings = append(listings, l)
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].Profile.CreatedAt.Before(listings[j].Profile.CreatedAt) })
	return listings, nil
}

func (m *mockStore) InsertShifts(ctx context.Context, shifts []db.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertShiftsErr != nil {
		return m.insertShiftsErr
	}
	for i := range shifts {
		shifts[i].CreatedAt = m.tick()
		m.shifts[shifts[i].ID] = shifts[i]
	}
	return nil
}

func (m *mockStore) GetShift(ctx context.Context, id string) (*db.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (m *mockStore) sortedShifts(keep func(db.Shift) bool) []db.Shift {
	var shifts []db.Shift
	for _, s := range m.shifts {
		if keep(s) {
			shifts = append(shifts, s)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].ShiftDate < shifts[j].ShiftDate })
	return shifts
}

func (m *mockStore) GetShiftsAfter(ctx context.Context, date string) ([]db.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedShifts(func(s db.Shift) bool { return s.ShiftDate > date }), nil
}

func (m *mockStore) GetShiftsByPractice(ctx context.Context, practiceID string) ([]db.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedShifts(func(s db.Shift) bool { return s.PracticeID == practiceID }), nil
}

func (m *mockStore) InsertBooking(ctx context.Context, booking *db.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ShiftID == booking.ShiftID && b.DentistID == booking.DentistID {
			return db.ErrDuplicate
		}
	}
	booking.CreatedAt = m.tick()
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *mockStore) viewLocked(id string) (*db.BookingView, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	v := &db.BookingView{
		Booking:  b,
		Shift:    m.shifts[b.ShiftID],
		Dentist:  m.profiles[b.DentistID],
		Practice: m.profiles[m.shifts[b.ShiftID].PracticeID],
	}
	if pd, ok := m.practiceDetails[v.Practice.ID]; ok {
		v.PracticeDetails = &pd
	}
	return v, nil
}

func (m *mockStore) GetBookingView(ctx context.Context, id string) (*db.BookingView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked(id)
}

func (m *mockStore) viewsLocked(keep func(*db.BookingView) bool) []db.BookingView {
	var views []db.BookingView
	for id := range m.bookings {
		v, _ := m.viewLocked(id)
		if keep(v) {
			views = append(views, *v)
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Shift.ShiftDate < views[j].Shift.ShiftDate })
	return views
}

func (m *mockStore) GetBookingViewsByDentist(ctx context.Context, dentistID string) ([]db.BookingView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewsLocked(func(v *db.BookingView) bool { return v.Booking.DentistID == dentistID }), nil
}

func (m *mockStore) GetBookingViewsByPractice(ctx context.Context, practiceID string) ([]db.BookingView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewsLocked(func(v *db.BookingView) bool { return v.Shift.PracticeID == practiceID }), nil
}

// UpdateBooking holds the store lock for the whole mutation, like a row lock
func (m *mockStore) UpdateBooking(ctx context.Context, id string, fn db.BookingMutation) (*db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateBookingErr != nil {
		return nil, m.updateBookingErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	shift := m.shifts[b.ShiftID]

	changed, err := fn(&b, &shift)
	if err != nil {
		return nil, err
	}
	if changed {
		m.bookings[id] = b
	}
	return &b, nil
}

func (m *mockStore) InsertMessage(ctx context.Context, message *db.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertMessageErr != nil {
		return m.insertMessageErr
	}
	message.CreatedAt = m.tick()
	m.messages = append(m.messages, *message)
	return nil
}

func (m *mockStore) GetMessages(ctx context.Context, bookingID string) ([]db.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getMessagesErr != nil {
		return nil, m.getMessagesErr
	}
	var messages []db.Message
	for _, msg := range m.messages {
		if msg.BookingID == bookingID {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (m *mockStore) InsertReview(ctx context.Context, review *db.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ReviewerID == review.ReviewerID && r.ShiftID == review.ShiftID {
			return db.ErrDuplicate
		}
	}
	review.CreatedAt = m.tick()
	m.reviews = append(m.reviews, *review)
	return nil
}

func (m *mockStore) GetReviewsByReviewer(ctx context.Context, reviewerID string) ([]db.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reviews []db.Review
	for _, r := range m.reviews {
		if r.ReviewerID == reviewerID {
			reviews = append(reviews, r)
		}
	}
	return reviews, nil
}

// mockGeocoder resolves postcodes from a fixed table
type mockGeocoder struct {
	locations map[string]postcodeclient.Location
	calls     int
}

func (g *mockGeocoder) Lookup(ctx context.Context, postcode string) (*postcodeclient.Location, error) {
	g.calls++
	loc, ok := g.locations[postcode]
	if !ok {
		return nil, apperr.NotFound("lookup postcode", "postcode %q not found", postcode)
	}
	return &loc, nil
}

func newMockGeocoder() *mockGeocoder {
	return &mockGeocoder{locations: map[string]postcodeclient.Location{
		"LS1 4AP":  {Postcode: "LS1 4AP", Latitude: 53.7997, Longitude: -1.5492},
		"YO1 7HH":  {Postcode: "YO1 7HH", Latitude: 53.9600, Longitude: -1.0873},
		"LS6 2AA":  {Postcode: "LS6 2AA", Latitude: 53.8200, Longitude: -1.5700},
		"SW1A 1AA": {Postcode: "SW1A 1AA", Latitude: 51.5010, Longitude: -0.1416},
	}}
}

// mockNotifier records sent emails
type mockNotifier struct {
	mu   sync.Mutex
	sent []email
	err  error
}

func (n *mockNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, email{to: to, subject: subject, body: body})
	return nil
}

// mockSessions issues unsigned sessions and records revocations
type mockSessions struct {
	issued  []*session.Session
	revoked []string
}

func (m *mockSessions) Issue(user *db.User, profile *db.Profile) (*session.Session, error) {
	s := &session.Session{
		ID:        "session-" + profile.ID,
		Token:     "token-" + profile.ID,
		UserID:    user.ID,
		ProfileID: profile.ID,
		Role:      profile.Role,
		Email:     user.Email,
	}
	m.issued = append(m.issued, s)
	return s, nil
}

func (m *mockSessions) Revoke(ctx context.Context, s *session.Session) error {
	m.revoked = append(m.revoked, s.ID)
	return nil
}

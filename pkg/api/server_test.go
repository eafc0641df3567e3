package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/internal/config"
	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/messagegate"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// stubStore implements the handful of store calls these tests reach. Anything else panics
// through the nil embedded interface.
type stubStore struct {
	db.Database

	mu              sync.Mutex
	users           map[string]db.User
	profiles        map[string]db.Profile
	dentistDetails  map[string]db.DentistDetails
	insertedMessage bool
	bookingViewErr  error
}

func newStubStore() *stubStore {
	return &stubStore{
		users:          make(map[string]db.User),
		profiles:       make(map[string]db.Profile),
		dentistDetails: make(map[string]db.DentistDetails),
	}
}

func (s *stubStore) CreateAccount(ctx context.Context, account *db.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[account.User.Email] = *account.User
	s.profiles[account.Profile.ID] = *account.Profile
	if account.Dentist != nil {
		s.dentistDetails[account.Profile.ID] = *account.Dentist
	}
	return nil
}

func (s *stubStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (s *stubStore) GetProfile(ctx context.Context, id string) (*db.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (s *stubStore) GetProfileByUserID(ctx context.Context, userID string) (*db.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *stubStore) GetDentistDetails(ctx context.Context, profileID string) (*db.DentistDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dentistDetails[profileID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &d, nil
}

func (s *stubStore) GetBookingView(ctx context.Context, id string) (*db.BookingView, error) {
	if s.bookingViewErr != nil {
		return nil, s.bookingViewErr
	}
	return nil, db.ErrNotFound
}

func (s *stubStore) InsertMessage(ctx context.Context, message *db.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertedMessage = true
	return nil
}

type testServer struct {
	store   *stubStore
	handler http.Handler
}

func newTestServer(t *testing.T, requestsPerMinute int) *testServer {
	t.Helper()

	cfg := &config.Config{
		MaxRecurrences: config.DefaultMaxRecurrences,
		Search:         config.SearchConfig{DefaultRadiusKm: config.DefaultRadiusKm},
		Server:         config.ServerConfig{Addr: ":0", RequestsPerMinute: requestsPerMinute},
	}
	gate, err := messagegate.NewDefault(nil)
	require.NoError(t, err)

	store := newStubStore()
	srv := NewServer(Dependencies{
		Store:    store,
		Sessions: session.NewManager("test-secret-0123456789", time.Hour, session.NewMemoryRevocations(), zap.NewNop()),
		Gate:     gate,
		Config:   cfg,
		Logger:   zap.NewNop(),
	})
	return &testServer{store: store, handler: srv.Handler()}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) registerDentist(t *testing.T) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "dana@example.com",
		"password": "s3cure-password",
		"role":     "dentist",
		"fullName": "Dana Dentist",
		"postcode": "LS6 2AA",
		"dentist": map[string]any{
			"gdcNumber":     "123456",
			"yearQualified": 2015,
			"locumType":     "temporary",
			"nhsPreference": "either",
			"rateMin":       400,
			"rateMax":       600,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result struct {
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Session.Token)
	return result.Session.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, apperr.Kind) {
	t.Helper()
	var body struct {
		Error string      `json:"error"`
		Kind  apperr.Kind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error, body.Kind
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 100)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession(t *testing.T) {
	ts := newTestServer(t, 100)

	rec := ts.do(t, http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, kind := decodeError(t, rec)
	assert.Equal(t, apperr.KindAuthorization, kind)

	rec = ts.do(t, http.MethodGet, "/api/dashboard", "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterProfileLogout(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.registerDentist(t)

	rec := ts.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view struct {
		Profile struct {
			FullName string `json:"fullName"`
			Role     string `json:"role"`
		} `json:"profile"`
		Dentist struct {
			GDCNumber string `json:"gdcNumber"`
		} `json:"dentist"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Dana Dentist", view.Profile.FullName)
	assert.Equal(t, "dentist", view.Profile.Role)
	assert.Equal(t, "123456", view.Dentist.GDCNumber)

	rec = ts.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.registerDentist(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dana@example.com", "password": "s3cure-password"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dana@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_Rejected(t *testing.T) {
	ts := newTestServer(t, 100)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "dana@example.com", "password": "short", "role": "dentist", "fullName": "Dana", "postcode": "LS6 2AA",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, ts.store.users)
}

func TestSendMessage_Blocked(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.registerDentist(t)

	rec := ts.do(t, http.MethodPost, "/api/bookings/booking-1/messages", token, map[string]string{"text": "call me on 07700 900123"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	msg, kind := decodeError(t, rec)
	assert.Equal(t, messagegate.RejectionMessage, msg)
	assert.Equal(t, apperr.KindValidationRejected, kind)
	assert.False(t, ts.store.insertedMessage)
}

func TestBookingErrors(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.registerDentist(t)

	rec := ts.do(t, http.MethodGet, "/api/bookings/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.store.bookingViewErr = errors.New("connection refused")
	rec = ts.do(t, http.MethodGet, "/api/bookings/any", token, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	msg, kind := decodeError(t, rec)
	assert.Equal(t, apperr.KindUpstreamFailure, kind)
	assert.NotContains(t, msg, "connection refused")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestRateLimiter_EvictsIdleIPs(t *testing.T) {
	r := newRateLimiter(60)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }
	r.lastSweep = clock

	quiet := r.get("10.0.0.1")
	r.get("10.0.0.2")
	require.Len(t, r.limiters, 2)

	// Only the second IP keeps calling
	clock = clock.Add(3 * time.Minute)
	r.get("10.0.0.2")
	clock = clock.Add(3 * time.Minute)
	r.get("10.0.0.2")

	assert.NotContains(t, r.limiters, "10.0.0.1")
	assert.Contains(t, r.limiters, "10.0.0.2")

	// A returning IP gets a fresh bucket
	assert.NotSame(t, quiet, r.get("10.0.0.1"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindAuthorization, http.StatusForbidden},
		{apperr.KindValidationRejected, http.StatusUnprocessableEntity},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindUpstreamFailure, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

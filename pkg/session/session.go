package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
)

// Session is the authenticated identity passed explicitly into every workflow call
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ProfileID string    `json:"profileId"`
	Role      db.Role   `json:"role"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Anonymous reports whether the session carries no identity
func (s *Session) Anonymous() bool {
	return s == nil || s.UserID == ""
}

// EventType describes a session change
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is delivered to subscribers whenever a session starts or ends
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ProfileID string    `json:"profile_id"`
	// Origin identifies the process that relayed the event. Empty for events raised locally.
	Origin string `json:"origin,omitempty"`
}

// Listener receives session change notifications
type Listener func(Event)

// RevocationStore remembers sessions that ended before their expiry
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type claims struct {
	ProfileID string  `json:"pid"`
	Role      db.Role `json:"role"`
	Email     string  `json:"email"`
	jwt.StandardClaims
}

// Manager issues and verifies HS256 session tokens
type Manager struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationStore
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// NewManager creates a session manager
func NewManager(secret string, ttl time.Duration, revocations RevocationStore, logger *zap.Logger) *Manager {
	return &Manager{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
		listeners:   make(map[int]Listener),
	}
}

// Issue starts a session for a registered user and their profile
func (m *Manager) Issue(user *db.User, profile *db.Profile) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ProfileID: profile.ID,
		Role:      profile.Role,
		Email:     user.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ProfileID: s.ProfileID,
		Role:      s.Role,
		Email:     s.Email,
		StandardClaims: jwt.StandardClaims{
			Id:        s.ID,
			Subject:   s.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: s.ExpiresAt.Unix(),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	s.Token = signed

	m.logger.Debug("Session issued", zap.String("session_id", s.ID), zap.String("profile_id", s.ProfileID))
	m.Notify(Event{Type: EventSignedIn, SessionID: s.ID, UserID: s.UserID, ProfileID: s.ProfileID})

	return s, nil
}

// Parse verifies a token and returns the session it carries
func (m *Manager) Parse(ctx context.Context, tokenString string) (*Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Authorization("parse session", "invalid or expired session token")
	}

	if c.Subject == "" || c.ProfileID == "" {
		return nil, apperr.Authorization("parse session", "session token is missing its identity")
	}

	revoked, err := m.revocations.IsRevoked(ctx, c.Id)
	if err != nil {
		return nil, apperr.Upstream("check session revocation", err)
	}
	if revoked {
		return nil, apperr.Authorization("parse session", "session has been signed out")
	}

	return &Session{
		ID:        c.Id,
		Token:     tokenString,
		UserID:    c.Subject,
		ProfileID: c.ProfileID,
		Role:      c.Role,
		Email:     c.Email,
		IssuedAt:  time.Unix(c.IssuedAt, 0),
		ExpiresAt: time.Unix(c.ExpiresAt, 0),
	}, nil
}

// Revoke ends a session before its expiry and notifies subscribers
func (m *Manager) Revoke(ctx context.Context, s *Session) error {
	if err := m.revocations.Revoke(ctx, s.ID, s.ExpiresAt); err != nil {
		return apperr.Upstream("revoke session", err)
	}

	m.logger.Info("Session revoked", zap.String("session_id", s.ID), zap.String("profile_id", s.ProfileID))
	m.Notify(Event{Type: EventSignedOut, SessionID: s.ID, UserID: s.UserID, ProfileID: s.ProfileID})

	return nil
}

// Subscribe registers fn for session change notifications and returns a function that removes it
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Notify delivers an event to every current subscriber
func (m *Manager) Notify(event Event) {
	m.mu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	revokedKeyPrefix = "locum:session:revoked:"
	// EventsChannel carries session events between processes sharing a Redis
	EventsChannel = "locum:session:events"
)

// MemoryRevocations keeps revoked session IDs in process memory.
// Used when no Redis is configured, which limits sign-out to a single process.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocations creates an empty in-memory revocation store
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *MemoryRevocations) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop entries whose tokens have expired anyway
	now := r.now()
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
		}
	}

	r.revoked[sessionID] = until
	return nil
}

func (r *MemoryRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.revoked[sessionID]
	return ok && until.After(r.now()), nil
}

// RedisRevocations stores revoked session IDs in Redis with an expiry matching the token's
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations connects to Redis and verifies the connection
func NewRedisRevocations(ctx context.Context, addr, password string) (*RedisRevocations, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRevocations{client: client}, nil
}

// Close closes the Redis client
func (r *RedisRevocations) Close() error {
	return r.client.Close()
}

func (r *RedisRevocations) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revocation: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

// Publish forwards a local session event to other processes
func (r *RedisRevocations) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode session event: %w", err)
	}
	if err := r.client.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	return nil
}

// eventRelay moves events between one manager and the shared channel
type eventRelay struct {
	id      string
	manager *Manager
	publish func(ctx context.Context, event Event) error
	logger  *zap.Logger
}

func newEventRelay(m *Manager, publish func(ctx context.Context, event Event) error, logger *zap.Logger) *eventRelay {
	return &eventRelay{id: uuid.New().String(), manager: m, publish: publish, logger: logger}
}

// forward publishes events raised in this process, stamped with the relay's id
func (e *eventRelay) forward(ctx context.Context, event Event) {
	if event.Origin != "" {
		return
	}
	event.Origin = e.id
	if err := e.publish(ctx, event); err != nil {
		e.logger.Warn("Failed to publish session event", zap.Error(err))
	}
}

// receive delivers an event from another process. Redis echoes our own publishes back, and
// those were already delivered locally when they were raised.
func (e *eventRelay) receive(payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		e.logger.Warn("Ignoring malformed session event", zap.Error(err))
		return
	}
	if event.Origin == "" || event.Origin == e.id {
		return
	}
	e.manager.Notify(event)
}

// Relay wires a manager to Redis pub/sub: local events are published, and events from
// other processes are delivered to the manager's subscribers. It blocks until ctx is done.
func (r *RedisRevocations) Relay(ctx context.Context, m *Manager, logger *zap.Logger) {
	relay := newEventRelay(m, r.Publish, logger)

	unsubscribe := m.Subscribe(func(event Event) {
		relay.forward(ctx, event)
	})
	defer unsubscribe()

	pubsub := r.client.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			relay.receive(msg.Payload)
		}
	}
}

// Package session owns the persisted session token of the client process.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// EventType describes a session transition.
type EventType string

const (
	EventLoggedIn  EventType = "logged_in"
	EventLoggedOut EventType = "logged_out"
	EventExpired   EventType = "expired"
)

// Event is delivered to subscribers on every session transition.
type Event struct {
	Type EventType
	At   time.Time
}

// Manager is the process-wide session context. The token is read from the
// store on every call and never cached.
type Manager struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewManager creates a session manager backed by store.
func NewManager(store Store, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		store: store,
		log:   log,
		now:   time.Now,
		subs:  make(map[int]chan Event),
	}
}

// CurrentToken returns the persisted token, or "" when there is none.
func (m *Manager) CurrentToken(ctx context.Context) (string, error) {
	token, err := m.store.Get(ctx, TokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}
	return token, nil
}

// IsAuthenticated reports whether a token is persisted. The server may still
// reject it.
func (m *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := m.CurrentToken(ctx)
	return token != "", err
}

// Login persists token and notifies subscribers.
func (m *Manager) Login(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if err := m.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	m.publish(EventLoggedIn)
	return nil
}

// Logout deletes the token. Safe to call when already logged out.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	m.publish(EventLoggedOut)
	return nil
}

// Invalidate deletes a token the server rejected. Without a stored token
// there is no session to expire, so nothing is logged or published.
func (m *Manager) Invalidate(ctx context.Context) error {
	if token, err := m.CurrentToken(ctx); err == nil && token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	m.log.Warn("Session expired, token cleared")
	m.publish(EventExpired)
	return nil
}

// ExpiresAt returns the exp claim of the token when it is a JWT carrying one.
// The signature is not checked; the result is informational only.
func (m *Manager) ExpiresAt(ctx context.Context) (time.Time, bool, error) {
	token, err := m.CurrentToken(ctx)
	if err != nil || token == "" {
		return time.Time{}, false, err
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}

// Subscribe registers for session events. Delivery never blocks: a
// subscriber whose buffer is full misses the event. The returned func
// unsubscribes and closes the channel.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publish(t EventType) {
	ev := Event{Type: t, At: m.now()}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			m.log.WithFields(logrus.Fields{"subscriber": id, "event": t}).Debug("Dropped session event for slow subscriber")
		}
	}
}

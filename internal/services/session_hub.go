package services

import (
	"context"
	"sync"
	"time"

	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/pkg/logger"
)

// SessionEvent is an auth state change for one user. Session is nil on sign-out.
type SessionEvent struct {
	Type    auth.Event    `json:"type"`
	UserID  string        `json:"user_id"`
	Session *auth.Session `json:"-"`
	At      time.Time     `json:"at"`
}

// EventBus carries session events between server instances.
type EventBus interface {
	Publish(ctx context.Context, event SessionEvent) error
}

// SessionHub fans session events out to per-user listeners.
type SessionHub struct {
	mu        sync.RWMutex
	listeners map[string]map[uint64]func(SessionEvent)
	nextID    uint64
	bus       EventBus
}

func NewSessionHub() *SessionHub {
	return &SessionHub{
		listeners: make(map[string]map[uint64]func(SessionEvent)),
	}
}

// SetBus routes Publish through bus; delivery then happens when the bus
// hands the event back via Deliver.
func (h *SessionHub) SetBus(bus EventBus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bus = bus
}

// Subscribe registers fn for userID's events. The returned func removes the
// listener and is safe to call more than once.
func (h *SessionHub) Subscribe(userID string, fn func(SessionEvent)) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.listeners[userID] == nil {
		h.listeners[userID] = make(map[uint64]func(SessionEvent))
	}
	h.listeners[userID][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[userID], id)
			if len(h.listeners[userID]) == 0 {
				delete(h.listeners, userID)
			}
		})
	}
}

func (h *SessionHub) Publish(ctx context.Context, event SessionEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	bus := h.bus
	h.mu.RUnlock()

	if bus != nil {
		err := bus.Publish(ctx, event)
		if err == nil {
			return
		}
		logger.Warn().Err(err).Str("user_id", event.UserID).Msg("session bus publish failed, delivering locally")
	}
	h.Deliver(event)
}

// Deliver invokes the local listeners of event.UserID outside the lock.
func (h *SessionHub) Deliver(event SessionEvent) {
	h.mu.RLock()
	fns := make([]func(SessionEvent), 0, len(h.listeners[event.UserID]))
	for _, fn := range h.listeners[event.UserID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

// ListenerCount returns the number of registered listeners across all users.
func (h *SessionHub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, byID := range h.listeners {
		n += len(byID)
	}
	return n
}

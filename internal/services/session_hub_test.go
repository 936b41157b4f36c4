package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/huangang/projectdesk/internal/auth"
)

type failingBus struct{ calls int }

func (b *failingBus) Publish(ctx context.Context, event SessionEvent) error {
	b.calls++
	return errors.New("bus down")
}

type capturingBus struct{ events []SessionEvent }

func (b *capturingBus) Publish(ctx context.Context, event SessionEvent) error {
	b.events = append(b.events, event)
	return nil
}

func TestSessionHub_DeliversPerUser(t *testing.T) {
	hub := NewSessionHub()
	var ana, beto []SessionEvent
	hub.Subscribe("ana", func(e SessionEvent) { ana = append(ana, e) })
	hub.Subscribe("beto", func(e SessionEvent) { beto = append(beto, e) })

	hub.Publish(context.Background(), SessionEvent{Type: auth.EventSignedIn, UserID: "ana"})

	if len(ana) != 1 || len(beto) != 0 {
		t.Fatalf("ana=%d beto=%d", len(ana), len(beto))
	}
	if ana[0].At.IsZero() {
		t.Error("Publish should stamp the event time")
	}
}

func TestSessionHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewSessionHub()
	unsubscribe := hub.Subscribe("ana", func(SessionEvent) {})
	hub.Subscribe("ana", func(SessionEvent) {})

	if got := hub.ListenerCount(); got != 2 {
		t.Fatalf("ListenerCount() = %d, want 2", got)
	}
	unsubscribe()
	unsubscribe()
	if got := hub.ListenerCount(); got != 1 {
		t.Errorf("ListenerCount() = %d, want 1", got)
	}
}

func TestSessionHub_ListenerMayUnsubscribeItself(t *testing.T) {
	hub := NewSessionHub()
	calls := 0
	var unsubscribe func()
	unsubscribe = hub.Subscribe("ana", func(SessionEvent) {
		calls++
		unsubscribe()
	})

	hub.Publish(context.Background(), SessionEvent{Type: auth.EventSignedOut, UserID: "ana"})
	hub.Publish(context.Background(), SessionEvent{Type: auth.EventSignedOut, UserID: "ana"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSessionHub_Bus(t *testing.T) {
	t.Run("routes through bus", func(t *testing.T) {
		hub := NewSessionHub()
		bus := &capturingBus{}
		hub.SetBus(bus)
		delivered := 0
		hub.Subscribe("ana", func(SessionEvent) { delivered++ })

		hub.Publish(context.Background(), SessionEvent{Type: auth.EventSignedIn, UserID: "ana"})

		if len(bus.events) != 1 || delivered != 0 {
			t.Errorf("bus=%d delivered=%d; delivery belongs to the bus", len(bus.events), delivered)
		}
	})

	t.Run("falls back to local delivery", func(t *testing.T) {
		hub := NewSessionHub()
		bus := &failingBus{}
		hub.SetBus(bus)
		delivered := 0
		hub.Subscribe("ana", func(SessionEvent) { delivered++ })

		hub.Publish(context.Background(), SessionEvent{Type: auth.EventSignedIn, UserID: "ana"})

		if bus.calls != 1 || delivered != 1 {
			t.Errorf("bus calls=%d delivered=%d", bus.calls, delivered)
		}
	})
}

func TestSessionHub_ConcurrentUse(t *testing.T) {
	hub := NewSessionHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsubscribe := hub.Subscribe("ana", func(SessionEvent) {})
			hub.Publish(context.Background(), SessionEvent{Type: auth.EventTokenRefreshed, UserID: "ana"})
			unsubscribe()
		}()
	}
	wg.Wait()

	if got := hub.ListenerCount(); got != 0 {
		t.Errorf("ListenerCount() = %d, want 0", got)
	}
}

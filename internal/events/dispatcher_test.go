package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestQueuedDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewQueuedDispatcher(8, zap.NewNop())
	ctx := context.Background()

	var mu sync.Mutex
	var got []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
		return nil
	})

	d.Start(ctx)
	_ = d.Publish(ctx, Event{ID: "e1", Type: EventTicketCreated, TicketID: "t1", Timestamp: time.Now()})
	_ = d.Publish(ctx, Event{ID: "e2", Type: EventTicketClosed, TicketID: "t1", Timestamp: time.Now()})
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("expected exactly the subscribed event, got %+v", got)
	}
}

func TestQueuedDispatcherDropsWhenFull(t *testing.T) {
	d := NewQueuedDispatcher(1, zap.NewNop())
	ctx := context.Background()
	// not started: queue never drains
	_ = d.Publish(ctx, Event{ID: "e1", Type: EventTicketCreated})
	_ = d.Publish(ctx, Event{ID: "e2", Type: EventTicketCreated})

	var count int
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		count++
		return nil
	})
	d.Start(ctx)
	d.Close()
	if count != 1 {
		t.Fatalf("expected overflow event to be dropped, delivered %d", count)
	}
}

func TestInMemoryDispatcherIsSynchronous(t *testing.T) {
	d := NewInMemoryDispatcher()
	var fired bool
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		fired = true
		return nil
	})
	_ = d.Publish(context.Background(), Event{Type: EventTicketEscalated})
	if !fired {
		t.Fatalf("expected handler to run before Publish returned")
	}
}

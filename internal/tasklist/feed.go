package tasklist

import (
	"context"
	"strings"
	"sync"

	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/domain"
)

// Subscription is one live snapshot stream.
type Subscription interface {
	Snapshots() <-chan []domain.Task
	Close()
}

// Subscriber opens owner-scoped subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, ownerID string) (Subscription, error)

// Subscribe calls f.
func (f SubscriberFunc) Subscribe(ctx context.Context, ownerID string) (Subscription, error) {
	return f(ctx, ownerID)
}

// StoreSubscriber adapts the task store to Subscriber.
func StoreSubscriber(store *app.TaskStore) Subscriber {
	return SubscriberFunc(func(ctx context.Context, ownerID string) (Subscription, error) {
		sub, err := store.Subscribe(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return sub, nil
	})
}

// Binding describes the feed's current subscription. Generation grows on
// every rebind and close, so deliveries from older bindings can be dropped.
type Binding struct {
	Generation uint64
	OwnerID    string
	Snapshots  <-chan []domain.Task
}

// Feed keeps at most one open subscription, bound to the current identity.
type Feed struct {
	subscriber Subscriber

	mu         sync.Mutex
	ownerID    string
	sub        Subscription
	generation uint64
}

// NewFeed constructs a new value for this package.
func NewFeed(subscriber Subscriber) *Feed {
	return &Feed{subscriber: subscriber}
}

// Bind points the feed at ownerID. Binding the already-bound owner keeps the
// open subscription and reports changed=false; any other owner closes the old
// subscription first.
func (f *Feed) Bind(ctx context.Context, ownerID string) (Binding, bool, error) {
	ownerID = strings.TrimSpace(ownerID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub != nil && f.ownerID == ownerID {
		return f.bindingLocked(), false, nil
	}
	f.closeLocked()
	if ownerID == "" {
		return Binding{}, true, domain.ErrInvalidOwner
	}

	sub, err := f.subscriber.Subscribe(ctx, ownerID)
	if err != nil {
		return Binding{}, true, err
	}
	f.ownerID = ownerID
	f.sub = sub
	return f.bindingLocked(), true, nil
}

// Current returns the open binding when one exists.
func (f *Feed) Current() (Binding, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub == nil {
		return Binding{}, false
	}
	return f.bindingLocked(), true
}

// Generation returns the current binding generation.
func (f *Feed) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation
}

// Close tears the open subscription down. Safe to call more than once.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *Feed) closeLocked() {
	f.generation++
	if f.sub == nil {
		return
	}
	sub := f.sub
	f.sub = nil
	f.ownerID = ""
	sub.Close()
}

func (f *Feed) bindingLocked() Binding {
	return Binding{
		Generation: f.generation,
		OwnerID:    f.ownerID,
		Snapshots:  f.sub.Snapshots(),
	}
}

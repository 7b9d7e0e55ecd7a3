package app

import (
	"sync"

	"github.com/google/uuid"
)

// changeBroadcaster fans owner-scoped change notifications out to live
// subscriptions in this process. Notifications carry no payload: receivers
// re-read the full snapshot, so coalescing pending signals loses nothing.
type changeBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan struct{} // ownerID -> subID -> ch
}

// newChangeBroadcaster constructs an empty broadcaster.
func newChangeBroadcaster() *changeBroadcaster {
	return &changeBroadcaster{
		subscribers: make(map[string]map[string]chan struct{}),
	}
}

// Subscribe registers for change notifications of one owner. The returned func
// unregisters and is safe to call more than once.
func (b *changeBroadcaster) Subscribe(ownerID string) (<-chan struct{}, func()) {
	subID := uuid.NewString()
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if _, ok := b.subscribers[ownerID]; !ok {
		b.subscribers[ownerID] = make(map[string]chan struct{})
	}
	b.subscribers[ownerID][subID] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.unsubscribe(ownerID, subID)
		})
	}
}

// Publish signals every subscriber of the owner without blocking.
func (b *changeBroadcaster) Publish(ownerID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[ownerID] {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending; the receiver will re-read everything.
		}
	}
}

// subscriberCount reports live subscriptions for one owner.
func (b *changeBroadcaster) subscriberCount(ownerID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[ownerID])
}

func (b *changeBroadcaster) unsubscribe(ownerID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.subscribers[ownerID]
	if !ok {
		return
	}
	delete(subs, subID)
	if len(subs) == 0 {
		delete(b.subscribers, ownerID)
	}
}

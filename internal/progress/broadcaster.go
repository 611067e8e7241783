package progress

import (
	"sync"
	"time"
)

const subscriberBuffer = 16

// Broadcaster fans events out to per-user subscribers. Sends are non-blocking;
// a subscriber that falls behind loses events rather than stalling a run.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a listener for one user's events. The returned cancel
// function must be called to release the subscription.
func (b *Broadcaster) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// EmitAnalysisProgress pushes an analysis event to the user's subscribers.
func (b *Broadcaster) EmitAnalysisProgress(userID, workItemID string, event AnalysisEvent) {
	b.send(userID, Event{
		Type:       EventAnalysis,
		WorkItemID: workItemID,
		Analysis:   &event,
		At:         time.Now().UTC(),
	})
}

// EmitImplementationProgress pushes a generation event to the user's subscribers.
func (b *Broadcaster) EmitImplementationProgress(userID, workItemID string, event ImplementationEvent) {
	b.send(userID, Event{
		Type:           EventImplementation,
		WorkItemID:     workItemID,
		Implementation: &event,
		At:             time.Now().UTC(),
	})
}

func (b *Broadcaster) send(userID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}

var _ Notifier = (*Broadcaster)(nil)

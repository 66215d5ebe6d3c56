// Package progress fans chain events out to live observers. The API layer
// attaches websocket clients as subscribers; the chain controller is the
// only publisher.
package progress

import (
	"sync"
	"time"
)

// Event types published over the lifetime of a chain run.
const (
	EventChainStarted   = "chain_started"
	EventQuestionStart  = "question_started"
	EventAttemptResult  = "attempt_result"
	EventQuestionResult = "question_result"
	EventChainFinished  = "chain_finished"
)

// Event is one progress notification.
type Event struct {
	Type      string    `json:"type"`
	URL       string    `json:"url,omitempty"`
	Attempt   int       `json:"attempt,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Publisher is the side the chain controller sees.
type Publisher interface {
	Publish(e Event)
}

// subscriber buffer; a slow client drops events rather than stalling the
// chain.
const subscriberBuffer = 32

// Broker is an in-memory fan-out of Events to any number of subscribers.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: map[chan Event]struct{}{}}
}

// Subscribe registers a new observer. The returned cancel function must be
// called when the observer goes away.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers without blocking.
func (b *Broker) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// NopPublisher discards events; used where no observer transport exists.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

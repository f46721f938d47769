// Package realtime carries change notifications from the write paths to the
// realtime subscribers. Writes publish a topic; each subscription re-reads a
// full snapshot and delivers it wholesale, so subscribers never patch state
// incrementally.
package realtime

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ChatsTopic is the topic carrying chat-list changes for one aalim.
func ChatsTopic(aalimID string) string {
	return fmt.Sprintf("chats:%s", aalimID)
}

// MessagesTopic is the topic carrying message changes for one chat.
func MessagesTopic(chatID string) string {
	return fmt.Sprintf("messages:%s", chatID)
}

// Broker is an in-process topic fan-out.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscription is a cancellation handle for one topic subscription.
// State machine: Active → Cancelled, one-way. Cancel is idempotent and the
// cancelled latch is checked before every delivery, because a publish may be
// in flight when Cancel is called. deliverMu serializes deliveries against
// Cancel so that no delivery is still running once Cancel returns; deliver
// must therefore never call Cancel on its own handle.
type Subscription struct {
	broker    *Broker
	topic     string
	deliver   func()
	deliverMu sync.Mutex
	cancelled atomic.Bool
}

// Subscribe registers deliver for topic and returns the handle. deliver runs
// on the publisher's goroutine.
func (b *Broker) Subscribe(topic string, deliver func()) *Subscription {
	s := &Subscription{broker: b, topic: topic, deliver: deliver}
	b.mu.Lock()
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[topic] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Publish notifies every live subscription on topic.
func (b *Broker) Publish(topic string) {
	b.mu.RLock()
	set := make([]*Subscription, 0, len(b.subs[topic]))
	for s := range b.subs[topic] {
		set = append(set, s)
	}
	b.mu.RUnlock()

	for _, s := range set {
		s.deliverMu.Lock()
		if !s.cancelled.Load() {
			s.deliver()
		}
		s.deliverMu.Unlock()
	}
}

// Cancel detaches the subscription. No deliveries are observed after Cancel
// returns; calling it again is a no-op.
func (s *Subscription) Cancel() {
	if s == nil || !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	// wait out a delivery that was already past the latch check
	s.deliverMu.Lock()
	s.deliverMu.Unlock()
	s.broker.mu.Lock()
	if set, ok := s.broker.subs[s.topic]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(s.broker.subs, s.topic)
		}
	}
	s.broker.mu.Unlock()
}

// Cancelled reports whether the handle has been cancelled.
func (s *Subscription) Cancelled() bool {
	return s.cancelled.Load()
}

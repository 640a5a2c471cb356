package eventsink

import (
	"sync"

	"github.com/iotaledger/wallet.go/log"
)

var logger = log.NewModuleLogger(log.EventSink)

// Sink is the interface the Syncer and Transfer Builder emit events
// through (§6 "Event sink (produced)"). The Syncer emits its Event Diff
// under the account write lock after persistence (§4.7); the Transfer
// Builder emits TransferProgress events without holding the account lock.
type Sink interface {
	Emit(Event)
}

// Feed is the default in-process Sink: a fan-out channel broadcaster, the
// same "subscribe, get a channel, read until unsubscribed" shape the
// teacher's event.TypeMux gives worker.go's chain-head/tx subscriptions.
type Feed struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewFeed returns an empty event feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Event)}
}

// Subscription is a live registration on a Feed.
type Subscription struct {
	feed *Feed
	id   int
	ch   chan Event
}

// Events returns the channel new events arrive on.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Unsubscribe removes the registration and closes the channel.
func (s *Subscription) Unsubscribe() {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	if _, ok := s.feed.subs[s.id]; ok {
		delete(s.feed.subs, s.id)
		close(s.ch)
	}
}

// Subscribe registers a new listener with a buffered channel so Emit
// never blocks on a slow consumer for long; a full channel drops the
// event and logs, matching the teacher's "don't let one slow consumer
// stall the producer" stance in its event dispatch loops.
func (f *Feed) Subscribe(buffer int) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	ch := make(chan Event, buffer)
	f.subs[id] = ch
	return &Subscription{feed: f, id: id, ch: ch}
}

// Emit implements Sink.
func (f *Feed) Emit(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		select {
		case ch <- e:
		default:
			logger.Warn("dropping event for slow subscriber", "subscriber", id)
		}
	}
}

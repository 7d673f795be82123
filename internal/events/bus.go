// Package events is the typed notification bus between pollers and
// panel consumers. It replaces the browser build's ad hoc
// CustomEvent dispatch with explicit topics and payload shapes.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"signalpanel/internal/domain"
)

// Topic identifies an event stream.
type Topic string

const (
	TopicOpenTradesChanged   Topic = "open_trades_changed"
	TopicRecentTradesChanged Topic = "recent_trades_changed"
	TopicActiveSymbolChanged Topic = "active_symbol_changed"
	TopicLocaleModeChanged   Topic = "locale_mode_changed"
)

// Event carries one notification. Only the payload field matching
// the topic is set.
type Event struct {
	ID     string
	Topic  Topic
	Source string
	At     time.Time

	OpenTrades   []domain.OpenTrade
	RecentTrades []domain.ClosedTrade
	Symbol       string
	LocaleMode   domain.LocaleMode
}

// Handler consumes one event. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Bus is a minimal in-process publish/subscribe hub. Subscribe
// before publishing begins; subscription order is delivery order.
type Bus struct {
	mu        sync.RWMutex
	subs      map[Topic][]Handler
	published int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], h)
	b.mu.Unlock()
}

// Publish stamps and delivers an event to every subscriber of its
// topic, in subscription order.
func (b *Bus) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := b.subs[evt.Topic]
	b.mu.RUnlock()

	b.mu.Lock()
	b.published++
	b.mu.Unlock()

	for _, h := range handlers {
		h(evt)
	}
}

// Published returns how many events have been delivered, for tests
// and the status endpoint.
func (b *Bus) Published() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.published
}

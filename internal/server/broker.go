package server

import (
	"encoding/json"
	"sync"
)

// Event is the payload pushed to team subscribers: broadcasts, prize awards,
// game status flips, resets.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	Active    bool   `json:"active,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by chat id.
type Broker struct {
	mu   sync.RWMutex
	subs map[int64]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int64]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the chat.
func (b *Broker) Subscribe(chatID int64) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[chatID] == nil {
		b.subs[chatID] = make(map[chan []byte]struct{})
	}
	b.subs[chatID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the chat's subscribers.
func (b *Broker) Unsubscribe(chatID int64, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[chatID], ch)
	if len(b.subs[chatID]) == 0 {
		delete(b.subs, chatID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the chat. Delivery is
// best-effort: a slow subscriber drops the event rather than blocking the
// publisher.
func (b *Broker) Publish(chatID int64, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[chatID] {
		select {
		case ch <- data:
		default:
		}
	}
	b.mu.RUnlock()
}

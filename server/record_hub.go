package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/MANTRA-Chain/feemarket/audit"
)

// subscriberBufferSize is the number of records queued for a slow subscriber before
// new records are dropped for it.
const subscriberBufferSize = 64

// RecordHub fans the audited records out to the stream subscribers.
type RecordHub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan audit.Record
}

func NewRecordHub() *RecordHub {
	return &RecordHub{
		subscribers: make(map[uuid.UUID]chan audit.Record),
	}
}

// Subscribe registers a new subscriber, the channel is closed by Unsubscribe.
func (h *RecordHub) Subscribe() (uuid.UUID, <-chan audit.Record) {
	id := uuid.New()
	ch := make(chan audit.Record, subscriberBufferSize)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	return id, ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *RecordHub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, found := h.subscribers[id]; found {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish sends the record to every subscriber without blocking.
// It returns the number of subscribers the record was dropped for.
func (h *RecordHub) Publish(record audit.Record) (dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- record:
		default:
			dropped++
		}
	}
	return dropped
}

// Len returns the number of subscribers.
func (h *RecordHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

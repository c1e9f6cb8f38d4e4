package bus

import (
	"sync"

	"enbw-hass/internal/api"
)

// Bus provides fan-out pub/sub semantics for station snapshots. Each
// Subscribe call gets its own channel that receives every future publication.
// Past messages are not replayed. The implementation is safe for concurrent
// publishers and subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan *api.StationResponse
}

// New creates a ready-to-use Bus.
func New() *Bus { return &Bus{} }

// Subscribe returns a read-only channel that will receive all future station
// snapshots.
func (b *Bus) Subscribe() <-chan *api.StationResponse {
	ch := make(chan *api.StationResponse, 1) // small buffer avoids blocking
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers the snapshot to all subscribers in a best-effort,
// non-blocking way. A subscriber that has not drained its buffer skips this
// snapshot and picks up the next one.
func (b *Bus) Publish(s *api.StationResponse) {
	b.mu.RLock()
	subs := make([]chan *api.StationResponse, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

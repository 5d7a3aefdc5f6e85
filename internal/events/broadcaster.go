package events

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-seismic-sources/internal/compiler"
	"github.com/mr1hm/go-seismic-sources/internal/metrics"
)

// subscriberBuffer holds a few hundred outcomes, enough for a typical run.
const subscriberBuffer = 256

// Broadcaster fans outcome events out to live stream subscribers. A
// subscriber whose buffer is full misses the event; Seq and Total on each
// run's events let it notice the gap.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan *Event
	nextID      atomic.Uint64
	skipped     atomic.Uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *Event),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan *Event) {
	id := b.nextID.Add(1)
	ch := make(chan *Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// PublishRun sends one event per outcome of a run, in input order,
// numbered 1..len(outcomes). It returns the number of deliveries skipped
// because a subscriber was full.
func (b *Broadcaster) PublishRun(runID string, outcomes []compiler.Outcome) int {
	skipped := 0
	for i, o := range outcomes {
		e := FromOutcome(runID, o)
		e.Seq = i + 1
		e.Total = len(outcomes)
		skipped += b.Broadcast(e)
	}
	return skipped
}

// Broadcast delivers e to every subscriber that has room and returns how
// many were skipped.
func (b *Broadcaster) Broadcast(e *Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	skipped := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			skipped++
		}
	}
	if skipped > 0 {
		b.skipped.Add(uint64(skipped))
		metrics.EventsSkipped.Add(float64(skipped))
	}
	return skipped
}

// Skipped is the total number of deliveries lost to full subscribers.
func (b *Broadcaster) Skipped() uint64 { return b.skipped.Load() }

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close ends every stream.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

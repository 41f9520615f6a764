package reconcile

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/logger"
)

const defaultSubscriberBuffer = 64

// Filter selects the envelopes a subscriber receives. An empty filter matches everything.
type Filter struct {
	territoryIDs map[string]struct{}
	auctionIDs   map[string]struct{}
}

// NewFilter creates a filter on territory and auction ids
func NewFilter(territoryIDs, auctionIDs []string) Filter {
	f := Filter{
		territoryIDs: make(map[string]struct{}, len(territoryIDs)),
		auctionIDs:   make(map[string]struct{}, len(auctionIDs)),
	}
	for _, id := range territoryIDs {
		f.territoryIDs[id] = struct{}{}
	}
	for _, id := range auctionIDs {
		f.auctionIDs[id] = struct{}{}
	}
	return f
}

// Match reports whether the envelope passes the filter.
// Auction envelopes match on their territory as well as their own id.
func (f Filter) Match(env Envelope) bool {
	if len(f.territoryIDs) == 0 && len(f.auctionIDs) == 0 {
		return true
	}
	if _, ok := f.territoryIDs[env.TerritoryID]; ok {
		return true
	}
	if env.EntityType == EntityTypeAuction {
		_, ok := f.auctionIDs[env.ID]
		return ok
	}
	return false
}

// Subscription receives the envelopes of a Hub
type Subscription struct {
	id        uint64
	filter    Filter
	ch        chan Envelope
	hub       *Hub
	closeOnce sync.Once
	dropped   bool
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Envelope {
	return s.ch
}

// Dropped reports whether the hub ended the subscription because it fell behind
func (s *Subscription) Dropped() bool {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.dropped
}

// Close ends the subscription
func (s *Subscription) Close() {
	s.hub.remove(s, false)
}

// Hub fans envelopes out to in-process subscribers. Stale and duplicate
// envelopes are dropped at the boundary by the cache. A subscriber whose
// buffer is full is disconnected and must re-read on reconnect.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	cache  *Cache
	buffer int
}

// NewHub creates a hub that merges through the given cache
func NewHub(cache *Cache, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		cache:  cache,
		buffer: buffer,
	}
}

// Subscribe registers a subscriber
func (h *Hub) Subscribe(filter Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscription{
		id:     h.nextID,
		filter: filter,
		ch:     make(chan Envelope, h.buffer),
		hub:    h,
	}
	h.subs[s.id] = s
	return s
}

// Name implements Sink
func (h *Hub) Name() string {
	return "hub"
}

// Send implements Sink
func (h *Hub) Send(_ context.Context, env Envelope) error {
	h.Dispatch(env)
	return nil
}

// Dispatch delivers the envelope to matching subscribers.
// It returns false when the envelope was stale or already seen.
func (h *Hub) Dispatch(env Envelope) bool {
	// Merge under the hub lock so subscribers see versions in merge order
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.cache.Apply(env) {
		logger.Debug("Dropping stale delta",
			zap.String("entity", env.Key()),
			zap.Int64("version", env.Version))
		return false
	}

	for _, s := range h.subs {
		if !s.filter.Match(env) {
			continue
		}
		select {
		case s.ch <- env:
		default:
			logger.Warn("Disconnecting slow subscriber", zap.Uint64("subscriber", s.id))
			h.removeLocked(s, true)
		}
	}
	return true
}

// Subscribers returns the number of live subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		h.removeLocked(s, false)
	}
}

func (h *Hub) remove(s *Subscription, dropped bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s, dropped)
}

func (h *Hub) removeLocked(s *Subscription, dropped bool) {
	s.closeOnce.Do(func() {
		delete(h.subs, s.id)
		s.dropped = dropped
		close(s.ch)
	})
}

package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/events"
)

// SnapshotFunc builds the full-state snapshot event for a new subscriber.
type SnapshotFunc func() events.Event

// Subscription is a live feed of events for one connected client. The first
// event received is always a snapshot; deltas follow in publish order.
type Subscription struct {
	ID     string
	Events <-chan events.Event
}

type subscriber struct {
	id string
	ch chan events.Event
}

type attachRequest struct {
	reply chan Subscription
}

type directMessage struct {
	subscriberID string
	event        events.Event
}

// Hub fans registry events out to all connected subscribers. A single run
// loop owns the subscriber map, so snapshot delivery and delta ordering are
// serialized by construction: a subscriber can never observe a delta for an
// issue missing from its snapshot.
//
// Publish never blocks. Publishers call it while holding their own state
// locks, and the run loop re-enters that state through the snapshot func on
// attach; a bounded ingest channel would let the two sides wait on each
// other. Events land in an unbounded ordered queue instead and the run loop
// drains it between attach/detach work.
type Hub struct {
	logger   *zap.Logger
	snapshot SnapshotFunc
	bufSize  int

	mu      sync.Mutex
	pending []events.Event
	wake    chan struct{}

	attachCh chan attachRequest
	detachCh chan string
	directCh chan directMessage
	done     chan struct{}

	subscribers map[string]*subscriber
}

// New constructs a hub. bufSize is the per-subscriber delivery buffer; a
// subscriber that falls more than bufSize events behind is disconnected
// rather than allowed to stall or skip deltas.
func New(snapshot SnapshotFunc, bufSize int, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Hub{
		logger:      logger,
		snapshot:    snapshot,
		bufSize:     bufSize,
		wake:        make(chan struct{}, 1),
		attachCh:    make(chan attachRequest),
		detachCh:    make(chan string),
		directCh:    make(chan directMessage, bufSize),
		done:        make(chan struct{}),
		subscribers: make(map[string]*subscriber),
	}
}

// Run owns the subscriber map until ctx is cancelled. Must be started before
// any Attach or Publish call.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, sub := range h.subscribers {
				close(sub.ch)
			}
			h.subscribers = make(map[string]*subscriber)
			return
		case req := <-h.attachCh:
			sub := &subscriber{id: uuid.NewString(), ch: make(chan events.Event, h.bufSize)}
			if h.snapshot != nil {
				// the fresh buffer always has room for the snapshot
				sub.ch <- h.snapshot()
			}
			h.subscribers[sub.id] = sub
			h.logger.Info("subscriber attached", zap.String("subscriber_id", sub.id), zap.Int("total", len(h.subscribers)))
			req.reply <- Subscription{ID: sub.id, Events: sub.ch}
		case id := <-h.detachCh:
			h.remove(id, "detached")
		case msg := <-h.directCh:
			if sub, ok := h.subscribers[msg.subscriberID]; ok {
				h.deliver(sub, msg.event)
			}
		case <-h.wake:
			for _, ev := range h.drain() {
				for _, sub := range h.subscribers {
					h.deliver(sub, ev)
				}
			}
		}
	}
}

// Attach registers a new subscriber and returns its feed, snapshot first.
func (h *Hub) Attach() (Subscription, bool) {
	req := attachRequest{reply: make(chan Subscription, 1)}
	select {
	case h.attachCh <- req:
		return <-req.reply, true
	case <-h.done:
		return Subscription{}, false
	}
}

// Detach unsubscribes silently; registry state is unaffected.
func (h *Hub) Detach(id string) {
	select {
	case h.detachCh <- id:
	case <-h.done:
	}
}

// Publish queues an event for fan-out to every subscriber. Safe to call with
// arbitrary locks held; it only ever appends and returns.
func (h *Hub) Publish(ev events.Event) {
	select {
	case <-h.done:
		return
	default:
	}
	h.mu.Lock()
	h.pending = append(h.pending, ev)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// SendTo queues an event for a single subscriber (request-scoped replies).
func (h *Hub) SendTo(subscriberID string, ev events.Event) {
	select {
	case h.directCh <- directMessage{subscriberID: subscriberID, event: ev}:
	case <-h.done:
	}
}

func (h *Hub) drain() []events.Event {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()
	return pending
}

// deliver writes without blocking the loop. A full buffer means the
// subscriber cannot keep up; dropping single deltas would desync it, so the
// whole subscription is dropped instead. The client reconnects and receives
// a fresh snapshot.
func (h *Hub) deliver(sub *subscriber, ev events.Event) {
	select {
	case sub.ch <- ev:
	default:
		h.remove(sub.id, "backpressure")
	}
}

func (h *Hub) remove(id, reason string) {
	sub, ok := h.subscribers[id]
	if !ok {
		return
	}
	delete(h.subscribers, id)
	close(sub.ch)
	h.logger.Info("subscriber removed",
		zap.String("subscriber_id", id),
		zap.String("reason", reason),
		zap.Int("total", len(h.subscribers)))
}

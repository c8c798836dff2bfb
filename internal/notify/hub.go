package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// DefaultBufferSize is the per-subscription buffer used when none is set.
const DefaultBufferSize = 16

// ErrHubClosed is returned by Publish and Subscribe after Close.
var ErrHubClosed = errors.New("notify: hub closed")

// Subscription receives the messages of one room.
type Subscription struct {
	room string
	ch   chan *domain.Message
	hub  *Hub
}

// Room returns the subscribed room.
func (s *Subscription) Room() string { return s.room }

// C returns the delivery channel. It is closed when the subscription or
// the hub is closed.
func (s *Subscription) C() <-chan *domain.Message { return s.ch }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub is a room-based, best-effort message fan-out.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	closed bool

	bufferSize int
	subs       atomic.Int64
	dropped    atomic.Uint64
	published  atomic.Uint64

	logger *slog.Logger
}

// NewHub creates a hub. bufferSize <= 0 selects DefaultBufferSize.
func NewHub(bufferSize int, logger *slog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]map[*Subscription]struct{}),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe joins room.
func (h *Hub) Subscribe(room string) (*Subscription, error) {
	if room == "" {
		return nil, domain.ErrMissingArgument.WithDetails("room is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &Subscription{
		room: room,
		ch:   make(chan *domain.Message, h.bufferSize),
		hub:  h,
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Subscription]struct{})
		h.rooms[room] = members
	}
	members[sub] = struct{}{}
	h.subs.Add(1)
	return sub, nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[sub.room]
	if !ok {
		return
	}
	if _, ok := members[sub]; ok {
		delete(members, sub)
		h.subs.Add(-1)
		close(sub.ch)
	}
	if len(members) == 0 {
		delete(h.rooms, sub.room)
	}
}

// Publish delivers msg to every subscriber of room without blocking.
// A room without subscribers is not an error.
func (h *Hub) Publish(ctx context.Context, room string, msg *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	h.published.Add(1)
	for sub := range h.rooms[room] {
		select {
		case sub.ch <- msg:
		default:
			h.dropped.Add(1)
			h.logger.Warn("notification dropped for slow subscriber",
				"room", room,
				"type", msg.Type)
		}
	}
	return nil
}

// Close closes every subscription and rejects further use.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for room, members := range h.rooms {
		for sub := range members {
			close(sub.ch)
		}
		delete(h.rooms, room)
	}
	h.subs.Store(0)
}

// Rooms returns the number of rooms with at least one subscriber.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int { return int(h.subs.Load()) }

// Dropped returns the number of messages dropped for slow subscribers.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Published returns the number of Publish calls accepted.
func (h *Hub) Published() uint64 { return h.published.Load() }

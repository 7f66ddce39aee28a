// Package broadcast рассылает события подписчикам, сгруппированным по комнатам.
//
// Доставка best-effort: Publish никогда не блокируется. У каждого подписчика
// свой буфер; если он заполнен, событие для этого подписчика отбрасывается.
package broadcast

import (
	"sync"
	"sync/atomic"
	"taskPlanner/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultBufferSize = 64

type Hub struct {
	mtx     sync.RWMutex
	rooms   map[string]map[*Subscription]struct{}
	buffer  int
	dropped atomic.Int64
	closed  bool
}

type Subscription struct {
	ID     string
	hub    *Hub
	events chan Event
	rooms  map[string]struct{} // под hub.mtx
	closed bool                // под hub.mtx
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		rooms:  make(map[string]map[*Subscription]struct{}),
		buffer: bufferSize,
	}
}

func (h *Hub) Subscribe(rooms ...string) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		hub:    h,
		events: make(chan Event, h.buffer),
		rooms:  make(map[string]struct{}),
	}

	h.mtx.Lock()
	defer h.mtx.Unlock()

	if h.closed {
		sub.closed = true
		close(sub.events)
		return sub
	}

	for _, room := range rooms {
		h.joinLocked(sub, room)
	}
	logger.Debug("Broadcast: Новый подписчик",
		zap.String("subscription_id", sub.ID),
		zap.Strings("rooms", rooms))
	return sub
}

// Publish реализует fire-and-forget: медленный подписчик теряет событие,
// а не задерживает публикующего
func (h *Hub) Publish(room, event string, payload any) {
	ev := Event{Room: room, Name: event, Data: payload}

	h.mtx.RLock()
	defer h.mtx.RUnlock()

	for sub := range h.rooms[room] {
		select {
		case sub.events <- ev:
		default:
			h.dropped.Add(1)
			logger.Warn("Broadcast: Буфер подписчика переполнен, событие отброшено",
				zap.String("subscription_id", sub.ID),
				zap.String("room", room),
				zap.String("event", event))
		}
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close отключает всех подписчиков, дальнейшие Publish ничего не делают
func (h *Hub) Close() {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	subs := make(map[*Subscription]struct{})
	for _, members := range h.rooms {
		for sub := range members {
			subs[sub] = struct{}{}
		}
	}
	for sub := range subs {
		h.closeLocked(sub)
	}
	h.rooms = make(map[string]map[*Subscription]struct{})
	logger.Info("Broadcast: Все подписчики отключены", zap.Int("subscribers", len(subs)))
}

func (h *Hub) joinLocked(sub *Subscription, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Subscription]struct{})
		h.rooms[room] = members
	}
	members[sub] = struct{}{}
	sub.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(sub *Subscription, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(sub.rooms, room)
}

func (h *Hub) closeLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	for room := range sub.rooms {
		h.leaveLocked(sub, room)
	}
	sub.closed = true
	close(sub.events)
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Join(room string) {
	s.hub.mtx.Lock()
	defer s.hub.mtx.Unlock()
	if s.closed {
		return
	}
	s.hub.joinLocked(s, room)
}

func (s *Subscription) Leave(room string) {
	s.hub.mtx.Lock()
	defer s.hub.mtx.Unlock()
	s.hub.leaveLocked(s, room)
}

func (s *Subscription) Rooms() []string {
	s.hub.mtx.RLock()
	defer s.hub.mtx.RUnlock()

	res := make([]string, 0, len(s.rooms))
	for room := range s.rooms {
		res = append(res, room)
	}
	return res
}

func (s *Subscription) Close() {
	s.hub.mtx.Lock()
	defer s.hub.mtx.Unlock()
	s.hub.closeLocked(s)
}

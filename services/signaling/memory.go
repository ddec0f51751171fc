package signaling

import (
	"context"
	"sync"
	"time"
)

// MemoryHub is an in-process MessageChannel and PresenceTracker. Every
// subscriber of a room receives every message in publish order.
type MemoryHub struct {
	mu       sync.Mutex
	subs     map[string]map[*memorySub]struct{}
	presence map[string][]PresenceEntry
	watchers map[string]map[chan struct{}]struct{}
	now      func() time.Time
}

var (
	_ MessageChannel  = (*MemoryHub)(nil)
	_ PresenceTracker = (*MemoryHub)(nil)
)

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		subs:     map[string]map[*memorySub]struct{}{},
		presence: map[string][]PresenceEntry{},
		watchers: map[string]map[chan struct{}]struct{}{},
		now:      time.Now,
	}
}

func (h *MemoryHub) Publish(_ context.Context, roomID string, raw []byte) error {
	msg := append([]byte(nil), raw...)
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[roomID] {
		s.enqueue(msg)
	}
	return nil
}

func (h *MemoryHub) Subscribe(_ context.Context, roomID string) (Subscription, error) {
	s := &memorySub{
		out:    make(chan []byte),
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	s.detach = func() {
		h.mu.Lock()
		delete(h.subs[roomID], s)
		h.mu.Unlock()
	}
	h.mu.Lock()
	if h.subs[roomID] == nil {
		h.subs[roomID] = map[*memorySub]struct{}{}
	}
	h.subs[roomID][s] = struct{}{}
	h.mu.Unlock()

	go s.pump()
	return s, nil
}

func (h *MemoryHub) Track(_ context.Context, roomID, identity string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.presence[roomID] {
		if e.Identity == identity {
			return nil
		}
	}
	h.presence[roomID] = append(h.presence[roomID], PresenceEntry{Identity: identity, JoinedAt: h.now()})
	h.notifyLocked(roomID)
	return nil
}

func (h *MemoryHub) Untrack(_ context.Context, roomID, identity string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.presence[roomID]
	for i, e := range entries {
		if e.Identity == identity {
			h.presence[roomID] = append(entries[:i:i], entries[i+1:]...)
			h.notifyLocked(roomID)
			break
		}
	}
	if len(h.presence[roomID]) == 0 {
		delete(h.presence, roomID)
	}
	return nil
}

func (h *MemoryHub) State(_ context.Context, roomID string) ([]PresenceEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]PresenceEntry{}, h.presence[roomID]...), nil
}

func (h *MemoryHub) Watch(_ context.Context, roomID string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	if h.watchers[roomID] == nil {
		h.watchers[roomID] = map[chan struct{}]struct{}{}
	}
	h.watchers[roomID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.watchers[roomID], ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

func (h *MemoryHub) notifyLocked(roomID string) {
	for ch := range h.watchers[roomID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// memorySub buffers without bound so a slow reader never blocks publishers.
type memorySub struct {
	mu     sync.Mutex
	queue  [][]byte
	out    chan []byte
	wake   chan struct{}
	closed chan struct{}
	once   sync.Once
	detach func()
}

func (s *memorySub) enqueue(msg []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *memorySub) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		var next []byte
		ok := len(s.queue) > 0
		if ok {
			next = s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.closed:
				return
			}
		}
		select {
		case s.out <- next:
		case <-s.closed:
			return
		}
	}
}

func (s *memorySub) Messages() <-chan []byte { return s.out }

func (s *memorySub) Close() error {
	s.once.Do(func() {
		s.detach()
		close(s.closed)
	})
	return nil
}

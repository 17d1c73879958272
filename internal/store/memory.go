package store

import (
	"sort"
	"sync"
)

// Hub is an in-process shared medium. Each call to Context returns a
// MemoryStore handle that behaves like a separate window: its writes notify
// every other handle's subscribers, never its own.
type Hub struct {
	mu      sync.RWMutex
	data    map[string][]byte
	subs    map[int]*memorySub
	nextSub int
	nextCtx int
	// failWrites, when set, makes every Write fail with it.
	failWrites error
}

type memorySub struct {
	ctx int
	key string
	fn  ChangeHandler
}

// NewHub creates an empty shared medium.
func NewHub() *Hub {
	return &Hub{
		data: make(map[string][]byte),
		subs: make(map[int]*memorySub),
	}
}

// Context returns a new store handle bound to a fresh context.
func (h *Hub) Context() *MemoryStore {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextCtx++
	return &MemoryStore{hub: h, ctx: h.nextCtx}
}

// FailWrites makes subsequent writes from any context return err. Pass nil
// to restore normal behavior.
func (h *Hub) FailWrites(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failWrites = err
}

// Keys returns the stored keys in sorted order.
func (h *Hub) Keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.data))
	for k := range h.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MemoryStore is one context's view of a Hub.
type MemoryStore struct {
	hub *Hub
	ctx int
}

var _ Store = (*MemoryStore)(nil)

// Read returns a copy of the stored value.
func (m *MemoryStore) Read(key string) ([]byte, bool, error) {
	m.hub.mu.RLock()
	defer m.hub.mu.RUnlock()
	v, ok := m.hub.data[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

// Write stores a copy of value and notifies other contexts.
func (m *MemoryStore) Write(key string, value []byte) error {
	m.hub.mu.Lock()
	if m.hub.failWrites != nil {
		err := m.hub.failWrites
		m.hub.mu.Unlock()
		return err
	}
	if value == nil {
		value = []byte{}
	}
	m.hub.data[key] = cloneBytes(value)
	targets := m.hub.subscribersLocked(key, m.ctx)
	m.hub.mu.Unlock()

	for _, fn := range targets {
		go fn(key, cloneBytes(value))
	}
	return nil
}

// Clear removes every key and notifies other contexts of each removal.
func (m *MemoryStore) Clear() error {
	m.hub.mu.Lock()
	removed := make([]string, 0, len(m.hub.data))
	for k := range m.hub.data {
		removed = append(removed, k)
	}
	m.hub.data = make(map[string][]byte)
	type delivery struct {
		key string
		fn  ChangeHandler
	}
	var deliveries []delivery
	for _, k := range removed {
		for _, fn := range m.hub.subscribersLocked(k, m.ctx) {
			deliveries = append(deliveries, delivery{key: k, fn: fn})
		}
	}
	m.hub.mu.Unlock()

	for _, d := range deliveries {
		go d.fn(d.key, nil)
	}
	return nil
}

// OnExternalChange subscribes fn to writes of key from other contexts.
func (m *MemoryStore) OnExternalChange(key string, fn ChangeHandler) func() {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	m.hub.nextSub++
	id := m.hub.nextSub
	m.hub.subs[id] = &memorySub{ctx: m.ctx, key: key, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.hub.mu.Lock()
			delete(m.hub.subs, id)
			m.hub.mu.Unlock()
		})
	}
}

// subscribersLocked returns handlers for key owned by contexts other than
// writer. The caller must hold h.mu.
func (h *Hub) subscribersLocked(key string, writer int) []ChangeHandler {
	var out []ChangeHandler
	for _, s := range h.subs {
		if s.key == key && s.ctx != writer {
			out = append(out, s.fn)
		}
	}
	return out
}

package store

import (
	"bytes"
	"log/slog"
	"sync"
	"time"
)

// fetchFunc reads the current value of a key from a backend.
type fetchFunc func(key string) ([]byte, bool, error)

type pollSub struct {
	key string
	fn  ChangeHandler
}

type pollState struct {
	value []byte
	ok    bool
	gen   uint64
}

// poller turns a backend without native notifications into one with
// OnExternalChange semantics. Writes made through the owning store are
// recorded with noteWrite so they never reach local handlers.
type poller struct {
	fetch    fetchFunc
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	subs    map[int]pollSub
	nextID  int
	seen    map[string]*pollState
	stop    chan struct{}
	running bool
}

func newPoller(fetch fetchFunc, interval time.Duration, logger *slog.Logger) *poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &poller{
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		subs:     make(map[int]pollSub),
		seen:     make(map[string]*pollState),
	}
}

// noteWrite records a value written by the owning context.
func (p *poller) noteWrite(key string, value []byte, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.stateLocked(key)
	st.value = cloneBytes(value)
	st.ok = ok
	st.gen++
}

// noteClear records that the owning context removed every key.
func (p *poller) noteClear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, st := range p.seen {
		st.value = nil
		st.ok = false
		st.gen++
	}
}

func (p *poller) stateLocked(key string) *pollState {
	st, ok := p.seen[key]
	if !ok {
		st = &pollState{}
		p.seen[key] = st
	}
	return st
}

func (p *poller) subscribe(key string, fn ChangeHandler) func() {
	p.mu.Lock()
	_, primed := p.seen[key]
	p.mu.Unlock()

	// Prime the baseline so a value present before subscribing is not
	// reported as a change.
	if !primed {
		v, ok, err := p.fetch(key)
		if err == nil {
			p.mu.Lock()
			if _, exists := p.seen[key]; !exists {
				p.seen[key] = &pollState{value: v, ok: ok}
			}
			p.mu.Unlock()
		}
	}

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[id] = pollSub{key: key, fn: fn}
	if !p.running {
		p.running = true
		p.stop = make(chan struct{})
		go p.loop(p.stop)
	}
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			if len(p.subs) == 0 && p.running {
				close(p.stop)
				p.running = false
			}
		})
	}
}

// close stops the polling goroutine regardless of subscribers.
func (p *poller) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		close(p.stop)
		p.running = false
	}
	p.subs = make(map[int]pollSub)
}

func (p *poller) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *poller) pollOnce() {
	p.mu.Lock()
	keys := make(map[string]uint64)
	for _, s := range p.subs {
		keys[s.key] = p.stateLocked(s.key).gen
	}
	p.mu.Unlock()

	for key, gen := range keys {
		v, ok, err := p.fetch(key)
		if err != nil {
			p.logger.Debug("store poll failed", "key", key, "error", err)
			continue
		}

		p.mu.Lock()
		st := p.stateLocked(key)
		// A local write landed while fetching; its value is authoritative
		// for this round.
		if st.gen != gen || (st.ok == ok && bytes.Equal(st.value, v)) {
			p.mu.Unlock()
			continue
		}
		st.value = cloneBytes(v)
		st.ok = ok
		var handlers []ChangeHandler
		for _, s := range p.subs {
			if s.key == key {
				handlers = append(handlers, s.fn)
			}
		}
		p.mu.Unlock()

		var delivered []byte
		if ok {
			delivered = v
		}
		for _, fn := range handlers {
			fn(key, cloneBytes(delivered))
		}
	}
}

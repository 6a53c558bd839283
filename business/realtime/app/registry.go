package app

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/fd1az/nexus-dashboard/business/realtime/domain"
)

// Handler receives a topic payload. The payload is shared between handlers
// and must not be modified. Handlers run on the publishing goroutine and
// may publish again, including to their own topic.
type Handler func(payload json.RawMessage)

type registration struct {
	id      uint64
	topic   domain.Topic
	handler Handler
	active  atomic.Bool
	version atomic.Uint64 // last delivered publish version
}

// deliver calls the handler unless the registration was disposed or already
// saw a newer payload. No lock is held while the handler runs.
func (r *registration) deliver(payload json.RawMessage, version uint64) {
	for {
		seen := r.version.Load()
		if !r.active.Load() || version <= seen {
			return
		}
		if r.version.CompareAndSwap(seen, version) {
			break
		}
	}
	r.handler(payload)
}

type cachedPayload struct {
	payload json.RawMessage
	version uint64
}

// registry maps topics to handlers and caches the last payload per topic.
type registry struct {
	mu      sync.Mutex
	nextID  uint64
	version uint64
	subs    map[domain.Topic]map[uint64]*registration
	cache   map[domain.Topic]cachedPayload
}

func newRegistry() *registry {
	return &registry{
		subs:  make(map[domain.Topic]map[uint64]*registration),
		cache: make(map[domain.Topic]cachedPayload),
	}
}

// subscribe registers h and replays the cached payload, if any, before
// returning.
func (r *registry) subscribe(topic domain.Topic, h Handler) func() {
	r.mu.Lock()
	r.nextID++
	reg := &registration{id: r.nextID, topic: topic, handler: h}
	reg.active.Store(true)
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[uint64]*registration)
	}
	r.subs[topic][reg.id] = reg
	cached, ok := r.cache[topic]
	r.mu.Unlock()

	if ok {
		reg.deliver(cached.payload, cached.version)
	}

	return func() { r.remove(reg) }
}

func (r *registry) remove(reg *registration) {
	if !reg.active.Swap(false) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs[reg.topic], reg.id)
	if len(r.subs[reg.topic]) == 0 {
		delete(r.subs, reg.topic)
	}
}

// publish caches payload for topic and fans it out.
func (r *registry) publish(topic domain.Topic, payload json.RawMessage) int {
	r.mu.Lock()
	r.version++
	version := r.version
	r.cache[topic] = cachedPayload{payload: payload, version: version}
	regs := make([]*registration, 0, len(r.subs[topic]))
	for _, reg := range r.subs[topic] {
		regs = append(regs, reg)
	}
	r.mu.Unlock()

	for _, reg := range regs {
		reg.deliver(payload, version)
	}
	return len(regs)
}

// cached returns the last payload for topic.
func (r *registry) cached(topic domain.Topic) (json.RawMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cache[topic]
	return c.payload, ok
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, regs := range r.subs {
		n += len(regs)
	}
	return n
}

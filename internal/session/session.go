// Package session carries per-session state explicitly: who is calling, in
// which language, and which subscribers want to hear about results. Nothing
// here is process-global; concurrent sessions share at most a Registry the
// host created and passed in.
package session

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/valpere/lexpure/internal/script"
)

type EventKind string

const (
	EventPurified      EventKind = "purified"
	EventFragmentFixed EventKind = "fragment_fixed"
)

// Event is published after a request completes or a fragment is rewritten.
type Event struct {
	Kind       EventKind       `json:"kind"`
	SessionID  string          `json:"session_id,omitempty"`
	Language   script.Language `json:"language"`
	Path       string          `json:"path,omitempty"`
	Score      float64         `json:"score"`
	FragmentID string          `json:"fragment_id,omitempty"`
	Text       string          `json:"text"`
}

// Subscriber is called synchronously from Notify and must not block.
type Subscriber func(Event)

// Registry is a set of subscribers. The zero value is not usable; a nil
// *Registry accepts Notify and drops the event.
type Registry struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]Subscriber
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[uint64]Subscriber)}
}

// Subscribe adds fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (r *Registry) Subscribe(fn Subscriber) (unsubscribe func()) {
	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// Notify delivers e to every subscriber in subscription order.
func (r *Registry) Notify(e Event) {
	if r == nil {
		return
	}
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Subscriber, len(ids))
	for i, id := range ids {
		fns[i] = r.subs[id]
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Len returns the number of subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Session lives from the start to the end of a user session.
type Session struct {
	ID       string
	Caller   any // opaque value from the host's authorization layer
	Language script.Language

	registry *Registry

	mu     sync.Mutex
	unsubs []func()
	closed bool
}

// New starts a session publishing to reg, which may be nil.
func New(reg *Registry, lang script.Language, caller any) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Caller:   caller,
		Language: lang,
		registry: reg,
	}
}

// Registry returns the registry the session publishes to.
func (s *Session) Registry() *Registry { return s.registry }

// Subscribe registers fn for the lifetime of the session.
func (s *Session) Subscribe(fn Subscriber) {
	if s.registry == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.unsubs = append(s.unsubs, s.registry.Subscribe(fn))
}

// Notify stamps e with the session id and publishes it.
func (s *Session) Notify(e Event) {
	e.SessionID = s.ID
	s.registry.Notify(e)
}

// Close removes every subscriber the session added.
func (s *Session) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.closed = true
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

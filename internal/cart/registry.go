package cart

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultSessionTTL is how long an idle session cart is kept.
const DefaultSessionTTL = 24 * time.Hour

type session struct {
	cart     *Cart
	lastSeen time.Time
}

// Registry maps browser session ids to their carts.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

// NewRegistry creates an empty registry whose carts expire after ttl of inactivity.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
}

// Get returns the cart for sessionID. An empty or unknown id starts a new session; the id
// actually in use is returned so the caller can hand it back to the browser.
func (r *Registry) Get(sessionID string) (string, *Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if s, ok := r.sessions[sessionID]; ok && sessionID != "" {
		s.lastSeen = now
		return sessionID, s.cart
	}
	id := r.newID()
	c := New()
	r.sessions[id] = &session{cart: c, lastSeen: now}
	return id, c
}

// Lookup returns the cart of an existing session without creating one or touching its
// expiry.
func (r *Registry) Lookup(sessionID string) (*Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s.cart, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

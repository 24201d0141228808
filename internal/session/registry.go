// Package session keeps active model conversations alive between the
// analysis call and a later pose-refinement call. Sessions are keyed by an
// opaque token issued at analysis time; the refinement request must present
// the token to resume the exact conversation, since the provider's context
// window is what remembers the analyzed image.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/poselens/poselens/internal/chat"
)

// DefaultTTL is how long an unused session stays resumable.
const DefaultTTL = 10 * time.Minute

type entry struct {
	sess    *chat.Session
	created time.Time
}

// Registry is a concurrency-safe keyed store of conversation sessions with
// time-based expiry. Entries are evicted lazily on Get and in bulk by Sweep.
type Registry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*entry
}

// NewRegistry creates a registry whose sessions expire after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		ttl:     ttl,
		entries: make(map[string]*entry),
	}
}

// Put stores the session under a freshly issued token and returns the token.
func (r *Registry) Put(sess *chat.Session) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{sess: sess, created: time.Now()}
	return id
}

// Get returns the session for id, or false when the id is unknown or the
// session has expired. Expired entries are removed on the spot.
func (r *Registry) Get(id string) (*chat.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	if time.Since(e.created) > r.ttl {
		delete(r.entries, id)
		return nil, false
	}
	return e.sess, true
}

// Sweep evicts every expired session and reports how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.entries {
		if time.Since(e.created) > r.ttl {
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("Expired sessions swept")
	}
	return removed
}

// Len reports the number of stored sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

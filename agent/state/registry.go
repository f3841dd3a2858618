package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RegistryConfig tunes session lifecycle. IdleTTL of zero disables
// eviction entirely.
type RegistryConfig struct {
	IdleTTL       time.Duration `envconfig:"IDLE_TTL" split_words:"true" default:"6h"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" split_words:"true" default:"10m"`
}

type sessionEntry struct {
	mu       sync.Mutex
	st       *SessionState
	lastSeen time.Time
}

// Registry maps session identifiers to state-machine instances. Turns
// for the same session are serialized by a per-session lock; turns for
// distinct sessions share nothing and run concurrently. An optional
// Store makes persistence write-through after every successful turn.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	store Store
	now   func() time.Time

	idleTTL   time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func NewRegistry(store Store, cfg RegistryConfig) *Registry {
	r := &Registry{
		sessions: make(map[string]*sessionEntry),
		store:    store,
		now:      time.Now,
		idleTTL:  cfg.IdleTTL,
		done:     make(chan struct{}),
	}
	if cfg.IdleTTL > 0 && cfg.SweepInterval > 0 {
		go r.sweepLoop(cfg.SweepInterval)
	}
	return r
}

// Do runs fn with the session's state under the per-session lock,
// creating a fresh collecting-phase state on first use. A non-nil
// error from fn leaves persistence untouched for this turn.
func (r *Registry) Do(ctx context.Context, sessionID string, fn func(*SessionState) error) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}

	entry := r.entry(id)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.st == nil {
		entry.st = r.loadOrCreate(ctx, id)
	}

	if err := fn(entry.st); err != nil {
		return err
	}

	now := r.now()
	entry.st.Touch(now)
	entry.lastSeen = now

	if r.store != nil {
		if err := r.store.Save(ctx, entry.st); err != nil {
			// persistence is best-effort; the in-memory state stays authoritative
			log.Warn().Err(err).Str("session_id", id).Msg("session save failed")
		}
	}
	return nil
}

// Reset issues a fresh identifier. The old session's state is left
// untouched and simply becomes unreachable (and eventually evicted).
func (r *Registry) Reset(sessionID string) string {
	return uuid.NewString()
}

// Len reports how many sessions are currently resident.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func (r *Registry) entry(id string) *sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		e = &sessionEntry{lastSeen: r.now()}
		r.sessions[id] = e
	}
	return e
}

func (r *Registry) loadOrCreate(ctx context.Context, id string) *SessionState {
	if r.store != nil {
		st, err := r.store.Load(ctx, id)
		switch {
		case err == nil:
			st.EnsureProfile()
			return st
		case errors.Is(err, ErrStateNotFound):
			// fall through to a fresh session
		default:
			log.Warn().Err(err).Str("session_id", id).Msg("session load failed, starting fresh")
		}
	}
	return NewSessionState(id, r.now())
}

func (r *Registry) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		// never evict a session with an in-flight turn
		if !e.mu.TryLock() {
			continue
		}
		idle := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			log.Debug().Str("session_id", id).Msg("evicted idle session")
		}
	}
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/food-storefront/utils"
)

// SessionRegistry keeps one storefront per customer session, restoring it
// from the state store on first use.
type SessionRegistry struct {
	deps     StorefrontDeps
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*registeredSession
}

type registeredSession struct {
	storefront *Storefront
	lastSeen   time.Time
}

func NewSessionRegistry(deps StorefrontDeps) *SessionRegistry {
	return &SessionRegistry{
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*registeredSession),
	}
}

// OnPendingPayment registers the hook handed to every storefront created
// afterwards.
func (r *SessionRegistry) OnPendingPayment(fn func(sessionKey, sessionID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps.OnPendingPayment = fn
}

func (r *SessionRegistry) NewSessionKey() string {
	return uuid.NewString()
}

// Get returns the storefront of a session, loading it if needed.
func (r *SessionRegistry) Get(ctx context.Context, key string) (*Storefront, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.sessions[key]; ok {
		rs.lastSeen = r.now()
		return rs.storefront, nil
	}
	sf := NewStorefront(key, r.deps)
	if err := sf.Load(ctx); err != nil {
		return nil, err
	}
	r.sessions[key] = &registeredSession{storefront: sf, lastSeen: r.now()}
	return sf, nil
}

// EvictIdle drops storefronts unused for longer than maxIdle. Their state is
// persisted, so a later Get reloads it. Sessions in the middle of a checkout
// are kept.
func (r *SessionRegistry) EvictIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	evicted := 0
	for key, rs := range r.sessions {
		if rs.lastSeen.After(cutoff) || rs.storefront.CheckoutInProgress() {
			continue
		}
		delete(r.sessions, key)
		evicted++
	}
	if evicted > 0 {
		utils.InfoLogger.Printf("Evicted %d idle sessions, %d remain", evicted, len(r.sessions))
	}
	return evicted
}

// Forget drops the in-memory storefront; persisted state stays.
func (r *SessionRegistry) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ConfirmPending confirms a card session on behalf of the session monitor.
func (r *SessionRegistry) ConfirmPending(ctx context.Context, sessionKey, sessionID string) error {
	sf, err := r.Get(ctx, sessionKey)
	if err != nil {
		return err
	}
	if sf.PendingSession() != sessionID {
		return ErrUnknownSession
	}
	_, err = sf.ConfirmPayment(ctx, sessionID)
	return err
}

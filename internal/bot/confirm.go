package bot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// confirmOutcome is the result of resolving a confirmation session.
type confirmOutcome int

const (
	confirmAccepted confirmOutcome = iota
	confirmDeclined
	confirmForeign
	confirmAlreadyResolved
	confirmExpired
	confirmUnknown
)

type confirmState int

const (
	stateOffered confirmState = iota
	stateConfirmed
	stateCancelled
)

type confirmSession struct {
	userID    string
	state     confirmState
	createdAt time.Time
}

// confirmStore tracks pending confirm/cancel prompts. Sessions are keyed by
// a random ID embedded in the button custom IDs, bound to the offering user,
// and expire after the TTL. A session accepts exactly one choice.
type confirmStore struct {
	mu       sync.Mutex
	sessions map[string]*confirmSession
	ttl      time.Duration
	now      func() time.Time
}

func newConfirmStore(ttl time.Duration) *confirmStore {
	return &confirmStore{
		sessions: make(map[string]*confirmSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Offer opens a session for the given user and returns its ID. Entries
// older than the TTL, resolved or not, are swept here so the map stays
// bounded by the sessions created within one TTL window.
func (c *confirmStore) Offer(userID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	id := uuid.NewString()
	c.sessions[id] = &confirmSession{userID: userID, state: stateOffered, createdAt: c.now()}
	return id
}

func (c *confirmStore) sweepLocked() {
	now := c.now()
	for id, session := range c.sessions {
		if now.Sub(session.createdAt) > c.ttl {
			delete(c.sessions, id)
		}
	}
}

// Resolve applies one choice to the session. Only the offering user may
// resolve it, and only once; expired sessions are removed on touch.
func (c *confirmStore) Resolve(id, userID string, confirm bool) confirmOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[id]
	if !ok {
		return confirmUnknown
	}
	if c.now().Sub(session.createdAt) > c.ttl {
		delete(c.sessions, id)
		return confirmExpired
	}
	if session.userID != userID {
		return confirmForeign
	}
	if session.state != stateOffered {
		return confirmAlreadyResolved
	}

	if confirm {
		session.state = stateConfirmed
		return confirmAccepted
	}
	session.state = stateCancelled
	return confirmDeclined
}

package relay

import (
	"sync"
	"time"
)

// pendingKind identifies which destructive action awaits confirmation.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingRotate
	pendingDelete
)

type pendingEntry struct {
	kind    pendingKind
	expires time.Time
}

// pendingStore tracks per-user destructive-action confirmations.
// Entries expire after the configured TTL; any non-confirming input
// clears them. Never persisted.
type pendingStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]pendingEntry

	// now is swappable for tests.
	now func() time.Time
}

func newPendingStore(ttl time.Duration) *pendingStore {
	return &pendingStore{
		ttl: ttl,
		m:   make(map[string]pendingEntry),
		now: time.Now,
	}
}

// set arms a confirmation for the user, replacing any previous one.
func (p *pendingStore) set(userID string, kind pendingKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[userID] = pendingEntry{kind: kind, expires: p.now().Add(p.ttl)}
}

// consume removes and returns the user's live confirmation. A lapsed
// entry is removed and reported as pendingNone.
func (p *pendingStore) consume(userID string) pendingKind {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.m[userID]
	if !ok {
		return pendingNone
	}
	delete(p.m, userID)
	if p.now().After(entry.expires) {
		return pendingNone
	}
	return entry.kind
}

// clear drops any confirmation for the user.
func (p *pendingStore) clear(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, userID)
}

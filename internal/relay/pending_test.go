package relay

import (
	"testing"
	"time"
)

func TestPendingStore_ConsumeOnce(t *testing.T) {
	p := newPendingStore(time.Minute)
	p.set("u1", pendingRotate)

	if got := p.consume("u1"); got != pendingRotate {
		t.Errorf("consume = %v, want pendingRotate", got)
	}
	if got := p.consume("u1"); got != pendingNone {
		t.Errorf("second consume = %v, want pendingNone", got)
	}
}

func TestPendingStore_Expiry(t *testing.T) {
	now := time.Now()
	p := newPendingStore(time.Minute)
	p.now = func() time.Time { return now }

	p.set("u1", pendingDelete)
	now = now.Add(2 * time.Minute)

	if got := p.consume("u1"); got != pendingNone {
		t.Errorf("lapsed entry should consume as pendingNone, got %v", got)
	}
}

func TestPendingStore_Clear(t *testing.T) {
	p := newPendingStore(time.Minute)
	p.set("u1", pendingRotate)
	p.clear("u1")

	if got := p.consume("u1"); got != pendingNone {
		t.Errorf("cleared entry should consume as pendingNone, got %v", got)
	}
}

func TestPendingStore_Replace(t *testing.T) {
	p := newPendingStore(time.Minute)
	p.set("u1", pendingRotate)
	p.set("u1", pendingDelete)

	if got := p.consume("u1"); got != pendingDelete {
		t.Errorf("latest set should win, got %v", got)
	}
}

func TestPendingStore_PerUser(t *testing.T) {
	p := newPendingStore(time.Minute)
	p.set("u1", pendingRotate)

	if got := p.consume("u2"); got != pendingNone {
		t.Errorf("other users must not see the entry, got %v", got)
	}
	if got := p.consume("u1"); got != pendingRotate {
		t.Errorf("entry should still be there for its owner, got %v", got)
	}
}

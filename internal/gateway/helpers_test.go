package gateway

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/internal/relay"
	"github.com/hankhank10/loglink-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// memStore is an in-memory IdentityStore + MessageQueue + BetaCodeStore
// backing the handler tests.
type memStore struct {
	mu    sync.Mutex
	users map[string]*store.User
	msgs  []store.Message
	codes []string
	seq   int64
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*store.User)}
}

func (f *memStore) addUser(provider, providerID string) *store.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	u := &store.User{
		ID:         fmt.Sprintf("user-%d", f.seq),
		Token:      store.RandomToken(provider),
		Provider:   provider,
		ProviderID: providerID,
		Approved:   true,
		CreatedAt:  time.Now(),
	}
	f.users[u.ID] = u
	return u
}

func (f *memStore) CreateUser(_ context.Context, provider, providerID, _ string) (*store.User, error) {
	for _, u := range f.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return nil, store.ErrUserExists
		}
	}
	return f.addUser(provider, providerID), nil
}

func (f *memStore) UserByToken(_ context.Context, token string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Token == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *memStore) UserByProviderID(_ context.Context, provider, providerID string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Provider == provider && u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *memStore) UserByID(_ context.Context, userID string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, store.ErrUserNotFound
}

func (f *memStore) ListUsers(_ context.Context) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *memStore) RotateToken(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return "", store.ErrUserNotFound
	}
	u.Token = store.RandomToken(u.Provider)
	return u.Token, nil
}

func (f *memStore) SetUploadKey(_ context.Context, userID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.UploadKey = key
	return nil
}

func (f *memStore) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *memStore) UserCount(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *memStore) Append(_ context.Context, userID, provider, providerMessageID, contents string) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return nil, store.ErrUserNotFound
	}
	f.seq++
	m := store.Message{
		ID:                fmt.Sprintf("msg-%d", f.seq),
		Seq:               f.seq,
		UserID:            userID,
		Provider:          provider,
		ProviderMessageID: providerMessageID,
		Contents:          contents,
		CreatedAt:         time.Now(),
	}
	f.msgs = append(f.msgs, m)
	cp := m
	return &cp, nil
}

func (f *memStore) Drain(_ context.Context, userID string, purge bool) ([]store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Message
	kept := f.msgs[:0]
	for _, m := range f.msgs {
		if m.UserID == userID && !m.Delivered {
			m.Delivered = true
			out = append(out, m)
			if purge {
				continue
			}
		}
		kept = append(kept, m)
	}
	f.msgs = kept
	return out, nil
}

func (f *memStore) PurgeDelivered(_ context.Context, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	kept := f.msgs[:0]
	for _, m := range f.msgs {
		if m.Delivered {
			purged++
			continue
		}
		kept = append(kept, m)
	}
	f.msgs = kept
	return purged, nil
}

func (f *memStore) PendingCount(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if !m.Delivered {
			n++
		}
	}
	return n, nil
}

func (f *memStore) CreateCodes(_ context.Context, n int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		code := store.RandomBetaCode()
		f.codes = append(f.codes, code)
		out = append(out, code)
	}
	return out, nil
}

func (f *memStore) ListCodes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.codes...), nil
}

// newTestEngine wires a relay engine over the in-memory store with one
// mock telegram channel attached.
func newTestEngine(st *memStore) (*relay.Engine, *channel.MockChannel) {
	disp := channel.NewDispatcher()
	mock := channel.NewMockChannel("telegram")
	_ = disp.Register("telegram", mock)
	eng := relay.NewEngine(testLogger(), relay.Config{AppURI: "https://loglink.it/"}, disp, st, st, nil)
	return eng, mock
}

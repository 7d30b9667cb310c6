// Package credential persists the session token between runs.
//
// Exactly one item is stored, under StorageKey. Its absence is the canonical
// logged-out signal.
package credential

import (
	"context"
	"sync"
)

// StorageKey names the persisted credential in every backend.
const StorageKey = "jwt"

// Token is an opaque bearer token. The zero value means no session.
type Token string

func (t Token) IsZero() bool { return t == "" }

// String hides the token so it never ends up in logs by accident.
func (t Token) String() string {
	if t.IsZero() {
		return "<none>"
	}
	return "<redacted>"
}

// Store is durable storage for a single token.
type Store interface {
	// Load returns the empty token and a nil error when nothing is stored.
	Load(ctx context.Context) (Token, error)
	Save(ctx context.Context, token Token) error
	// Delete succeeds when nothing is stored.
	Delete(ctx context.Context) error
}

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token Token
}

func NewMemoryStore(initial Token) *MemoryStore {
	return &MemoryStore{token: initial}
}

func (m *MemoryStore) Load(context.Context) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

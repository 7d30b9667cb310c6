package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eaglebank/client/internal/credential"
)

// ---- mock store ----

type mockStore struct {
	mu      sync.Mutex
	token   credential.Token
	loadErr error
	saveErr error
	saves   int
	deletes int
}

func (m *mockStore) Load(context.Context) (credential.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.loadErr
}

func (m *mockStore) Save(_ context.Context, tok credential.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = tok
	return nil
}

func (m *mockStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = ""
	return nil
}

func (m *mockStore) stored() credential.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// ---- tests ----

func TestNewSeedsFromStore(t *testing.T) {
	ctx := context.Background()

	anon := New(ctx, &mockStore{})
	_, ok := anon.Credential()
	assert.False(t, ok)

	authed := New(ctx, &mockStore{token: "stored"})
	tok, ok := authed.Credential()
	assert.True(t, ok)
	assert.Equal(t, credential.Token("stored"), tok)
}

func TestNewLoadFailureStartsAnonymous(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := New(context.Background(), &mockStore{token: "x", loadErr: errors.New("disk gone")}, WithLogger(zap.New(core)))

	assert.False(t, c.Authenticated())
	assert.True(t, c.Degraded())
	assert.Equal(t, 1, logs.FilterMessage("session.Load failed, starting anonymous").Len())
}

func TestSetThenGetReturnsExactValue(t *testing.T) {
	store := &mockStore{}
	c := New(context.Background(), store)
	r := rand.New(rand.NewSource(7))
	values := []credential.Token{"a", "b", "", "b", "b", "", "", "c"}

	for i := 0; i < 200; i++ {
		v := values[r.Intn(len(values))]
		c.Set(context.Background(), v)
		got, ok := c.Credential()
		require.Equal(t, v, got)
		require.Equal(t, !v.IsZero(), ok)
		require.Equal(t, v, store.stored(), "store must mirror memory after Set returns")
	}
}

func TestSetSameValueIsNoop(t *testing.T) {
	store := &mockStore{}
	c := New(context.Background(), store)

	var changes []Change
	c.Subscribe(func(ch Change) { changes = append(changes, ch) })

	c.Set(context.Background(), "tok")
	c.Set(context.Background(), "tok")
	c.Clear(context.Background())
	c.Clear(context.Background())

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.deletes)
	require.Len(t, changes, 2)
	assert.Equal(t, Established, changes[0].Kind)
	assert.Equal(t, Cleared, changes[1].Kind)
}

func TestChangeKinds(t *testing.T) {
	c := New(context.Background(), &mockStore{})
	var kinds []ChangeKind
	c.Subscribe(func(ch Change) { kinds = append(kinds, ch.Kind) })

	c.Set(context.Background(), "one")
	c.Set(context.Background(), "two")
	c.Clear(context.Background())

	assert.Equal(t, []ChangeKind{Established, Replaced, Cleared}, kinds)
}

func TestSubscriberSeesNewValue(t *testing.T) {
	c := New(context.Background(), &mockStore{})
	var seen credential.Token
	c.Subscribe(func(Change) { seen, _ = c.Credential() })

	c.Set(context.Background(), "fresh")
	assert.Equal(t, credential.Token("fresh"), seen)
}

func TestUnsubscribe(t *testing.T) {
	c := New(context.Background(), &mockStore{})
	calls := 0
	cancel := c.Subscribe(func(Change) { calls++ })

	c.Set(context.Background(), "a")
	cancel()
	c.Set(context.Background(), "b")
	assert.Equal(t, 1, calls)
}

func TestStoreFailureDegradesToMemory(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := &mockStore{saveErr: errors.New("read-only filesystem")}
	c := New(context.Background(), store, WithLogger(zap.New(core)))

	c.Set(context.Background(), "tok")
	tok, ok := c.Credential()
	assert.True(t, ok)
	assert.Equal(t, credential.Token("tok"), tok)
	assert.True(t, c.Degraded())
	assert.Equal(t, 1, logs.FilterMessage("session.Persist failed, continuing in memory").Len())

	// the same value is written again while out of sync, without a new notification
	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()
	notified := false
	c.Subscribe(func(Change) { notified = true })
	c.Set(context.Background(), "tok")
	assert.False(t, c.Degraded())
	assert.False(t, notified)
	assert.Equal(t, credential.Token("tok"), store.stored())
}

func TestConcurrentSetLastWriteWins(t *testing.T) {
	store := &mockStore{}
	c := New(context.Background(), store)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.Set(context.Background(), "even")
			} else {
				c.Clear(context.Background())
			}
		}(i)
	}
	wg.Wait()

	tok, _ := c.Credential()
	assert.Equal(t, tok, store.stored())
}

func TestClaims(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "usr-abc",
		Email:  "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	}).SignedString([]byte("unknown-to-the-client"))
	require.NoError(t, err)

	c := New(context.Background(), credential.NewMemoryStore(credential.Token(signed)))
	claims, ok := c.Claims()
	require.True(t, ok)
	assert.Equal(t, "usr-abc", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.False(t, claims.Expired(time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, claims.Expired(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestClaimsFallBackToSubject(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "usr-sub"}).
		SignedString([]byte("k"))
	require.NoError(t, err)

	claims, err := ParseClaims(credential.Token(signed))
	require.NoError(t, err)
	assert.Equal(t, "usr-sub", claims.UserID)
}

func TestClaimsOpaqueToken(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.ErrorIs(t, err, ErrOpaqueToken)

	c := New(context.Background(), credential.NewMemoryStore("not-a-jwt"))
	_, ok := c.Claims()
	assert.False(t, ok)
	assert.True(t, c.Authenticated(), "an opaque token is still a session")
}

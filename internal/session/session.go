// Package session owns the process-wide credential: the single source of truth
// for whether a session exists, mirrored into a credential.Store.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eaglebank/client/internal/credential"
)

type ChangeKind string

const (
	Established ChangeKind = "session.established"
	Replaced    ChangeKind = "session.replaced"
	Cleared     ChangeKind = "session.cleared"
)

// Change is delivered to subscribers after every observable mutation. It never
// carries the token itself.
type Change struct {
	Kind          ChangeKind
	Authenticated bool
	At            time.Time
}

type Option func(*Context)

func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		if now != nil {
			c.now = now
		}
	}
}

// Context is a single-writer state cell. Reads never block on store I/O.
type Context struct {
	// writeMu serialises Set so memory and store agree on the last write;
	// mu guards the fields below and is never held across store I/O.
	writeMu  sync.Mutex
	mu       sync.Mutex
	token    credential.Token
	degraded bool

	store credential.Store
	log   *zap.Logger
	now   func() time.Time

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New seeds the in-memory value from store. A load failure is logged and
// leaves the context anonymous.
func New(ctx context.Context, store credential.Store, opts ...Option) *Context {
	c := &Context{
		store: store,
		log:   zap.NewNop(),
		now:   time.Now,
		subs:  make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if store == nil {
		c.store = credential.NewMemoryStore("")
	}

	tok, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn("session.Load failed, starting anonymous", zap.Error(err))
		c.degraded = true
		return c
	}
	c.token = tok
	c.log.Debug("session.Load", zap.Bool("authenticated", !tok.IsZero()))
	return c
}

// Credential returns the current token and whether one is present.
func (c *Context) Credential() (credential.Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, !c.token.IsZero()
}

func (c *Context) Authenticated() bool {
	_, ok := c.Credential()
	return ok
}

// Degraded reports whether the last durable write or load failed, meaning the
// stored value may differ from memory.
func (c *Context) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Set replaces the credential; the empty token clears it. Memory is updated
// before the store is touched, so a store failure never loses the new value.
// Setting the current value again notifies nobody and only rewrites the store
// if it is known to be out of sync.
func (c *Context) Set(ctx context.Context, tok credential.Token) {
	c.writeMu.Lock()

	c.mu.Lock()
	prev, degraded := c.token, c.degraded
	if prev == tok && !degraded {
		c.mu.Unlock()
		c.writeMu.Unlock()
		return
	}
	c.token = tok
	c.mu.Unlock()

	var err error
	if tok.IsZero() {
		err = c.store.Delete(ctx)
	} else {
		err = c.store.Save(ctx, tok)
	}

	c.mu.Lock()
	c.degraded = err != nil
	c.mu.Unlock()
	c.writeMu.Unlock()

	if err != nil {
		c.log.Warn("session.Persist failed, continuing in memory", zap.Error(err), zap.Bool("authenticated", !tok.IsZero()))
	}
	if prev == tok {
		return
	}

	kind := Replaced
	switch {
	case tok.IsZero():
		kind = Cleared
	case prev.IsZero():
		kind = Established
	}
	c.log.Debug("session.Change", zap.String("kind", string(kind)))
	c.notify(Change{Kind: kind, Authenticated: !tok.IsZero(), At: c.now()})
}

func (c *Context) Clear(ctx context.Context) {
	c.Set(ctx, "")
}

// Subscribe registers fn for change notifications and returns a func that
// removes it. fn runs on the goroutine that performed the change, after the
// new value is readable.
func (c *Context) Subscribe(fn func(Change)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Context) notify(ch Change) {
	c.subMu.Lock()
	fns := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

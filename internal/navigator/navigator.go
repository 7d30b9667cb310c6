package navigator

import (
	"maps"
	"sync"

	"go.uber.org/zap"
)

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
)

// Decision is the outcome of evaluating a navigation. When Allowed is false the
// navigator moves to Redirect instead of the requested location.
type Decision struct {
	Allowed  bool
	Redirect Location
	Reason   Reason
}

// Destination is the location actually entered for a navigation to `to`.
func (d Decision) Destination(to Location) Location {
	if d.Allowed {
		return to
	}
	return d.Redirect
}

// Guard is pure: it depends only on its arguments.
func Guard(authenticated bool, to Location) Decision {
	if to.Route.Guarded() && !authenticated {
		return Decision{Redirect: LoginPage(), Reason: ReasonUnauthenticated}
	}
	return Decision{Allowed: true}
}

// AuthState reports whether a credential is currently held.
type AuthState interface {
	Authenticated() bool
}

// Event is delivered to listeners after every navigation.
type Event struct {
	Requested Location
	Current   Location
	Decision  Decision
}

type Option func(*Navigator)

func WithLogger(l *zap.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.log = l
		}
	}
}

// Navigator holds the current location. It starts on the login page.
type Navigator struct {
	auth AuthState
	log  *zap.Logger

	mu      sync.Mutex
	current Location

	listenersMu sync.Mutex
	listeners   map[int]func(Event)
	nextID      int
}

func New(auth AuthState, opts ...Option) *Navigator {
	n := &Navigator{
		auth:      auth,
		log:       zap.NewNop(),
		current:   LoginPage(),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Navigate evaluates the guard against the session and moves to the destination
// or to the redirect. State on `to` is kept only when the navigation is allowed.
func (n *Navigator) Navigate(to Location) Decision {
	d := Guard(n.authenticated(), to)
	dest := d.Destination(to)
	if !d.Allowed {
		dest = dest.withoutState()
	}

	dest.State = maps.Clone(dest.State)
	n.mu.Lock()
	n.current = dest
	n.mu.Unlock()

	if d.Allowed {
		n.log.Debug("navigator.Navigate", zap.String("route", dest.Path()))
	} else {
		n.log.Debug("navigator.Navigate.Redirect",
			zap.String("requested", to.Path()),
			zap.String("route", dest.Path()),
			zap.String("reason", string(d.Reason)))
	}
	n.notify(Event{Requested: to, Current: dest, Decision: d})
	return d
}

// Current returns the location last entered, including its one-shot state.
func (n *Navigator) Current() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	cur := n.current
	cur.State = maps.Clone(cur.State)
	return cur
}

// Reload re-enters the current location, re-running the guard and dropping any
// one-shot state.
func (n *Navigator) Reload() Decision {
	return n.Navigate(n.Current().withoutState())
}

// Subscribe registers fn for navigation events and returns a cancel function.
func (n *Navigator) Subscribe(fn func(Event)) func() {
	n.listenersMu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.listenersMu.Unlock()

	return func() {
		n.listenersMu.Lock()
		delete(n.listeners, id)
		n.listenersMu.Unlock()
	}
}

func (n *Navigator) notify(ev Event) {
	n.listenersMu.Lock()
	fns := make([]func(Event), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.listenersMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (n *Navigator) authenticated() bool {
	return n.auth != nil && n.auth.Authenticated()
}

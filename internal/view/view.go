// Package view holds the page-level orchestrators. Each one enters its route
// through the navigator, calls the API client, classifies what came back and
// either exposes the result as state or moves on to the next route.
//
// Loads run in the background; Wait blocks until they have been applied. Only
// the latest Load of a view instance is applied, and nothing is applied after
// Close.
package view

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/eaglebank/client/internal/client"
	"github.com/eaglebank/client/internal/credential"
	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/shared/models"
	"github.com/eaglebank/client/shared/validation"
)

// Bank is the subset of *client.Client the views use.
type Bank interface {
	Login(ctx context.Context, req models.LoginRequest) (*client.Response[models.LoginResult], error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*client.Response[models.User], error)
	GetUser(ctx context.Context, userID string) (*client.Response[models.User], error)
	UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*client.Response[models.User], error)
	DeleteUser(ctx context.Context, userID string) (*client.Response[client.Empty], error)
	ListAccounts(ctx context.Context) (*client.Response[models.AccountList], error)
	GetAccount(ctx context.Context, accountNumber string) (*client.Response[models.Account], error)
	CreateAccount(ctx context.Context, req models.CreateAccountRequest) (*client.Response[models.Account], error)
	UpdateAccount(ctx context.Context, accountNumber string, req models.UpdateAccountRequest) (*client.Response[models.Account], error)
	DeleteAccount(ctx context.Context, accountNumber string) (*client.Response[client.Empty], error)
	CreateTransaction(ctx context.Context, accountNumber string, req models.CreateTransactionRequest) (*client.Response[models.Transaction], error)
	ListTransactions(ctx context.Context, accountNumber string) (*client.Response[models.TransactionList], error)
	GetTransaction(ctx context.Context, accountNumber, transactionID string) (*client.Response[models.Transaction], error)
}

// Session is the credential holder, normally *session.Context.
type Session interface {
	Authenticated() bool
	Credential() (credential.Token, bool)
	Set(ctx context.Context, tok credential.Token)
	Clear(ctx context.Context)
}

// Deps are shared by every view of one application instance. Nav must be
// built over the same Session.
type Deps struct {
	Bank    Bank
	Session Session
	Nav     *navigator.Navigator
	Log     *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

type Status int

const (
	// Idle means nothing has been requested yet, or the route was refused.
	Idle Status = iota
	Loading
	Ready
	Empty
	// DeclaredError carries the server's message verbatim.
	DeclaredError
	// UndeclaredError covers transport and decode failures and payloads that
	// are neither a success nor a {message}.
	UndeclaredError
	// Invalid means client-side validation refused to send the input.
	Invalid
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Empty:
		return "empty"
	case DeclaredError:
		return "declared_error"
	case UndeclaredError:
		return "undeclared_error"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Failed reports whether s is one of the error outcomes.
func (s Status) Failed() bool {
	return s == DeclaredError || s == UndeclaredError || s == Invalid
}

// Loadable is one fetched value and the outcome of fetching it.
type Loadable[T any] struct {
	Status  Status
	Value   T
	Message string
	Err     error
}

// Form is the outcome of a submission.
type Form struct {
	Status  Status
	Message string
	Fields  []validation.FieldError
	Err     error
}

// Generic messages shown for undeclared failures.
const (
	MsgLoginFailed               = "Login failed. Please check your credentials."
	MsgRegistrationFailed        = "Registration failed. Please check your details."
	MsgLoadUserFailed            = "Failed to load user."
	MsgUpdateFailed              = "Update failed."
	MsgDeleteUserFailed          = "Failed to delete user."
	MsgLoadAccountsFailed        = "Failed to load accounts."
	MsgAccountCreationFailed     = "Account creation failed."
	MsgLoadAccountFailed         = "Failed to load account."
	MsgUpdateAccountFailed       = "Failed to update account."
	MsgDeleteAccountFailed       = "Failed to delete account."
	MsgLoadTransactionsFailed    = "Failed to load transactions."
	MsgTransactionCreationFailed = "Transaction creation failed."
	MsgLoadTransactionFailed     = "Failed to load transaction."
)

// outcome is the classification of one client call.
type outcome struct {
	status  Status
	message string
	details []models.FieldDetail
	err     error
}

// classify sorts a client result into exactly one status. A {message} payload
// is declared whatever the HTTP status; otherwise success decides between
// Ready and UndeclaredError.
func classify[T any](res *client.Response[T], err error, success func(*client.Response[T]) bool, generic string) outcome {
	switch {
	case err != nil:
		return outcome{status: UndeclaredError, message: generic, err: err}
	case res.Message != "":
		return outcome{status: DeclaredError, message: res.Message, details: res.Details, err: res.Declared()}
	case success(res):
		return outcome{status: Ready}
	default:
		return outcome{status: UndeclaredError, message: generic, err: &client.DecodeError{
			Status: res.Status,
			Err:    errors.New("response is neither a result nor a message"),
		}}
	}
}

// resolve classifies a fetch into a Loadable. empty may be nil for values that
// cannot be empty.
func resolve[R, T any](res *client.Response[R], err error, success func(*client.Response[R]) bool, value func(R) T, empty func(T) bool, generic string) Loadable[T] {
	o := classify(res, err, success, generic)
	l := Loadable[T]{Status: o.status, Message: o.message, Err: o.err}
	if o.status == Ready {
		l.Value = value(res.Body)
		if empty != nil && empty(l.Value) {
			l.Status = Empty
		}
	}
	return l
}

func identity[T any](v T) T { return v }

func form(o outcome) Form {
	f := Form{Status: o.status, Message: o.message, Err: o.err}
	for _, d := range o.details {
		f.Fields = append(f.Fields, validation.FieldError{Field: d.Field, Message: d.Message, Type: d.Type})
	}
	return f
}

func invalid(err error) Form {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return Form{Status: Invalid, Message: verr.Error(), Fields: verr.Fields, Err: err}
	}
	return Form{Status: Invalid, Message: err.Error(), Err: err}
}

func is2xx(status int) bool { return status >= 200 && status < 300 }

// lifecycle tracks the generation of a view's latest load and whether the view
// has been torn down. Its mutex also guards the embedding view's state.
type lifecycle struct {
	mu     sync.Mutex
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

// next starts a new generation, superseding any load still in flight, and
// runs fn under the lock when the view is still open.
func (l *lifecycle) next(fn func()) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	if l.closed {
		return l.gen, false
	}
	if fn != nil {
		fn()
	}
	return l.gen, true
}

// apply runs fn only when gen is still the latest and the view is open.
func (l *lifecycle) apply(gen uint64, fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		return false
	}
	fn()
	return true
}

// applyOpen runs fn when the view is open, regardless of generation.
func (l *lifecycle) applyOpen(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	fn()
	return true
}

func (l *lifecycle) spawn(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// Close tears the view down; pending results are discarded when they arrive.
func (l *lifecycle) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// Closed reports whether Close has been called.
func (l *lifecycle) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Wait blocks until every background load of the view has finished.
func (l *lifecycle) Wait() {
	l.wg.Wait()
}

// enter renders loc through the navigator. When loc is already current the
// guard is re-checked without navigating, which keeps its one-shot state.
func enter(d Deps, loc navigator.Location) navigator.Decision {
	if d.Nav.Current().Same(loc) {
		if dec := navigator.Guard(d.Session.Authenticated(), loc); dec.Allowed {
			return dec
		}
	}
	return d.Nav.Navigate(loc)
}

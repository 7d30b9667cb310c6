package view

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eaglebank/client/internal/banktest"
	"github.com/eaglebank/client/internal/client"
	"github.com/eaglebank/client/internal/credential"
	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/internal/session"
	"github.com/eaglebank/client/shared/models"
)

// ---- harness over the fake API ----

type harness struct {
	srv  *banktest.Server
	sess *session.Context
	nav  *navigator.Navigator
	deps Deps
	user models.User
}

const testPassword = "correct-horse"

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := banktest.New()
	t.Cleanup(srv.Close)

	sess := session.New(context.Background(), credential.NewMemoryStore(""))
	cli, err := client.New(srv.URL(), sess)
	require.NoError(t, err)
	nav := navigator.New(sess)

	return &harness{
		srv:  srv,
		sess: sess,
		nav:  nav,
		deps: Deps{Bank: cli, Session: sess, Nav: nav},
		user: srv.AddUser(validUser()),
	}
}

// login stores a valid token without going through the login view.
func (h *harness) login() {
	h.sess.Set(context.Background(), credential.Token(h.srv.Token(h.user.ID)))
}

func validUser() models.CreateUserRequest {
	return models.CreateUserRequest{
		Name:        "Alice",
		Email:       "alice@example.com",
		Password:    testPassword,
		PhoneNumber: "+441234567890",
		Address: models.AddressInput{
			Line1: "1 High St", Town: "Leeds", County: "West Yorkshire", Postcode: "LS1 1AA",
		},
	}
}

// ---- mock bank ----

var errNotConfigured = fmt.Errorf("not configured")

type mockBank struct {
	loginFn             func(models.LoginRequest) (*client.Response[models.LoginResult], error)
	createUserFn        func(models.CreateUserRequest) (*client.Response[models.User], error)
	getUserFn           func(string) (*client.Response[models.User], error)
	updateUserFn        func(string, models.UpdateUserRequest) (*client.Response[models.User], error)
	deleteUserFn        func(string) (*client.Response[client.Empty], error)
	listAccountsFn      func() (*client.Response[models.AccountList], error)
	getAccountFn        func(string) (*client.Response[models.Account], error)
	createAccountFn     func(models.CreateAccountRequest) (*client.Response[models.Account], error)
	updateAccountFn     func(string, models.UpdateAccountRequest) (*client.Response[models.Account], error)
	deleteAccountFn     func(string) (*client.Response[client.Empty], error)
	createTransactionFn func(string, models.CreateTransactionRequest) (*client.Response[models.Transaction], error)
	listTransactionsFn  func(string) (*client.Response[models.TransactionList], error)
	getTransactionFn    func(string, string) (*client.Response[models.Transaction], error)
}

func (m *mockBank) Login(_ context.Context, req models.LoginRequest) (*client.Response[models.LoginResult], error) {
	if m.loginFn != nil {
		return m.loginFn(req)
	}
	return nil, errNotConfigured
}
func (m *mockBank) CreateUser(_ context.Context, req models.CreateUserRequest) (*client.Response[models.User], error) {
	if m.createUserFn != nil {
		return m.createUserFn(req)
	}
	return nil, errNotConfigured
}
func (m *mockBank) GetUser(_ context.Context, id string) (*client.Response[models.User], error) {
	if m.getUserFn != nil {
		return m.getUserFn(id)
	}
	return nil, errNotConfigured
}
func (m *mockBank) UpdateUser(_ context.Context, id string, req models.UpdateUserRequest) (*client.Response[models.User], error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(id, req)
	}
	return nil, errNotConfigured
}
func (m *mockBank) DeleteUser(_ context.Context, id string) (*client.Response[client.Empty], error) {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(id)
	}
	return nil, errNotConfigured
}
func (m *mockBank) ListAccounts(context.Context) (*client.Response[models.AccountList], error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn()
	}
	return nil, errNotConfigured
}
func (m *mockBank) GetAccount(_ context.Context, n string) (*client.Response[models.Account], error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(n)
	}
	return nil, errNotConfigured
}
func (m *mockBank) CreateAccount(_ context.Context, req models.CreateAccountRequest) (*client.Response[models.Account], error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(req)
	}
	return nil, errNotConfigured
}
func (m *mockBank) UpdateAccount(_ context.Context, n string, req models.UpdateAccountRequest) (*client.Response[models.Account], error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(n, req)
	}
	return nil, errNotConfigured
}
func (m *mockBank) DeleteAccount(_ context.Context, n string) (*client.Response[client.Empty], error) {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(n)
	}
	return nil, errNotConfigured
}
func (m *mockBank) CreateTransaction(_ context.Context, n string, req models.CreateTransactionRequest) (*client.Response[models.Transaction], error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(n, req)
	}
	return nil, errNotConfigured
}
func (m *mockBank) ListTransactions(_ context.Context, n string) (*client.Response[models.TransactionList], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(n)
	}
	return nil, errNotConfigured
}
func (m *mockBank) GetTransaction(_ context.Context, n, id string) (*client.Response[models.Transaction], error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(n, id)
	}
	return nil, errNotConfigured
}

// mockDeps wires bank to an authenticated in-memory session.
func mockDeps(bank Bank) (Deps, *session.Context) {
	sess := session.New(context.Background(), credential.NewMemoryStore("opaque-token"))
	return Deps{Bank: bank, Session: sess, Nav: navigator.New(sess)}, sess
}

func declaredResp[T any](status int, msg string) *client.Response[T] {
	return &client.Response[T]{Status: status, Message: msg}
}

func okResp[T any](status int, body T) *client.Response[T] {
	return &client.Response[T]{Status: status, Body: body}
}

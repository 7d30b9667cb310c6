package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/eaglebank/client/shared/models"
)

// Operation names, used in errors, logs and metrics.
const (
	OpLogin             = "login"
	OpCreateUser        = "create_user"
	OpGetUser           = "get_user"
	OpUpdateUser        = "update_user"
	OpDeleteUser        = "delete_user"
	OpListAccounts      = "list_accounts"
	OpGetAccount        = "get_account"
	OpCreateAccount     = "create_account"
	OpUpdateAccount     = "update_account"
	OpDeleteAccount     = "delete_account"
	OpCreateTransaction = "create_transaction"
	OpListTransactions  = "list_transactions"
	OpGetTransaction    = "get_transaction"
)

// Login exchanges credentials for a token. It never sends Authorization.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*Response[models.LoginResult], error) {
	return send[models.LoginResult](ctx, c, request{
		op: OpLogin, method: http.MethodPost, path: "/login", body: req,
	})
}

// CreateUser registers a new user. It never sends Authorization.
func (c *Client) CreateUser(ctx context.Context, req models.CreateUserRequest) (*Response[models.User], error) {
	return send[models.User](ctx, c, request{
		op: OpCreateUser, method: http.MethodPost, path: "/users", body: req,
	})
}

func (c *Client) GetUser(ctx context.Context, userID string) (*Response[models.User], error) {
	return send[models.User](ctx, c, request{
		op: OpGetUser, method: http.MethodGet, path: userPath(userID), guarded: true,
	})
}

func (c *Client) UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*Response[models.User], error) {
	return send[models.User](ctx, c, request{
		op: OpUpdateUser, method: http.MethodPatch, path: userPath(userID), body: req, guarded: true,
	})
}

// DeleteUser succeeds with Response.NoContent on a bodiless 2xx reply.
func (c *Client) DeleteUser(ctx context.Context, userID string) (*Response[Empty], error) {
	return send[Empty](ctx, c, request{
		op: OpDeleteUser, method: http.MethodDelete, path: userPath(userID), guarded: true, deletion: true,
	})
}

func (c *Client) ListAccounts(ctx context.Context) (*Response[models.AccountList], error) {
	return send[models.AccountList](ctx, c, request{
		op: OpListAccounts, method: http.MethodGet, path: "/accounts", guarded: true,
	})
}

func (c *Client) GetAccount(ctx context.Context, accountNumber string) (*Response[models.Account], error) {
	return send[models.Account](ctx, c, request{
		op: OpGetAccount, method: http.MethodGet, path: accountPath(accountNumber), guarded: true,
	})
}

func (c *Client) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (*Response[models.Account], error) {
	return send[models.Account](ctx, c, request{
		op: OpCreateAccount, method: http.MethodPost, path: "/accounts", body: req, guarded: true,
	})
}

func (c *Client) UpdateAccount(ctx context.Context, accountNumber string, req models.UpdateAccountRequest) (*Response[models.Account], error) {
	return send[models.Account](ctx, c, request{
		op: OpUpdateAccount, method: http.MethodPatch, path: accountPath(accountNumber), body: req, guarded: true,
	})
}

// DeleteAccount succeeds with Response.NoContent on a bodiless 2xx reply.
func (c *Client) DeleteAccount(ctx context.Context, accountNumber string) (*Response[Empty], error) {
	return send[Empty](ctx, c, request{
		op: OpDeleteAccount, method: http.MethodDelete, path: accountPath(accountNumber), guarded: true, deletion: true,
	})
}

// CreateTransaction is not idempotent; callers must not retry it.
func (c *Client) CreateTransaction(ctx context.Context, accountNumber string, req models.CreateTransactionRequest) (*Response[models.Transaction], error) {
	return send[models.Transaction](ctx, c, request{
		op: OpCreateTransaction, method: http.MethodPost, path: accountPath(accountNumber) + "/transactions", body: req, guarded: true,
	})
}

func (c *Client) ListTransactions(ctx context.Context, accountNumber string) (*Response[models.TransactionList], error) {
	return send[models.TransactionList](ctx, c, request{
		op: OpListTransactions, method: http.MethodGet, path: accountPath(accountNumber) + "/transactions", guarded: true,
	})
}

func (c *Client) GetTransaction(ctx context.Context, accountNumber, transactionID string) (*Response[models.Transaction], error) {
	path := fmt.Sprintf("%s/transactions/%s", accountPath(accountNumber), url.PathEscape(transactionID))
	return send[models.Transaction](ctx, c, request{
		op: OpGetTransaction, method: http.MethodGet, path: path, guarded: true,
	})
}

func userPath(userID string) string {
	return "/users/" + url.PathEscape(userID)
}

func accountPath(accountNumber string) string {
	return "/accounts/" + url.PathEscape(accountNumber)
}

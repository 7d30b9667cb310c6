// Package banktest runs an in-process Eagle Bank API for tests. It speaks the
// same wire format as the real service: bearer JWTs, {message} errors, 204 on
// deletes and the `{accounts}`/`{transactions}` list wrappers.
package banktest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eaglebank/client/shared/models"
)

// Request is one call received by the server.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type user struct {
	models.User
	passwordHash string
}

type account struct {
	models.Account
	owner string
}

// Server is a fake API. Its zero value is not usable; call New.
type Server struct {
	mu           sync.Mutex
	secret       []byte
	users        map[string]*user
	accounts     map[string]*account
	accountOrder []string
	transactions map[string][]models.Transaction
	requests     []Request
	override     map[string]gin.HandlerFunc

	engine *gin.Engine
	srv    *httptest.Server
}

// New starts a server on a loopback port. Callers must Close it.
func New() *Server {
	s := NewUnstarted()
	s.srv = httptest.NewServer(s.engine)
	return s
}

// NewUnstarted builds the server without listening; use Handler directly.
func NewUnstarted() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:       []byte(uuid.NewString()),
		users:        make(map[string]*user),
		accounts:     make(map[string]*account),
		transactions: make(map[string][]models.Transaction),
		override:     make(map[string]gin.HandlerFunc),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.recordRequests(), requestID(), s.overrides())

	v1 := r.Group("/v1")
	v1.POST("/login", s.login)
	v1.POST("/users", s.createUser)

	authed := v1.Group("", s.authMiddleware())
	authed.GET("/users/:userId", s.getUser)
	authed.PATCH("/users/:userId", s.updateUser)
	authed.DELETE("/users/:userId", s.deleteUser)
	authed.GET("/accounts", s.listAccounts)
	authed.POST("/accounts", s.createAccount)
	authed.GET("/accounts/:accountNumber", s.getAccount)
	authed.PATCH("/accounts/:accountNumber", s.updateAccount)
	authed.DELETE("/accounts/:accountNumber", s.deleteAccount)
	authed.POST("/accounts/:accountNumber/transactions", s.createTransaction)
	authed.GET("/accounts/:accountNumber/transactions", s.listTransactions)
	authed.GET("/accounts/:accountNumber/transactions/:transactionId", s.getTransaction)

	r.NoRoute(func(c *gin.Context) {
		respondWithError(c, http.StatusNotFound, "resource not found")
	})
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// URL is the server root, without the /v1 base path.
func (s *Server) URL() string {
	if s.srv == nil {
		return ""
	}
	return s.srv.URL
}

func (s *Server) Handler() http.Handler { return s.engine }

// Close shuts the listener down. Requests in flight fail with a transport error.
func (s *Server) Close() {
	if s.srv != nil {
		s.srv.CloseClientConnections()
		s.srv.Close()
	}
}

// Override replaces the reply for method and path (including /v1) with h.
func (s *Server) Override(method, path string, h gin.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override[method+" "+path] = h
}

func (s *Server) ClearOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = make(map[string]gin.HandlerFunc)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// AddUser seeds a user directly, bypassing validation.
func (s *Server) AddUser(req models.CreateUserRequest) models.User {
	hash, err := hashPassword(req.Password)
	if err != nil {
		panic(fmt.Sprintf("banktest: hash password: %v", err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.insertUserLocked(req, hash)
	return u.User
}

// Token issues a valid bearer token for userID, whether or not the user exists.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	u, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		u = &user{User: models.User{ID: userID}}
	}
	tok, err := s.issueToken(u)
	if err != nil {
		panic(fmt.Sprintf("banktest: sign token: %v", err))
	}
	return tok
}

// AddAccount seeds an account owned by userID with the given balance.
func (s *Server) AddAccount(userID, name, accountType string, balance decimal.Decimal) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.insertAccountLocked(userID, name, accountType)
	a.Balance = balance
	return a.Account
}

// Accounts returns the accounts owned by userID in creation order.
func (s *Server) Accounts(userID string) []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountsOfLocked(userID)
}

func (s *Server) insertUserLocked(req models.CreateUserRequest, hash string) *user {
	id := generateID("usr-")
	for s.users[id] != nil {
		id = generateID("usr-")
	}
	now := models.Now()
	u := &user{
		User: models.User{
			ID:          id,
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Address:     addressOf(req.Address),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		passwordHash: hash,
	}
	s.users[id] = u
	return u
}

func (s *Server) insertAccountLocked(owner, name, accountType string) *account {
	number := generateAccountNumber()
	for s.accounts[number] != nil {
		number = generateAccountNumber()
	}
	now := models.Now()
	a := &account{
		Account: models.Account{
			AccountNumber: number,
			AccountName:   name,
			AccountType:   accountType,
			SortCode:      generateSortCode(),
			Balance:       decimal.Zero,
			Currency:      models.CurrencyGBP,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		owner: owner,
	}
	s.accounts[number] = a
	s.accountOrder = append(s.accountOrder, number)
	return a
}

func (s *Server) accountsOfLocked(owner string) []models.Account {
	out := []models.Account{}
	for _, n := range s.accountOrder {
		if a, ok := s.accounts[n]; ok && a.owner == owner {
			out = append(out, a.Account)
		}
	}
	return out
}

func (s *Server) removeAccountLocked(number string) {
	delete(s.accounts, number)
	delete(s.transactions, number)
	for i, n := range s.accountOrder {
		if n == number {
			s.accountOrder = append(s.accountOrder[:i], s.accountOrder[i+1:]...)
			break
		}
	}
}

func addressOf(in models.AddressInput) models.Address {
	return models.Address{
		Line1:    in.Line1,
		Line2:    in.Line2,
		Line3:    in.Line3,
		Town:     in.Town,
		County:   in.County,
		Postcode: in.Postcode,
	}
}

package banktest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/eaglebank/client/shared/models"
	"github.com/eaglebank/client/shared/validation"
)

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondWithValidationError(c, err)
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || !checkPassword(req.Password, u.passwordHash) {
		respondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.issueToken(u)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	c.JSON(http.StatusOK, models.LoginResult{JWT: token})
}

func (s *Server) createUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondWithValidationError(c, err)
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == req.Email {
			respondWithError(c, http.StatusConflict, "A user with this email already exists")
			return
		}
	}
	u := s.insertUserLocked(req, hash)
	c.JSON(http.StatusCreated, u.User)
}

// lookupUserLocked resolves the :userId parameter for the caller, writing the
// error reply itself when access is refused.
func (s *Server) lookupUserLocked(c *gin.Context) (*user, bool) {
	userID := c.Param("userId")
	if userID != getUserID(c) {
		respondWithError(c, http.StatusForbidden, "You do not have access to this user")
		return nil, false
	}
	u, ok := s.users[userID]
	if !ok {
		respondWithError(c, http.StatusNotFound, "User does not exist")
		return nil, false
	}
	return u, true
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.lookupUserLocked(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u.User)
}

func (s *Server) updateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondWithValidationError(c, err)
		return
	}
	var hash string
	if req.Password != "" {
		var err error
		if hash, err = hashPassword(req.Password); err != nil {
			respondWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.lookupUserLocked(c)
	if !ok {
		return
	}
	u.Name = req.Name
	u.Email = req.Email
	u.PhoneNumber = req.PhoneNumber
	u.Address = addressOf(req.Address)
	u.UpdatedAt = models.Now()
	if hash != "" {
		u.passwordHash = hash
	}
	c.JSON(http.StatusOK, u.User)
}

func (s *Server) deleteUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.lookupUserLocked(c)
	if !ok {
		return
	}
	if len(s.accountsOfLocked(u.ID)) > 0 {
		respondWithError(c, http.StatusConflict, "User has associated accounts")
		return
	}
	delete(s.users, u.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) listAccounts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, models.AccountList{Accounts: s.accountsOfLocked(getUserID(c))})
}

func (s *Server) createAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondWithValidationError(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.insertAccountLocked(getUserID(c), req.Name, req.AccountType)
	c.JSON(http.StatusCreated, a.Account)
}

func (s *Server) lookupAccountLocked(c *gin.Context) (*account, bool) {
	a, ok := s.accounts[c.Param("accountNumber")]
	if !ok {
		respondWithError(c, http.StatusNotFound, "Account not found")
		return nil, false
	}
	if a.owner != getUserID(c) {
		respondWithError(c, http.StatusForbidden, "You do not have access to this account")
		return nil, false
	}
	return a, true
}

func (s *Server) getAccount(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.lookupAccountLocked(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.Account)
}

func (s *Server) updateAccount(c *gin.Context) {
	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondWithValidationError(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.lookupAccountLocked(c)
	if !ok {
		return
	}
	if req.AccountName != "" {
		a.AccountName = req.AccountName
	}
	if req.AccountType != "" {
		a.AccountType = req.AccountType
	}
	a.UpdatedAt = models.Now()
	c.JSON(http.StatusOK, a.Account)
}

func (s *Server) deleteAccount(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.lookupAccountLocked(c)
	if !ok {
		return
	}
	s.removeAccountLocked(a.AccountNumber)
	c.Status(http.StatusNoContent)
}

func (s *Server) createTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Transaction(req); err != nil {
		respondWithValidationError(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.lookupAccountLocked(c)
	if !ok {
		return
	}

	balance := a.Balance
	switch req.Type {
	case models.TransactionTypeDeposit:
		balance = balance.Add(req.Amount)
	case models.TransactionTypeWithdrawal:
		if req.Amount.GreaterThan(balance) {
			respondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds for this transaction")
			return
		}
		balance = balance.Sub(req.Amount)
	}
	a.Balance = balance
	a.UpdatedAt = models.Now()

	tx := models.Transaction{
		ID:            generateID("tan-"),
		AccountNumber: a.AccountNumber,
		UserID:        a.owner,
		Type:          req.Type,
		Amount:        req.Amount.Round(2),
		Currency:      req.Currency,
		Reference:     req.Reference,
		CreatedAt:     models.Now(),
	}
	s.transactions[a.AccountNumber] = append(s.transactions[a.AccountNumber], tx)
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) listTransactions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.lookupAccountLocked(c)
	if !ok {
		return
	}
	txs := append([]models.Transaction{}, s.transactions[a.AccountNumber]...)
	c.JSON(http.StatusOK, models.TransactionList{Transactions: txs})
}

func (s *Server) getTransaction(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.lookupAccountLocked(c)
	if !ok {
		return
	}
	id := c.Param("transactionId")
	for _, tx := range s.transactions[a.AccountNumber] {
		if tx.ID == id {
			c.JSON(http.StatusOK, tx)
			return
		}
	}
	respondWithError(c, http.StatusNotFound, "Transaction not found")
}

// Balance is a test helper reading an account's balance without HTTP.
func (s *Server) Balance(accountNumber string) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountNumber]
	if !ok {
		return decimal.Zero, false
	}
	return a.Balance, true
}

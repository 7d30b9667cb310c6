package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend reads amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	AccountTypeSavings  = "SAVINGS"
	AccountTypePersonal = "PERSONAL"

	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"

	CurrencyGBP = "GBP"
)

type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	Line3    string `json:"line3,omitempty"`
	Town     string `json:"town"`
	County   string `json:"county"`
	Postcode string `json:"postcode"`
}

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     Address   `json:"address"`
	CreatedAt   Timestamp `json:"createdTimestamp"`
	UpdatedAt   Timestamp `json:"updatedTimestamp"`
}

type Account struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	AccountType   string          `json:"accountType"`
	SortCode      string          `json:"sortCode"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     Timestamp       `json:"createdTimestamp"`
	UpdatedAt     Timestamp       `json:"updatedTimestamp"`
}

// UnmarshalJSON accepts "name" as an alias of "accountName"; the backend request
// DTO and some responses use the shorter key.
func (a *Account) UnmarshalJSON(data []byte) error {
	type plain Account
	aux := struct {
		*plain
		Name string `json:"name"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if a.AccountName == "" {
		a.AccountName = aux.Name
	}
	return nil
}

type Transaction struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	UserID        string          `json:"userId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reference     string          `json:"reference,omitempty"`
	CreatedAt     Timestamp       `json:"createdTimestamp"`
}

// Login replies with {jwt} on success and {message} otherwise.
type LoginResult struct {
	JWT string `json:"jwt"`
}

type AccountList struct {
	Accounts []Account `json:"accounts"`
}

type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

// FieldDetail is one entry of the details array on 400 responses.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

package models

import "github.com/shopspring/decimal"

// Request payloads sent to the API. Validation tags are enforced client-side by
// shared/validation before anything is sent.

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AddressInput struct {
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2,omitempty"`
	Line3    string `json:"line3,omitempty"`
	Town     string `json:"town" validate:"required"`
	County   string `json:"county" validate:"required"`
	Postcode string `json:"postcode" validate:"required"`
}

type CreateUserRequest struct {
	Name        string       `json:"name" validate:"required"`
	Email       string       `json:"email" validate:"required,email"`
	Password    string       `json:"password" validate:"required,min=8"`
	PhoneNumber string       `json:"phoneNumber" validate:"required,e164"`
	Address     AddressInput `json:"address"`
}

// UpdateUserRequest leaves the password untouched when it is empty.
type UpdateUserRequest struct {
	Name        string       `json:"name" validate:"required"`
	Email       string       `json:"email" validate:"required,email"`
	Password    string       `json:"password,omitempty" validate:"omitempty,min=8"`
	PhoneNumber string       `json:"phoneNumber" validate:"required,e164"`
	Address     AddressInput `json:"address"`
}

type CreateAccountRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	AccountType string `json:"accountType" validate:"required,oneof=SAVINGS PERSONAL"`
}

// UpdateAccountRequest only changes the fields that are set.
type UpdateAccountRequest struct {
	AccountName string `json:"accountName,omitempty" validate:"omitempty,max=64"`
	AccountType string `json:"accountType,omitempty" validate:"omitempty,oneof=SAVINGS PERSONAL"`
}

// CreateTransactionRequest bounds are checked by validation.Transaction;
// validator tags cannot express decimal ranges.
type CreateTransactionRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type" validate:"required,oneof=DEPOSIT WITHDRAWAL"`
	Currency  string          `json:"currency" validate:"required,oneof=GBP"`
	Reference string          `json:"reference,omitempty" validate:"max=128"`
}

// UserInput converts a fetched user into an update form, mirroring the
// prefill done before editing a profile.
func (u User) UserInput() UpdateUserRequest {
	return UpdateUserRequest{
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address: AddressInput{
			Line1:    u.Address.Line1,
			Line2:    u.Address.Line2,
			Line3:    u.Address.Line3,
			Town:     u.Address.Town,
			County:   u.Address.County,
			Postcode: u.Address.Postcode,
		},
	}
}

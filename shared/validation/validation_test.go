package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/client/shared/models"
)

func validTransaction(amount string) models.CreateTransactionRequest {
	return models.CreateTransactionRequest{
		Amount:   decimal.RequireFromString(amount),
		Type:     models.TransactionTypeDeposit,
		Currency: models.CurrencyGBP,
	}
}

func TestTransactionAmountBounds(t *testing.T) {
	tests := []struct {
		amount string
		ok     bool
	}{
		{"0.00", false},
		{"-5", false},
		{"0.01", true},
		{"100.00", true},
		{"10000.00", true},
		{"10000", true},
		{"10000.01", false},
		{"12.345", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := Transaction(validTransaction(tt.amount))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr), "expected *Error, got %v", err)
			assert.Equal(t, "amount", verr.Fields[0].Field)
		})
	}
}

func TestTransactionFields(t *testing.T) {
	req := validTransaction("10")
	req.Type = "TRANSFER"
	req.Currency = ""
	req.Reference = strings.Repeat("r", 129)

	err := Transaction(req)
	var verr *Error
	require.True(t, errors.As(err, &verr))

	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Type
	}
	assert.Equal(t, map[string]string{
		"type":      "oneof",
		"currency":  "required",
		"reference": "max",
	}, got)
}

func TestStructReportsNestedAddressFields(t *testing.T) {
	req := models.CreateUserRequest{
		Name:        "Alice",
		Email:       "not-an-email",
		Password:    "short",
		PhoneNumber: "01234",
		Address:     models.AddressInput{Line1: "1 High St", Town: "Leeds"},
	}
	err := Struct(req)
	var verr *Error
	require.True(t, errors.As(err, &verr))

	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "Invalid email format", got["email"])
	assert.Equal(t, "Value is too short", got["password"])
	assert.Contains(t, got["phoneNumber"], "international format")
	assert.Equal(t, "This field is required", got["address.county"])
	assert.Equal(t, "This field is required", got["address.postcode"])
	assert.NotContains(t, got, "address.line2")
	assert.Contains(t, verr.Error(), "address.county: This field is required")
}

func TestStructAcceptsCompleteProfile(t *testing.T) {
	req := models.UpdateUserRequest{
		Name:        "Alice",
		Email:       "alice@example.com",
		PhoneNumber: "+441234567890",
		Address: models.AddressInput{
			Line1: "1 High St", Town: "Leeds", County: "West Yorkshire", Postcode: "LS1 1AA",
		},
	}
	assert.NoError(t, Struct(req))
}

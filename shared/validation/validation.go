// Package validation rejects malformed input before it is sent to the API.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/eaglebank/client/shared/models"
)

var validate = validator.New()

var (
	MinTransactionAmount = decimal.RequireFromString("0.01")
	MaxTransactionAmount = decimal.RequireFromString("10000.00")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error is returned when input fails client-side checks. It is never sent.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Struct runs the validator tags of obj and returns nil or *Error.
func Struct(obj any) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &Error{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe),
			Message: getErrorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

// Transaction checks the enum and length tags plus the amount bounds, which
// are inclusive: 0.01 and 10000.00 pass, 0.00 and 10000.01 do not.
func Transaction(req models.CreateTransactionRequest) error {
	var fields []FieldError
	if req.Amount.LessThan(MinTransactionAmount) {
		fields = append(fields, FieldError{
			Field:   "amount",
			Message: "Amount must be at least " + MinTransactionAmount.StringFixed(2),
			Type:    "min",
		})
	} else if req.Amount.GreaterThan(MaxTransactionAmount) {
		fields = append(fields, FieldError{
			Field:   "amount",
			Message: "Amount must not exceed " + MaxTransactionAmount.StringFixed(2),
			Type:    "max",
		})
	} else if !req.Amount.Equal(req.Amount.Truncate(2)) {
		fields = append(fields, FieldError{
			Field:   "amount",
			Message: "Amount must have at most two decimal places",
			Type:    "step",
		})
	}
	if err := Struct(req); err != nil {
		var verr *Error
		if !errors.As(err, &verr) {
			return err
		}
		fields = append(fields, verr.Fields...)
	}
	if len(fields) == 0 {
		return nil
	}
	return &Error{Fields: fields}
}

// fieldPath renders Address.Town as address.town to match the JSON payload.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	segs := strings.Split(ns, ".")
	for i, s := range segs {
		if s != "" {
			segs[i] = strings.ToLower(s[:1]) + s[1:]
		}
	}
	return strings.Join(segs, ".")
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "e164":
		return "Phone number must be in international format, e.g. +441234567890"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "oneof":
		return "Value must be one of: " + err.Param()
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	default:
		return "Invalid value"
	}
}

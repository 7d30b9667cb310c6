package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/eaglebank/client/internal/client"
	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/shared/models"
	"github.com/eaglebank/client/shared/validation"
)

// CreateTransaction posts a deposit or withdrawal. It is never retried.
type CreateTransaction struct {
	lifecycle
	deps          Deps
	userID        string
	accountNumber string
	form          Form
	transaction   models.Transaction
}

func NewCreateTransaction(d Deps) *CreateTransaction {
	return &CreateTransaction{deps: d}
}

func (v *CreateTransaction) location(userID, accountNumber string) navigator.Location {
	return navigator.Location{Route: navigator.CreateTransaction, UserID: userID, AccountNumber: accountNumber}
}

func (v *CreateTransaction) Enter(userID, accountNumber string) navigator.Decision {
	dec := enter(v.deps, v.location(userID, accountNumber))
	if dec.Allowed {
		v.mu.Lock()
		v.userID, v.accountNumber = userID, accountNumber
		v.mu.Unlock()
	}
	return dec
}

func (v *CreateTransaction) State() Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// Transaction is the one created by the last successful Submit.
func (v *CreateTransaction) Transaction() models.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.transaction
}

// Submit validates req, defaulting the currency to GBP, and posts it. Only a
// reply carrying a transaction id moves the navigator to the account view.
func (v *CreateTransaction) Submit(ctx context.Context, req models.CreateTransactionRequest) Form {
	v.mu.Lock()
	userID, accountNumber := v.userID, v.accountNumber
	v.mu.Unlock()
	if accountNumber == "" {
		return Form{Status: Invalid, Message: "create transaction view not entered"}
	}
	if !v.deps.Session.Authenticated() {
		v.deps.Nav.Navigate(v.location(userID, accountNumber))
		return Form{}
	}
	if req.Currency == "" {
		req.Currency = models.CurrencyGBP
	}
	if err := validation.Transaction(req); err != nil {
		f := invalid(err)
		v.applyOpen(func() { v.form = f })
		return f
	}
	gen, ok := v.next(func() { v.form = Form{Status: Loading} })
	if !ok {
		return Form{}
	}

	res, err := v.deps.Bank.CreateTransaction(ctx, accountNumber, req)
	o := classify(res, err, transactionFound, MsgTransactionCreationFailed)
	f := form(o)
	if o.status == UndeclaredError {
		v.deps.logger().Warn("view.CreateTransaction.Submit failed", zap.String("account_number", accountNumber), zap.Error(o.err))
	}
	applied := v.apply(gen, func() {
		v.form = f
		if o.status == Ready {
			v.transaction = res.Body
		}
	})
	if applied && o.status == Ready {
		v.deps.Nav.Navigate(navigator.AccountPage(userID, accountNumber))
	}
	return f
}

func transactionFound(r *client.Response[models.Transaction]) bool { return r.Body.ID != "" }

// TransactionDetail shows one transaction.
type TransactionDetail struct {
	lifecycle
	deps  Deps
	state Loadable[models.Transaction]
}

func NewTransactionDetail(d Deps) *TransactionDetail {
	return &TransactionDetail{deps: d}
}

func (v *TransactionDetail) State() Loadable[models.Transaction] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *TransactionDetail) Load(ctx context.Context, userID, accountNumber, transactionID string) navigator.Decision {
	loc := navigator.Location{
		Route:         navigator.TransactionDetail,
		UserID:        userID,
		AccountNumber: accountNumber,
		TransactionID: transactionID,
	}
	dec := enter(v.deps, loc)
	if !dec.Allowed {
		return dec
	}
	gen, ok := v.next(func() { v.state = Loadable[models.Transaction]{Status: Loading} })
	if !ok {
		return dec
	}
	v.spawn(func() {
		res, err := v.deps.Bank.GetTransaction(ctx, accountNumber, transactionID)
		l := resolve(res, err, transactionFound, identity[models.Transaction], nil, MsgLoadTransactionFailed)
		if l.Status == UndeclaredError {
			v.deps.logger().Warn("view.TransactionDetail.Load failed", zap.String("transaction_id", transactionID), zap.Error(l.Err))
		}
		v.apply(gen, func() { v.state = l })
	})
	return dec
}

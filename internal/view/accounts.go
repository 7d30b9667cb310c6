package view

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eaglebank/client/internal/client"
	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/shared/models"
	"github.com/eaglebank/client/shared/validation"
)

// Accounts lists the accounts of the signed-in user.
type Accounts struct {
	lifecycle
	deps  Deps
	state Loadable[[]models.Account]
}

func NewAccounts(d Deps) *Accounts {
	return &Accounts{deps: d}
}

func (v *Accounts) State() Loadable[[]models.Account] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *Accounts) Load(ctx context.Context, userID string) navigator.Decision {
	dec := enter(v.deps, navigator.AccountsPage(userID))
	if !dec.Allowed {
		return dec
	}
	gen, ok := v.next(func() { v.state = Loadable[[]models.Account]{Status: Loading} })
	if !ok {
		return dec
	}
	v.spawn(func() {
		res, err := v.deps.Bank.ListAccounts(ctx)
		l := resolve(res, err,
			func(r *client.Response[models.AccountList]) bool { return r.Body.Accounts != nil },
			func(b models.AccountList) []models.Account { return b.Accounts },
			func(a []models.Account) bool { return len(a) == 0 },
			MsgLoadAccountsFailed)
		if l.Status == UndeclaredError {
			v.deps.logger().Warn("view.Accounts.Load failed", zap.Error(l.Err))
		}
		v.apply(gen, func() { v.state = l })
	})
	return dec
}

// CreateAccount opens a new account and returns to the list on success.
type CreateAccount struct {
	lifecycle
	deps    Deps
	userID  string
	form    Form
	account models.Account
}

func NewCreateAccount(d Deps) *CreateAccount {
	return &CreateAccount{deps: d}
}

func (v *CreateAccount) Enter(userID string) navigator.Decision {
	dec := enter(v.deps, navigator.Location{Route: navigator.CreateAccount, UserID: userID})
	if dec.Allowed {
		v.mu.Lock()
		v.userID = userID
		v.mu.Unlock()
	}
	return dec
}

func (v *CreateAccount) State() Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// Account is the account opened by the last successful Submit.
func (v *CreateAccount) Account() models.Account {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.account
}

func (v *CreateAccount) Submit(ctx context.Context, req models.CreateAccountRequest) Form {
	v.mu.Lock()
	userID := v.userID
	v.mu.Unlock()
	if userID == "" {
		return Form{Status: Invalid, Message: "create account view not entered"}
	}
	if !v.deps.Session.Authenticated() {
		v.deps.Nav.Navigate(navigator.Location{Route: navigator.CreateAccount, UserID: userID})
		return Form{}
	}
	if err := validation.Struct(req); err != nil {
		f := invalid(err)
		v.applyOpen(func() { v.form = f })
		return f
	}
	gen, ok := v.next(func() { v.form = Form{Status: Loading} })
	if !ok {
		return Form{}
	}

	res, err := v.deps.Bank.CreateAccount(ctx, req)
	o := classify(res, err, accountFound, MsgAccountCreationFailed)
	f := form(o)
	if o.status == UndeclaredError {
		v.deps.logger().Warn("view.CreateAccount.Submit failed", zap.Error(o.err))
	}
	applied := v.apply(gen, func() {
		v.form = f
		if o.status == Ready {
			v.account = res.Body
		}
	})
	if applied && o.status == Ready {
		v.deps.Nav.Navigate(navigator.AccountsPage(userID))
	}
	return f
}

func accountFound(r *client.Response[models.Account]) bool { return r.Body.AccountNumber != "" }

// AccountDetailState is a snapshot of the account view. Account and
// Transactions are fetched independently; either may fail alone.
type AccountDetailState struct {
	Account      Loadable[models.Account]
	Transactions Loadable[[]models.Transaction]
	Update       Form
	Deletion     Form
}

type AccountDetail struct {
	lifecycle
	deps          Deps
	userID        string
	accountNumber string
	state         AccountDetailState
}

func NewAccountDetail(d Deps) *AccountDetail {
	return &AccountDetail{deps: d}
}

func (v *AccountDetail) State() AccountDetailState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load fetches the account and its transactions concurrently. Switching to
// another account before both replies arrive discards the older ones.
func (v *AccountDetail) Load(ctx context.Context, userID, accountNumber string) navigator.Decision {
	dec := enter(v.deps, navigator.AccountPage(userID, accountNumber))
	if !dec.Allowed {
		return dec
	}
	gen, ok := v.next(func() {
		v.userID = userID
		v.accountNumber = accountNumber
		v.state.Account = Loadable[models.Account]{Status: Loading}
		v.state.Transactions = Loadable[[]models.Transaction]{Status: Loading}
		v.state.Update = Form{}
		v.state.Deletion = Form{}
	})
	if !ok {
		return dec
	}

	log := v.deps.logger().With(zap.String("account_number", accountNumber))
	v.spawn(func() {
		// Branches report through v.state and always return nil.
		var g errgroup.Group
		g.Go(func() error {
			res, err := v.deps.Bank.GetAccount(ctx, accountNumber)
			l := resolve(res, err, accountFound, identity[models.Account], nil, MsgLoadAccountFailed)
			if l.Status == UndeclaredError {
				log.Warn("view.AccountDetail.Account failed", zap.Error(l.Err))
			}
			v.apply(gen, func() { v.state.Account = l })
			return nil
		})
		g.Go(func() error {
			res, err := v.deps.Bank.ListTransactions(ctx, accountNumber)
			l := resolve(res, err,
				func(r *client.Response[models.TransactionList]) bool { return r.Body.Transactions != nil },
				func(b models.TransactionList) []models.Transaction { return b.Transactions },
				func(t []models.Transaction) bool { return len(t) == 0 },
				MsgLoadTransactionsFailed)
			if l.Status == UndeclaredError {
				log.Warn("view.AccountDetail.Transactions failed", zap.Error(l.Err))
			}
			v.apply(gen, func() { v.state.Transactions = l })
			return nil
		})
		_ = g.Wait()
	})
	return dec
}

// Update renames or retypes the loaded account. A successful reply replaces
// the displayed account. It runs synchronously.
func (v *AccountDetail) Update(ctx context.Context, req models.UpdateAccountRequest) Form {
	v.mu.Lock()
	userID, accountNumber := v.userID, v.accountNumber
	v.mu.Unlock()
	if accountNumber == "" {
		return Form{Status: Invalid, Message: "no account loaded"}
	}
	if !v.deps.Session.Authenticated() {
		v.deps.Nav.Navigate(navigator.AccountPage(userID, accountNumber))
		return Form{}
	}
	if err := validation.Struct(req); err != nil {
		f := invalid(err)
		v.applyOpen(func() { v.state.Update = f })
		return f
	}
	if !v.applyOpen(func() { v.state.Update = Form{Status: Loading} }) {
		return Form{}
	}

	res, err := v.deps.Bank.UpdateAccount(ctx, accountNumber, req)
	o := classify(res, err, accountFound, MsgUpdateAccountFailed)
	f := form(o)
	if o.status == UndeclaredError {
		v.deps.logger().Warn("view.AccountDetail.Update failed", zap.String("account_number", accountNumber), zap.Error(o.err))
	}
	v.applyOpen(func() {
		v.state.Update = f
		if o.status == Ready {
			v.state.Account = Loadable[models.Account]{Status: Ready, Value: res.Body}
		}
	})
	return f
}

// Delete closes the loaded account and returns to the account list. It runs
// synchronously.
func (v *AccountDetail) Delete(ctx context.Context) Form {
	v.mu.Lock()
	userID, accountNumber := v.userID, v.accountNumber
	v.mu.Unlock()
	if accountNumber == "" {
		return Form{Status: Invalid, Message: "no account loaded"}
	}
	if !v.deps.Session.Authenticated() {
		v.deps.Nav.Navigate(navigator.AccountPage(userID, accountNumber))
		return Form{}
	}
	if !v.applyOpen(func() { v.state.Deletion = Form{Status: Loading} }) {
		return Form{}
	}

	res, err := v.deps.Bank.DeleteAccount(ctx, accountNumber)
	o := classify(res, err, func(r *client.Response[client.Empty]) bool {
		return r.NoContent || is2xx(r.Status)
	}, MsgDeleteAccountFailed)
	f := form(o)
	if o.status == UndeclaredError {
		v.deps.logger().Warn("view.AccountDetail.Delete failed", zap.String("account_number", accountNumber), zap.Error(o.err))
	}
	applied := v.applyOpen(func() { v.state.Deletion = f })
	if applied && o.status == Ready {
		v.deps.Nav.Navigate(navigator.AccountsPage(userID))
	}
	return f
}

package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/eaglebank/client/internal/client"
	"github.com/eaglebank/client/internal/credential"
	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/internal/session"
	"github.com/eaglebank/client/shared/models"
	"github.com/eaglebank/client/shared/validation"
)

// Login is the anonymous entry point.
type Login struct {
	lifecycle
	deps    Deps
	prefill string
	form    Form
}

func NewLogin(d Deps) *Login {
	return &Login{deps: d}
}

// Enter renders the login route and captures any one-shot prefill carried to
// it, typically the id of a user who has just registered.
func (v *Login) Enter() navigator.Decision {
	dec := enter(v.deps, navigator.LoginPage())
	prefill := v.deps.Nav.Current().State[navigator.PrefillUsername]
	v.mu.Lock()
	v.prefill = prefill
	v.mu.Unlock()
	return dec
}

// Prefill is the username shown in the form when it first renders.
func (v *Login) Prefill() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.prefill
}

func (v *Login) State() Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// Submit logs in. On success the credential is stored and the navigator moves
// to the profile of the user named by the token, or of the typed username when
// the token carries no user id.
func (v *Login) Submit(ctx context.Context, req models.LoginRequest) Form {
	if err := validation.Struct(req); err != nil {
		f := invalid(err)
		v.applyOpen(func() { v.form = f })
		return f
	}
	gen, ok := v.next(func() { v.form = Form{Status: Loading} })
	if !ok {
		return Form{}
	}

	res, err := v.deps.Bank.Login(ctx, req)
	o := classify(res, err, func(r *client.Response[models.LoginResult]) bool {
		return r.Body.JWT != ""
	}, MsgLoginFailed)
	f := form(o)
	if o.status == UndeclaredError {
		v.deps.logger().Warn("view.Login.Submit failed", zap.Error(o.err))
	}

	applied := v.apply(gen, func() { v.form = f })
	if !applied || o.status != Ready {
		return f
	}

	tok := credential.Token(res.Body.JWT)
	v.deps.Session.Set(ctx, tok)
	userID := req.Username
	if claims, err := session.ParseClaims(tok); err == nil && claims.UserID != "" {
		userID = claims.UserID
	}
	v.deps.Nav.Navigate(navigator.ProfilePage(userID))
	return f
}

// Register creates a user and hands the new id to the login view.
type Register struct {
	lifecycle
	deps Deps
	form Form
	user models.User
}

func NewRegister(d Deps) *Register {
	return &Register{deps: d}
}

func (v *Register) Enter() navigator.Decision {
	return enter(v.deps, navigator.Location{Route: navigator.Register})
}

func (v *Register) State() Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// User is the user created by the last successful Submit.
func (v *Register) User() models.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.user
}

func (v *Register) Submit(ctx context.Context, req models.CreateUserRequest) Form {
	if err := validation.Struct(req); err != nil {
		f := invalid(err)
		v.applyOpen(func() { v.form = f })
		return f
	}
	gen, ok := v.next(func() { v.form = Form{Status: Loading} })
	if !ok {
		return Form{}
	}

	res, err := v.deps.Bank.CreateUser(ctx, req)
	o := classify(res, err, func(r *client.Response[models.User]) bool {
		return r.Body.ID != ""
	}, MsgRegistrationFailed)
	f := form(o)
	if o.status == UndeclaredError {
		v.deps.logger().Warn("view.Register.Submit failed", zap.Error(o.err))
	}

	applied := v.apply(gen, func() {
		v.form = f
		if o.status == Ready {
			v.user = res.Body
		}
	})
	if applied && o.status == Ready {
		v.deps.Nav.Navigate(navigator.LoginPage().WithState(navigator.PrefillUsername, res.Body.ID))
	}
	return f
}

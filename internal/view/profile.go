package view

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/eaglebank/client/internal/client"
	"github.com/eaglebank/client/internal/credential"
	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/shared/models"
	"github.com/eaglebank/client/shared/validation"
)

// DeletionPolicy decides which delete-user replies count as success.
type DeletionPolicy int

const (
	// StrictDeletion accepts a bodiless 2xx or a 2xx body without a message.
	StrictDeletion DeletionPolicy = iota
	// LenientDeletion accepts any reply that arrived and decoded, whatever its
	// status or message.
	LenientDeletion
)

func ParseDeletionPolicy(s string) (DeletionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return StrictDeletion, nil
	case "lenient":
		return LenientDeletion, nil
	default:
		return StrictDeletion, fmt.Errorf("unknown delete-user policy %q", s)
	}
}

func (p DeletionPolicy) String() string {
	if p == LenientDeletion {
		return "lenient"
	}
	return "strict"
}

func (p DeletionPolicy) accepts(res *client.Response[client.Empty], err error) bool {
	if err != nil {
		return false
	}
	if p == LenientDeletion {
		return true
	}
	return res.NoContent || (is2xx(res.Status) && res.Message == "")
}

// ProfileState is a snapshot of the profile view.
type ProfileState struct {
	User     Loadable[models.User]
	Deletion Form
}

// Profile shows one user and offers deletion and logout.
type Profile struct {
	lifecycle
	deps   Deps
	policy DeletionPolicy

	userID      string
	state       ProfileState
	invalidated atomic.Bool
}

type ProfileOption func(*Profile)

func WithDeletionPolicy(p DeletionPolicy) ProfileOption {
	return func(v *Profile) { v.policy = p }
}

func NewProfile(d Deps, opts ...ProfileOption) *Profile {
	v := &Profile{deps: d}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Profile) State() ProfileState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load enters the profile route for userID and fetches the user. Nothing is
// fetched when the guard redirects.
func (v *Profile) Load(ctx context.Context, userID string) navigator.Decision {
	dec := enter(v.deps, navigator.ProfilePage(userID))
	if !dec.Allowed {
		return dec
	}
	gen, ok := v.next(func() {
		v.userID = userID
		v.state.User = Loadable[models.User]{Status: Loading}
	})
	if !ok {
		return dec
	}
	v.spawn(func() {
		res, err := v.deps.Bank.GetUser(ctx, userID)
		l := resolve(res, err, userFound, identity[models.User], nil, MsgLoadUserFailed)
		if l.Status == UndeclaredError {
			v.deps.logger().Warn("view.Profile.Load failed", zap.String("user_id", userID), zap.Error(l.Err))
		}
		v.apply(gen, func() { v.state.User = l })
	})
	return dec
}

// Delete removes the loaded user. On success the credential is cleared and the
// navigator moves to login exactly once, even when the view has been closed
// before the reply arrives.
func (v *Profile) Delete(ctx context.Context) {
	v.mu.Lock()
	userID := v.userID
	v.mu.Unlock()
	if userID == "" {
		return
	}
	if !v.deps.Session.Authenticated() {
		v.deps.Nav.Navigate(navigator.LoginPage())
		return
	}
	v.applyOpen(func() { v.state.Deletion = Form{Status: Loading} })
	issuedWith, _ := v.deps.Session.Credential()

	v.spawn(func() {
		res, err := v.deps.Bank.DeleteUser(ctx, userID)
		if v.policy.accepts(res, err) {
			v.invalidate(ctx, issuedWith)
			v.applyOpen(func() { v.state.Deletion = Form{Status: Ready} })
			return
		}
		o := classify(res, err, func(r *client.Response[client.Empty]) bool { return false }, MsgDeleteUserFailed)
		if o.status == UndeclaredError {
			v.deps.logger().Warn("view.Profile.Delete failed", zap.String("user_id", userID), zap.Error(o.err))
		}
		v.applyOpen(func() { v.state.Deletion = form(o) })
	})
}

// invalidate ends the session the delete was sent with. A credential set
// since then belongs to a newer login and is left alone.
func (v *Profile) invalidate(ctx context.Context, issuedWith credential.Token) {
	if !v.invalidated.CompareAndSwap(false, true) {
		return
	}
	if cur, ok := v.deps.Session.Credential(); !ok || cur != issuedWith {
		v.deps.logger().Info("view.Profile.Delete succeeded after the session changed, keeping it")
		return
	}
	v.deps.logger().Info("view.Profile.Delete succeeded, ending session")
	v.deps.Session.Clear(ctx)
	v.deps.Nav.Navigate(navigator.LoginPage())
}

// Logout clears the credential and returns to login.
func (v *Profile) Logout(ctx context.Context) {
	Logout(ctx, v.deps)
}

// Logout clears the credential and returns to login.
func Logout(ctx context.Context, d Deps) navigator.Decision {
	d.Session.Clear(ctx)
	return d.Nav.Navigate(navigator.LoginPage())
}

func userFound(r *client.Response[models.User]) bool { return r.Body.ID != "" }

// UpdateProfileState is a snapshot of the update-profile view. Input is the
// form prefilled from the loaded user, with the password left blank.
type UpdateProfileState struct {
	User  Loadable[models.User]
	Input models.UpdateUserRequest
	Form  Form
}

type UpdateProfile struct {
	lifecycle
	deps   Deps
	userID string
	state  UpdateProfileState
}

func NewUpdateProfile(d Deps) *UpdateProfile {
	return &UpdateProfile{deps: d}
}

func (v *UpdateProfile) State() UpdateProfileState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *UpdateProfile) Load(ctx context.Context, userID string) navigator.Decision {
	loc := navigator.Location{Route: navigator.UpdateProfile, UserID: userID}
	dec := enter(v.deps, loc)
	if !dec.Allowed {
		return dec
	}
	gen, ok := v.next(func() {
		v.userID = userID
		v.state.User = Loadable[models.User]{Status: Loading}
	})
	if !ok {
		return dec
	}
	v.spawn(func() {
		res, err := v.deps.Bank.GetUser(ctx, userID)
		l := resolve(res, err, userFound, identity[models.User], nil, MsgLoadUserFailed)
		if l.Status == UndeclaredError {
			v.deps.logger().Warn("view.UpdateProfile.Load failed", zap.String("user_id", userID), zap.Error(l.Err))
		}
		v.apply(gen, func() {
			v.state.User = l
			if l.Status == Ready {
				v.state.Input = l.Value.UserInput()
			}
		})
	})
	return dec
}

// Submit sends the edited profile of the loaded user and returns to the
// profile on success. An empty password leaves it unchanged.
func (v *UpdateProfile) Submit(ctx context.Context, req models.UpdateUserRequest) Form {
	v.mu.Lock()
	userID := v.userID
	v.mu.Unlock()
	if userID == "" {
		return Form{Status: Invalid, Message: "no profile loaded"}
	}
	if !v.deps.Session.Authenticated() {
		v.deps.Nav.Navigate(navigator.Location{Route: navigator.UpdateProfile, UserID: userID})
		return Form{}
	}
	if err := validation.Struct(req); err != nil {
		f := invalid(err)
		v.applyOpen(func() { v.state.Form = f })
		return f
	}
	if !v.applyOpen(func() { v.state.Form = Form{Status: Loading} }) {
		return Form{}
	}

	res, err := v.deps.Bank.UpdateUser(ctx, userID, req)
	o := classify(res, err, userFound, MsgUpdateFailed)
	f := form(o)
	if o.status == UndeclaredError {
		v.deps.logger().Warn("view.UpdateProfile.Submit failed", zap.String("user_id", userID), zap.Error(o.err))
	}
	applied := v.applyOpen(func() {
		v.state.Form = f
		if o.status == Ready {
			v.state.User = Loadable[models.User]{Status: Ready, Value: res.Body}
		}
	})
	if applied && o.status == Ready {
		v.deps.Nav.Navigate(navigator.ProfilePage(userID))
	}
	return f
}

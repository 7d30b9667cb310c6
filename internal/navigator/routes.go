// Package navigator maps screens to paths and decides which of them may be
// entered in the current session state.
package navigator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Route string

const (
	Login             Route = "login"
	Register          Route = "register"
	Profile           Route = "profile"
	UpdateProfile     Route = "update-profile"
	Accounts          Route = "accounts"
	CreateAccount     Route = "create-account"
	AccountDetail     Route = "account-detail"
	CreateTransaction Route = "create-transaction"
	TransactionDetail Route = "transaction-detail"
)

// Guarded reports whether the route requires an Authenticated session. Only
// login and register are open to anonymous users.
func (r Route) Guarded() bool {
	return r != Login && r != Register
}

// PrefillUsername is the one-shot state key carrying a freshly registered id
// to the login screen.
const PrefillUsername = "prefillUsername"

// Location is a route plus its path parameters. State is transient and only
// survives a single navigation.
type Location struct {
	Route         Route
	UserID        string
	AccountNumber string
	TransactionID string
	State         map[string]string
}

func LoginPage() Location { return Location{Route: Login} }

func ProfilePage(userID string) Location {
	return Location{Route: Profile, UserID: userID}
}

func AccountsPage(userID string) Location {
	return Location{Route: Accounts, UserID: userID}
}

func AccountPage(userID, accountNumber string) Location {
	return Location{Route: AccountDetail, UserID: userID, AccountNumber: accountNumber}
}

// WithState returns a copy of l carrying a single state entry.
func (l Location) WithState(key, value string) Location {
	state := make(map[string]string, len(l.State)+1)
	for k, v := range l.State {
		state[k] = v
	}
	state[key] = value
	l.State = state
	return l
}

// withoutState drops the one-shot state.
func (l Location) withoutState() Location {
	l.State = nil
	return l
}

// Same reports whether two locations point at the same screen, ignoring state.
func (l Location) Same(o Location) bool {
	return l.Route == o.Route && l.UserID == o.UserID &&
		l.AccountNumber == o.AccountNumber && l.TransactionID == o.TransactionID
}

// Path renders the location, e.g. /user/usr-1/accounts/01234567.
func (l Location) Path() string {
	user := "/user/" + url.PathEscape(l.UserID)
	account := user + "/accounts/" + url.PathEscape(l.AccountNumber)
	switch l.Route {
	case Login:
		return "/"
	case Register:
		return "/register"
	case Profile:
		return user
	case UpdateProfile:
		return user + "/update"
	case Accounts:
		return user + "/accounts"
	case CreateAccount:
		return user + "/accounts/create"
	case AccountDetail:
		return account
	case CreateTransaction:
		return account + "/transactions/create"
	case TransactionDetail:
		return account + "/transactions/" + url.PathEscape(l.TransactionID)
	default:
		return "/"
	}
}

func (l Location) String() string { return l.Path() }

var ErrUnknownPath = errors.New("unknown path")

// Parse maps a path produced by Path back to its location. The literal
// "create" segment is never read as an account number or transaction id.
func Parse(path string) (Location, error) {
	raw := strings.Trim(strings.TrimSpace(path), "/")
	if raw == "" {
		return LoginPage(), nil
	}
	segs := strings.Split(raw, "/")
	for i, s := range segs {
		decoded, err := url.PathUnescape(s)
		if err != nil || decoded == "" {
			return Location{}, fmt.Errorf("%w: %q", ErrUnknownPath, path)
		}
		segs[i] = decoded
	}

	if len(segs) == 1 && segs[0] == "register" {
		return Location{Route: Register}, nil
	}
	if segs[0] != "user" || len(segs) < 2 {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}

	loc := Location{UserID: segs[1]}
	rest := segs[2:]
	switch {
	case len(rest) == 0:
		loc.Route = Profile
	case len(rest) == 1 && rest[0] == "update":
		loc.Route = UpdateProfile
	case len(rest) == 1 && rest[0] == "accounts":
		loc.Route = Accounts
	case len(rest) == 2 && rest[0] == "accounts" && rest[1] == "create":
		loc.Route = CreateAccount
	case len(rest) == 2 && rest[0] == "accounts":
		loc.Route = AccountDetail
		loc.AccountNumber = rest[1]
	case len(rest) == 4 && rest[0] == "accounts" && rest[1] != "create" && rest[2] == "transactions":
		loc.AccountNumber = rest[1]
		if rest[3] == "create" {
			loc.Route = CreateTransaction
		} else {
			loc.Route = TransactionDetail
			loc.TransactionID = rest[3]
		}
	default:
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	return loc, nil
}

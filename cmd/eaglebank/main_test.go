package main

import (
	"bytes"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/client/internal/banktest"
	"github.com/eaglebank/client/shared/models"
)

const testPassword = "correct-horse"

type cli struct {
	t       *testing.T
	srv     *banktest.Server
	session string
	config  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := banktest.New()
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	return &cli{
		t:       t,
		srv:     srv,
		session: filepath.Join(dir, "session.json"),
		config:  filepath.Join(dir, "absent.yaml"),
	}
}

func (c *cli) run(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	args = append(args,
		"--api", c.srv.URL(),
		"--store", "file",
		"--session-file", c.session,
		"--config", c.config,
	)
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (c *cli) addUser() models.User {
	return c.srv.AddUser(models.CreateUserRequest{
		Name:        "Alice",
		Email:       "alice@example.com",
		Password:    testPassword,
		PhoneNumber: "+441234567890",
		Address: models.AddressInput{
			Line1: "1 High St", Town: "Leeds", County: "West Yorkshire", Postcode: "LS1 1AA",
		},
	})
}

func TestLoginPromptsForPassword(t *testing.T) {
	c := newCLI(t)
	u := c.addUser()

	code, out, errOut := c.run(testPassword+"\n", "login", "--username", u.ID)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "logged in as "+u.ID)
	assert.Contains(t, errOut, "Password: ")

	code, out, _ = c.run("", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "authenticated: true")
	assert.Contains(t, out, "user: "+u.ID)
	assert.Contains(t, out, "store: file")
}

func TestLoginWrongPassword(t *testing.T) {
	c := newCLI(t)
	u := c.addUser()

	code, _, errOut := c.run("", "login", "-u", u.ID, "-p", "wrong-password")
	assert.Equal(t, 1, code)
	assert.Equal(t, "error: Invalid credentials\n", errOut)
}

func TestAccountAndTransactionFlow(t *testing.T) {
	c := newCLI(t)
	u := c.addUser()
	code, _, errOut := c.run("", "login", "-u", u.ID, "-p", testPassword)
	require.Equal(t, 0, code, errOut)

	code, out, _ := c.run("", "accounts", "list")
	require.Equal(t, 0, code)
	assert.Equal(t, "no accounts\n", out)

	code, out, errOut = c.run("", "accounts", "create", "--name", "Holiday", "--type", "savings")
	require.Equal(t, 0, code, errOut)
	m := regexp.MustCompile(`number:\s+(01\d{6})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	number := m[1]

	code, out, errOut = c.run("", "tx", "create", number, "--amount", "10.50", "--reference", "pocket money")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "10.50 GBP")
	bal, ok := c.srv.Balance(number)
	require.True(t, ok)
	assert.True(t, bal.Equal(decimal.RequireFromString("10.50")))

	code, _, errOut = c.run("", "tx", "create", number, "--amount", "0")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: invalid input\n  amount: ")

	code, _, errOut = c.run("", "tx", "create", number, "--amount", "50", "--type", "withdrawal")
	assert.Equal(t, 1, code)
	assert.Equal(t, "error: Insufficient funds for this transaction\n", errOut)

	code, out, _ = c.run("", "accounts", "show", number)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Holiday")
	assert.Contains(t, out, "pocket money")

	code, out, errOut = c.run("", "accounts", "update", number, "--name", "Rainy Day")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Rainy Day")
	assert.Equal(t, "Rainy Day", c.srv.Accounts(u.ID)[0].AccountName)

	code, _, errOut = c.run("", "accounts", "update", number, "--type", "gold")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: invalid input\n  accountType: ")
	assert.Equal(t, 1, c.srv.Count(http.MethodPatch, "/v1/accounts/"+number))

	code, out, _ = c.run("", "open", "/user/"+u.ID+"/accounts")
	require.Equal(t, 0, code)
	assert.Contains(t, out, number)

	code, out, errOut = c.run("", "accounts", "delete", number)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "deleted account "+number+"\n", out)

	code, _, errOut = c.run("", "accounts", "show", number)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Account not found")
}

func TestLogoutThenGuardedCommandRedirects(t *testing.T) {
	c := newCLI(t)
	u := c.addUser()
	code, _, _ := c.run("", "login", "-u", u.ID, "-p", testPassword)
	require.Equal(t, 0, code)

	code, out, _ := c.run("", "logout")
	require.Equal(t, 0, code)
	assert.Equal(t, "logged out\n", out)

	before := len(c.srv.Requests())
	code, _, errOut := c.run("", "user", "show", "--user", u.ID)
	assert.Equal(t, 1, code)
	assert.Equal(t, "redirected to /: login required\n", errOut)

	code, _, errOut = c.run("", "accounts", "list")
	assert.Equal(t, 1, code)
	assert.Equal(t, "redirected to /: login required\n", errOut)
	assert.Len(t, c.srv.Requests(), before)
}

func TestRegisterAndLogin(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("", "register",
		"--name", "Bob", "--email", "bob@example.com", "--phone", "+447700900123",
		"--password", testPassword, "--line1", "2 Low Rd", "--town", "York",
		"--county", "North Yorkshire", "--postcode", "YO1 7HH", "--login")
	require.Equal(t, 0, code, errOut)

	m := regexp.MustCompile(`registered user (usr-\w+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	assert.Contains(t, out, "logged in as "+m[1])

	code, out, _ = c.run("", "user", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "bob@example.com")
	assert.Contains(t, out, "2 Low Rd, York, North Yorkshire, YO1 7HH")
}

func TestRegisterValidation(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("", "register", "--name", "Bob", "--email", "nope", "--password", "short")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: invalid input\n")
	assert.Contains(t, errOut, "  email: ")
	assert.Equal(t, 0, c.srv.Count(http.MethodPost, "/v1/users"))
}

func TestUserUpdateKeepsUnsetFields(t *testing.T) {
	c := newCLI(t)
	u := c.addUser()
	code, _, _ := c.run("", "login", "-u", u.ID, "-p", testPassword)
	require.Equal(t, 0, code)

	code, out, errOut := c.run("", "user", "update", "--town", "Bradford")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "1 High St, Bradford, West Yorkshire")
	assert.Contains(t, out, "alice@example.com")
}

func TestUserDelete(t *testing.T) {
	c := newCLI(t)
	u := c.addUser()
	code, _, _ := c.run("", "login", "-u", u.ID, "-p", testPassword)
	require.Equal(t, 0, code)

	code, out, errOut := c.run("", "user", "delete")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "deleted user "+u.ID+"; logged out\n", out)

	code, out, _ = c.run("", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "authenticated: false")
}

func TestOpenUnknownPath(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("", "open", "/nowhere")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown path")
}

func TestInvalidStoreFlag(t *testing.T) {
	c := newCLI(t)
	var out, errOut bytes.Buffer
	code := run([]string{"status", "--store", "s3", "--config", c.config}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Equal(t, "error: unknown session store \"s3\"\n", errOut.String())
}

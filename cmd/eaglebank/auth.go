package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eaglebank/client/internal/view"
	"github.com/eaglebank/client/shared/models"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := view.NewLogin(a.deps())
			v.Enter()
			return a.login(cmd, v, username, password)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "user id")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

// login submits v, falling back to its prefill for the username and to a
// prompt for the password.
func (a *app) login(cmd *cobra.Command, v *view.Login, username, password string) error {
	if username == "" {
		username = v.Prefill()
	}
	if username == "" {
		return errors.New("--username is required")
	}
	if password == "" {
		var err error
		if password, err = a.readPassword(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	f := v.Submit(cmd.Context(), models.LoginRequest{Username: username, Password: password})
	if err := formError(f); err != nil {
		return err
	}
	id := username
	if claims, ok := a.sess.Claims(); ok && claims.UserID != "" {
		id = claims.UserID
	}
	fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", id)
	return nil
}

func (a *app) readPassword(prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprint(prompt, "\n")
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view.Logout(cmd.Context(), a.deps())
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "api: %s\n", a.bank.BaseURL())
			store := a.cfg.Session.Store
			if a.sess.Degraded() {
				store += " (degraded)"
			}
			fmt.Fprintf(out, "store: %s\n", store)
			fmt.Fprintf(out, "authenticated: %t\n", a.sess.Authenticated())

			claims, ok := a.sess.Claims()
			if !ok {
				return nil
			}
			if claims.UserID != "" {
				fmt.Fprintf(out, "user: %s\n", claims.UserID)
			}
			if claims.Email != "" {
				fmt.Fprintf(out, "email: %s\n", claims.Email)
			}
			if claims.ExpiresAt != nil {
				suffix := ""
				if claims.Expired(time.Now()) {
					suffix = " (expired)"
				}
				fmt.Fprintf(out, "expires: %s%s\n", claims.ExpiresAt.Time.Local().Format(time.RFC3339), suffix)
			}
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		req      models.CreateUserRequest
		andLogin bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := view.NewRegister(a.deps())
			v.Enter()
			if err := formError(v.Submit(cmd.Context(), req)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered user %s\n", v.User().ID)
			if !andLogin {
				return nil
			}

			// the navigator now sits on login carrying the new id
			login := view.NewLogin(a.deps())
			login.Enter()
			return a.login(cmd, login, "", req.Password)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "full name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.PhoneNumber, "phone", "", "phone number in E.164 form")
	f.StringVar(&req.Password, "password", "", "password, at least 8 characters")
	addAddressFlags(cmd, &req.Address)
	f.BoolVar(&andLogin, "login", false, "log in as the new user")
	return cmd
}

func addAddressFlags(cmd *cobra.Command, addr *models.AddressInput) {
	f := cmd.Flags()
	f.StringVar(&addr.Line1, "line1", "", "address line 1")
	f.StringVar(&addr.Line2, "line2", "", "address line 2")
	f.StringVar(&addr.Line3, "line3", "", "address line 3")
	f.StringVar(&addr.Town, "town", "", "town")
	f.StringVar(&addr.County, "county", "", "county")
	f.StringVar(&addr.Postcode, "postcode", "", "postcode")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/internal/view"
)

// newOpenCmd renders any route by path, e.g. "open /user/usr-1/accounts".
// Form routes are only entered; their input comes from the dedicated commands.
func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Render the screen at a route path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := navigator.Parse(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			d := a.deps()

			switch loc.Route {
			case navigator.Profile:
				return a.showProfile(cmd, loc.UserID)
			case navigator.Accounts:
				return a.listAccounts(cmd, loc.UserID)
			case navigator.AccountDetail:
				return a.showAccount(cmd, loc.UserID, loc.AccountNumber, true)
			case navigator.TransactionDetail:
				return a.showTransaction(cmd, loc.UserID, loc.AccountNumber, loc.TransactionID)
			case navigator.UpdateProfile:
				v := view.NewUpdateProfile(d)
				if err := decisionError(v.Load(cmd.Context(), loc.UserID)); err != nil {
					return err
				}
				v.Wait()
				if err := loadError(v.State().User); err != nil {
					return err
				}
				printUser(out, v.State().User.Value)
			case navigator.CreateAccount:
				if err := decisionError(view.NewCreateAccount(d).Enter(loc.UserID)); err != nil {
					return err
				}
			case navigator.CreateTransaction:
				if err := decisionError(view.NewCreateTransaction(d).Enter(loc.UserID, loc.AccountNumber)); err != nil {
					return err
				}
			case navigator.Register:
				view.NewRegister(d).Enter()
			default:
				view.NewLogin(d).Enter()
			}
			fmt.Fprintf(out, "at %s\n", a.nav.Current().Path())
			return nil
		},
	}
}

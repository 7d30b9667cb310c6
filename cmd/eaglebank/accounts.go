package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/eaglebank/client/internal/view"
	"github.com/eaglebank/client/shared/models"
)

func newAccountsCmd(a *app) *cobra.Command {
	var userFlag string
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage bank accounts",
	}
	cmd.PersistentFlags().StringVar(&userFlag, "user", "", "user id (default: from the stored credential)")

	var create models.CreateAccountRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := a.userID(userFlag)
			if err != nil {
				return err
			}
			v := view.NewCreateAccount(a.deps())
			if err := decisionError(v.Enter(uid)); err != nil {
				return err
			}
			create.AccountType = strings.ToUpper(create.AccountType)
			if err := a.submitted(v.Submit(cmd.Context(), create)); err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), v.Account())
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "account name")
	createCmd.Flags().StringVar(&create.AccountType, "type", models.AccountTypePersonal, "PERSONAL or SAVINGS")

	var update models.UpdateAccountRequest
	updateCmd := &cobra.Command{
		Use:   "update <account-number>",
		Short: "Rename or retype an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := a.userID(userFlag)
			if err != nil {
				return err
			}
			v := view.NewAccountDetail(a.deps())
			if err := decisionError(v.Load(cmd.Context(), uid, args[0])); err != nil {
				return err
			}
			v.Wait()
			if err := loadError(v.State().Account); err != nil {
				return err
			}
			req := update
			req.AccountType = strings.ToUpper(req.AccountType)
			if err := a.submitted(v.Update(cmd.Context(), req)); err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), v.State().Account.Value)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&update.AccountName, "name", "", "new account name")
	updateCmd.Flags().StringVar(&update.AccountType, "type", "", "PERSONAL or SAVINGS")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				uid, err := a.userID(userFlag)
				if err != nil {
					return err
				}
				return a.listAccounts(cmd, uid)
			},
		},
		createCmd,
		updateCmd,
		&cobra.Command{
			Use:   "show <account-number>",
			Short: "Show an account and its transactions",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				uid, err := a.userID(userFlag)
				if err != nil {
					return err
				}
				return a.showAccount(cmd, uid, args[0], true)
			},
		},
		&cobra.Command{
			Use:   "delete <account-number>",
			Short: "Close an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				uid, err := a.userID(userFlag)
				if err != nil {
					return err
				}
				v := view.NewAccountDetail(a.deps())
				if err := decisionError(v.Load(cmd.Context(), uid, args[0])); err != nil {
					return err
				}
				v.Wait()
				if err := a.submitted(v.Delete(cmd.Context())); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted account %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func (a *app) listAccounts(cmd *cobra.Command, uid string) error {
	v := view.NewAccounts(a.deps())
	if err := decisionError(v.Load(cmd.Context(), uid)); err != nil {
		return err
	}
	v.Wait()
	st := v.State()
	if err := loadError(st); err != nil {
		return err
	}
	if st.Status == view.Empty {
		fmt.Fprintln(cmd.OutOrStdout(), "no accounts")
		return nil
	}
	printAccounts(cmd.OutOrStdout(), st.Value)
	return nil
}

// showAccount prints both halves of the account view. Each half reports its
// own failure; the command fails when the account itself could not be read.
func (a *app) showAccount(cmd *cobra.Command, uid, number string, withAccount bool) error {
	v := view.NewAccountDetail(a.deps())
	if err := decisionError(v.Load(cmd.Context(), uid, number)); err != nil {
		return err
	}
	v.Wait()
	st := v.State()
	out := cmd.OutOrStdout()

	accErr := loadError(st.Account)
	if withAccount {
		if accErr == nil {
			printAccount(out, st.Account.Value)
			fmt.Fprintln(out)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "account: %v\n", accErr)
		}
	}

	txErr := loadError(st.Transactions)
	switch {
	case txErr != nil:
		if !withAccount {
			return txErr
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "transactions: %v\n", txErr)
	case st.Transactions.Status == view.Empty:
		fmt.Fprintln(out, "no transactions")
	default:
		printTransactions(out, st.Transactions.Value)
	}
	if withAccount {
		return accErr
	}
	return nil
}

func newTxCmd(a *app) *cobra.Command {
	var userFlag string
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Create, list or show transactions",
	}
	cmd.PersistentFlags().StringVar(&userFlag, "user", "", "user id (default: from the stored credential)")

	var (
		amount string
		create models.CreateTransactionRequest
	)
	createCmd := &cobra.Command{
		Use:   "create <account-number>",
		Short: "Deposit into or withdraw from an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := a.userID(userFlag)
			if err != nil {
				return err
			}
			v := view.NewCreateTransaction(a.deps())
			if err := decisionError(v.Enter(uid, args[0])); err != nil {
				return err
			}
			req := create
			if req.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("invalid amount %q", amount)
			}
			req.Type = strings.ToUpper(req.Type)
			if err := a.submitted(v.Submit(cmd.Context(), req)); err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), v.Transaction())
			return nil
		},
	}
	createCmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50")
	createCmd.Flags().StringVar(&create.Type, "type", models.TransactionTypeDeposit, "DEPOSIT or WITHDRAWAL")
	createCmd.Flags().StringVar(&create.Currency, "currency", models.CurrencyGBP, "currency")
	createCmd.Flags().StringVar(&create.Reference, "reference", "", "reference")

	cmd.AddCommand(
		createCmd,
		&cobra.Command{
			Use:   "list <account-number>",
			Short: "List the transactions of an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				uid, err := a.userID(userFlag)
				if err != nil {
					return err
				}
				return a.showAccount(cmd, uid, args[0], false)
			},
		},
		&cobra.Command{
			Use:   "show <account-number> <transaction-id>",
			Short: "Show one transaction",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				uid, err := a.userID(userFlag)
				if err != nil {
					return err
				}
				return a.showTransaction(cmd, uid, args[0], args[1])
			},
		},
	)
	return cmd
}

func (a *app) showTransaction(cmd *cobra.Command, uid, number, id string) error {
	v := view.NewTransactionDetail(a.deps())
	if err := decisionError(v.Load(cmd.Context(), uid, number, id)); err != nil {
		return err
	}
	v.Wait()
	st := v.State()
	if err := loadError(st); err != nil {
		return err
	}
	printTransaction(cmd.OutOrStdout(), st.Value)
	return nil
}

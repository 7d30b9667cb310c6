package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/internal/view"
	"github.com/eaglebank/client/shared/models"
)

// redirectError reports that the guard sent the command to the login route.
type redirectError struct {
	Path string
}

func (e *redirectError) Error() string {
	return fmt.Sprintf("redirected to %s: login required", e.Path)
}

func decisionError(d navigator.Decision) error {
	if d.Allowed {
		return nil
	}
	return &redirectError{Path: d.Redirect.Path()}
}

// formError turns a failed submission into an error, one line per field.
func formError(f view.Form) error {
	if !f.Status.Failed() {
		return nil
	}
	msg := f.Message
	if f.Status == view.Invalid && len(f.Fields) > 0 {
		msg = "invalid input"
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, fe := range f.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", fe.Field, fe.Message)
	}
	return errors.New(b.String())
}

func loadError[T any](l view.Loadable[T]) error {
	switch l.Status {
	case view.DeclaredError, view.UndeclaredError:
		return errors.New(l.Message)
	}
	return nil
}

// submitted maps the result of a submission. An idle form means the guard
// refused to send it.
func (a *app) submitted(f view.Form) error {
	if f.Status == view.Idle {
		if cur := a.nav.Current(); cur.Route == navigator.Login {
			return &redirectError{Path: cur.Path()}
		}
	}
	return formError(f)
}

func printUser(w io.Writer, u models.User) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", u.ID)
	fmt.Fprintf(tw, "name:\t%s\n", u.Name)
	fmt.Fprintf(tw, "email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "phone:\t%s\n", u.PhoneNumber)
	fmt.Fprintf(tw, "address:\t%s\n", formatAddress(u.Address))
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "created:\t%s\n", u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
}

func formatAddress(a models.Address) string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.Line3, a.Town, a.County, a.Postcode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func printAccount(w io.Writer, acc models.Account) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "number:\t%s\n", acc.AccountNumber)
	fmt.Fprintf(tw, "name:\t%s\n", acc.AccountName)
	fmt.Fprintf(tw, "type:\t%s\n", acc.AccountType)
	fmt.Fprintf(tw, "sort code:\t%s\n", acc.SortCode)
	fmt.Fprintf(tw, "balance:\t%s %s\n", acc.Balance.StringFixed(2), acc.Currency)
	_ = tw.Flush()
}

func printAccounts(w io.Writer, accounts []models.Account) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tTYPE\tBALANCE")
	for _, acc := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\n", acc.AccountNumber, acc.AccountName, acc.AccountType,
			acc.Balance.StringFixed(2), acc.Currency)
	}
	_ = tw.Flush()
}

func printTransaction(w io.Writer, tx models.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", tx.ID)
	fmt.Fprintf(tw, "type:\t%s\n", tx.Type)
	fmt.Fprintf(tw, "amount:\t%s %s\n", tx.Amount.StringFixed(2), tx.Currency)
	if tx.Reference != "" {
		fmt.Fprintf(tw, "reference:\t%s\n", tx.Reference)
	}
	if !tx.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "created:\t%s\n", tx.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
}

func printTransactions(w io.Writer, txs []models.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tREFERENCE")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n", tx.ID, tx.Type, tx.Amount.StringFixed(2), tx.Currency, tx.Reference)
	}
	_ = tw.Flush()
}

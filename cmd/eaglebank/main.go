package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: in}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	a.close()
	if err == nil {
		return 0
	}
	var redirect *redirectError
	if errors.As(err, &redirect) {
		fmt.Fprintln(errOut, redirect.Error())
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "eaglebank",
		Short: "Eagle Bank command-line client",
		Long: `eaglebank talks to the Eagle Bank API.

Sign in with "eaglebank login"; the credential is kept in the configured
session store and reused by every later command until "eaglebank logout".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/eaglebank/config.yaml)")
	flags.StringVar(&a.opts.apiURL, "api", "", "API base URL")
	flags.StringVar(&a.opts.store, "store", "", "session store: file, redis or memory")
	flags.StringVar(&a.opts.sessionFile, "session-file", "", "session file for the file store")
	flags.StringVar(&a.opts.timeout, "timeout", "", "request timeout, e.g. 10s")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newRegisterCmd(a),
		newUserCmd(a),
		newAccountsCmd(a),
		newTxCmd(a),
		newOpenCmd(a),
	)
	return root
}

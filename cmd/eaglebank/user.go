package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eaglebank/client/internal/view"
	"github.com/eaglebank/client/shared/models"
)

func newUserCmd(a *app) *cobra.Command {
	var userFlag string
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Show, update or delete the signed-in user",
	}
	cmd.PersistentFlags().StringVar(&userFlag, "user", "", "user id (default: from the stored credential)")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the user profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				uid, err := a.userID(userFlag)
				if err != nil {
					return err
				}
				return a.showProfile(cmd, uid)
			},
		},
		newUserUpdateCmd(a, &userFlag),
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the user and end the session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				uid, err := a.userID(userFlag)
				if err != nil {
					return err
				}
				v := view.NewProfile(a.deps(), view.WithDeletionPolicy(a.policy))
				if err := decisionError(v.Load(cmd.Context(), uid)); err != nil {
					return err
				}
				v.Wait()
				if err := loadError(v.State().User); err != nil {
					return err
				}
				v.Delete(cmd.Context())
				v.Wait()
				if err := formError(v.State().Deletion); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s; logged out\n", uid)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) showProfile(cmd *cobra.Command, uid string) error {
	v := view.NewProfile(a.deps())
	if err := decisionError(v.Load(cmd.Context(), uid)); err != nil {
		return err
	}
	v.Wait()
	st := v.State()
	if err := loadError(st.User); err != nil {
		return err
	}
	printUser(cmd.OutOrStdout(), st.User.Value)
	return nil
}

// newUserUpdateCmd loads the profile first and overwrites only the fields
// whose flags were given.
func newUserUpdateCmd(a *app, userFlag *string) *cobra.Command {
	var in models.UpdateUserRequest
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := a.userID(*userFlag)
			if err != nil {
				return err
			}
			v := view.NewUpdateProfile(a.deps())
			if err := decisionError(v.Load(cmd.Context(), uid)); err != nil {
				return err
			}
			v.Wait()
			st := v.State()
			if err := loadError(st.User); err != nil {
				return err
			}

			req := st.Input
			set := func(name string, dst *string, value string) {
				if cmd.Flags().Changed(name) {
					*dst = value
				}
			}
			set("name", &req.Name, in.Name)
			set("email", &req.Email, in.Email)
			set("phone", &req.PhoneNumber, in.PhoneNumber)
			set("password", &req.Password, in.Password)
			set("line1", &req.Address.Line1, in.Address.Line1)
			set("line2", &req.Address.Line2, in.Address.Line2)
			set("line3", &req.Address.Line3, in.Address.Line3)
			set("town", &req.Address.Town, in.Address.Town)
			set("county", &req.Address.County, in.Address.County)
			set("postcode", &req.Address.Postcode, in.Address.Postcode)

			if err := a.submitted(v.Submit(cmd.Context(), req)); err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), v.State().User.Value)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.PhoneNumber, "phone", "", "phone number in E.164 form")
	f.StringVar(&in.Password, "password", "", "new password")
	addAddressFlags(cmd, &in.Address)
	return cmd
}

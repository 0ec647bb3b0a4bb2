package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pickabook/pkb/internal/auth"
	"github.com/pickabook/pkb/internal/model"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session for later runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = a.orPrompt(cmd, email, "Email: "); err != nil {
				return err
			}
			if password, err = a.orPrompt(cmd, password, "Password: "); err != nil {
				return err
			}
			if _, err := a.auth.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newSignupCmd(a *app) *cobra.Command {
	var req model.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account. A certification code is sent to the email address
and read back from the prompt before the account is created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if !req.TermsAndConditions {
				return fmt.Errorf("%w (pass --accept-terms)", auth.ErrTermsNotAccepted)
			}

			var err error
			if req.Email, err = a.orPrompt(cmd, req.Email, "Email: "); err != nil {
				return err
			}
			dup, err := a.auth.CheckDuplicateEmail(ctx, req.Email)
			if err != nil {
				return err
			}
			if dup {
				return fmt.Errorf("email %s is already registered", req.Email)
			}

			if err := a.auth.SendCertificationCode(ctx, req.Email); err != nil {
				return err
			}
			fmt.Fprintf(out, "A certification code was sent to %s\n", req.Email)
			if req.CertificationCode, err = a.prompt(cmd, "Code: "); err != nil {
				return err
			}
			if err := a.auth.VerifyCertificationCode(ctx, req.Email, req.CertificationCode); err != nil {
				return err
			}

			if req.Nickname, err = a.orPrompt(cmd, req.Nickname, "Nickname: "); err != nil {
				return err
			}
			if req.Password, err = a.orPrompt(cmd, req.Password, "Password: "); err != nil {
				return err
			}
			if err := a.auth.Signup(ctx, req); err != nil {
				return fmt.Errorf("signup: %w", err)
			}
			fmt.Fprintln(out, `Account created. Run "pkb login" to start.`)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Nickname, "nickname", "", "Display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters")
	cmd.Flags().BoolVar(&req.TermsAndConditions, "accept-terms", false, "Accept the terms and conditions")
	return cmd
}

func newMeCmd(a *app) *cobra.Command {
	me := &cobra.Command{
		Use:   "me",
		Short: "Show or change the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.RequireLogin(); err != nil {
				return err
			}
			ok, err := a.auth.IsValidUser(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(`session expired, run "pkb login"`)
			}
			p, err := a.auth.Profile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", p.Nickname, p.Email)
			return nil
		},
	}

	me.AddCommand(&cobra.Command{
		Use:   "nickname <name>",
		Short: "Change the nickname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.ResetNickname(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Nickname changed to %s\n", args[0])
			return nil
		},
	})

	var current, next string
	password := &cobra.Command{
		Use:   "password",
		Short: "Change the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if current, err = a.orPrompt(cmd, current, "Current password: "); err != nil {
				return err
			}
			if next, err = a.orPrompt(cmd, next, "New password: "); err != nil {
				return err
			}
			if err := a.auth.ResetPassword(cmd.Context(), current, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			return nil
		},
	}
	password.Flags().StringVar(&current, "current", "", "Current password")
	password.Flags().StringVar(&next, "new", "", "New password")
	me.AddCommand(password)

	var yes bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete the account and log out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete the account without --yes")
			}
			if err := a.auth.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account deleted")
			return nil
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	me.AddCommand(del)

	return me
}

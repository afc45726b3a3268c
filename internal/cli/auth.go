package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"prhealth/internal/api"
	"prhealth/internal/model"
	"prhealth/internal/session"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  `Commands for logging in, logging out and showing the stored session.`,
	}
	cmd.AddCommand(newLoginCmd(), newLogoutCmd(), newStatusCmd())
	return cmd
}

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if email == "" {
				if email, err = pterm.DefaultInteractiveTextInput.Show("Email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password"); err != nil {
					return err
				}
			}
			email = strings.TrimSpace(email)
			if err := model.ValidateLogin(email, password); err != nil {
				return err
			}

			cred, err := e.client.Login(cmd.Context(), email, password)
			if err != nil {
				if errors.Is(err, api.ErrInvalidCredentials) {
					return errors.New("invalid email or password")
				}
				return fmt.Errorf("login failed: %w", err)
			}
			claims, err := e.sessions.Start(cred)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			success(cmd).Printfln("Successfully logged in as %s", claims.Role.Label())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			e.sessions.End()
			success(cmd).Println("Logged out successfully")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			claims, err := e.sessions.Claims()
			if errors.Is(err, session.ErrNotLoggedIn) {
				return errors.New("not logged in")
			}
			if err != nil {
				return err
			}

			section(cmd).Println("Authentication Status")
			info(cmd).Printfln("Server: %s", e.cfg.ServerURL)
			info(cmd).Printfln("Role: %s", claims.Role.Label())
			if claims.Subject != "" {
				info(cmd).Printfln("User ID: %s", claims.Subject)
			}
			if !claims.ExpiresAt.IsZero() {
				info(cmd).Printfln("Expires: %s", claims.ExpiresAt.Format(time.RFC1123))
			}
			return nil
		},
	}
}

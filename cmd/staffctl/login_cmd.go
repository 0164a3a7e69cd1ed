package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/pkg/staffclient"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login --email <email> [--password <password>]",
		Short: "Log in and store the bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				fmt.Fprint(a.out, "Password: ")
				line, err := bufio.NewReader(a.in).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			res, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.store.Set(staffclient.TokenKey, res.Token); err != nil {
				return err
			}
			a.logger.Debug("token stored", zap.String("path", a.store.Path()), zap.Time("expires_at", res.ExpiresAt))
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", email, strings.Join(res.Roles, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		RunE: func(*cobra.Command, []string) error {
			if err := a.store.Delete(staffclient.TokenKey, staffclient.LegacyTokenKey); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

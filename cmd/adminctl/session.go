package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ebbb/adminapi/internal/service"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and keep the session token in the token store",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account of the stored session",
	RunE:  runWhoami,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the stored session and forget its token",
	Long:  `Deletes the stored session and always forgets the local token, even when the delete fails.`,
	RunE:  runLogout,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the active sessions of the logged in account",
	RunE:  runSessions,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired sessions",
	RunE:  runCleanup,
}

var loginPassword string

var errNotLoggedIn = errors.New("not logged in, run `adminctl login <username>`")

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (read from stdin when empty)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(cleanupCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readSecret(cmd.InOrStdin(), loginPassword, "password")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		agent := "adminctl"
		res := a.auth.Login(ctx, args[0], password, service.ClientInfo{UserAgent: &agent})
		if !res.Success {
			return resultError(res.Kind, res.Error)
		}
		a.sessions.SetSession(ctx, res.Session.SessionToken)
		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s until %s\n", res.User.Username, res.Session.ExpiresAt.Format("2006-01-02 15:04 MST"))
		return nil
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		user := a.sessions.GetCurrentUser(ctx)
		if user == nil {
			return errNotLoggedIn
		}
		return printJSON(cmd.OutOrStdout(), user)
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		token := a.sessions.GetSession(ctx)
		if token == nil {
			return errNotLoggedIn
		}
		if res := a.auth.Logout(ctx, *token); !res.Success {
			zaplogger.Warn("logout failed", zaplogger.Fields{"kind": string(res.Kind), "error": res.Error})
		}
		a.sessions.ClearSession(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "logged out")
		return nil
	})
}

func runSessions(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		user := a.sessions.GetCurrentUser(ctx)
		if user == nil {
			return errNotLoggedIn
		}
		res := a.auth.GetActiveSessions(ctx, user.ID)
		if res.Error != "" {
			return resultError(res.Kind, res.Error)
		}

		current := a.sessions.GetSession(ctx)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tEXPIRES\tIP\tDEVICE\tCURRENT")
		for _, s := range res.Sessions {
			ip := "-"
			if s.IPAddress != nil {
				ip = *s.IPAddress
			}
			device := service.DescribeDevice(s.UserAgent)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s/%s\t%t\n",
				s.ID,
				s.CreatedAt.Format("2006-01-02 15:04"),
				s.ExpiresAt.Format("2006-01-02 15:04"),
				ip,
				device.Browser, device.OS,
				current != nil && *current == s.SessionToken,
			)
		}
		return w.Flush()
	})
}

func runCleanup(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		n, err := a.auth.CleanupExpiredSessionsCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired sessions\n", n)
		return nil
	})
}

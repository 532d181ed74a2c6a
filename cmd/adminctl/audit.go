package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent authentication events",
	Long:  `Lists the newest rows of the audit trail, optionally for one account.`,
	RunE:  runAudit,
}

var (
	auditUser  string
	auditLimit int
)

func init() {
	auditCmd.Flags().StringVar(&auditUser, "user", "", "only events of this username or id")
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "maximum number of events")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if auditLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		var userID string
		names := map[string]string{}
		if auditUser != "" {
			account, err := findAccount(ctx, a, auditUser)
			if err != nil {
				return err
			}
			userID = account.ID
			names[account.ID] = account.Username
		} else if res := a.auth.ListAdminUsers(ctx); res.Error == "" {
			for _, u := range res.Users {
				names[u.ID] = u.Username
			}
		}

		events, err := a.audit.Recent(ctx, userID, auditLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tUSER\tFIELDS")
		for _, e := range events {
			user := "-"
			if e.UserID != "" {
				user = e.UserID
				if name, ok := names[e.UserID]; ok {
					user = name
				}
			}
			fields := "-"
			if len(e.Fields) > 0 {
				fields = string(e.Fields)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Name, user, fields)
		}
		return w.Flush()
	})
}

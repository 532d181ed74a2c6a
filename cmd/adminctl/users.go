package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/internal/service"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash for a password",
	Long:  `Prints the stored form of a password, for seeding accounts by hand. Reads stdin when no argument is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHashPassword,
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Provision an admin account",
	RunE:  runCreateUser,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List admin accounts",
	RunE:  runUsers,
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <username|id>",
	Short: "Deactivate an account and end its sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runSetActive(cmd, args[0], false) },
}

var activateCmd = &cobra.Command{
	Use:   "activate <username|id>",
	Short: "Reactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runSetActive(cmd, args[0], true) },
}

var (
	newUsername string
	newEmail    string
	newPassword string
	newFullName string
	newRole     string
)

func init() {
	createUserCmd.Flags().StringVarP(&newUsername, "username", "u", "", "login name (required)")
	createUserCmd.Flags().StringVarP(&newEmail, "email", "e", "", "email address (required)")
	createUserCmd.Flags().StringVarP(&newPassword, "password", "p", "", "password (read from stdin when empty)")
	createUserCmd.Flags().StringVar(&newFullName, "full-name", "", "display name")
	createUserCmd.Flags().StringVar(&newRole, "role", string(models.RoleAdmin), "admin or super_admin")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(activateCmd)
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var flagValue string
	if len(args) == 1 {
		flagValue = args[0]
	}
	password, err := readSecret(cmd.InOrStdin(), flagValue, "password")
	if err != nil {
		return err
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	password, err := readSecret(cmd.InOrStdin(), newPassword, "password")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		res := a.auth.CreateAdminUser(ctx, service.NewAdminUser{
			Username: newUsername,
			Email:    newEmail,
			Password: password,
			FullName: newFullName,
			Role:     models.Role(newRole),
		})
		if !res.Success {
			return resultError(res.Kind, res.Error)
		}
		return printJSON(cmd.OutOrStdout(), res.User)
	})
}

func runUsers(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		res := a.auth.ListAdminUsers(ctx)
		if res.Error != "" {
			return resultError(res.Kind, res.Error)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tACTIVE\tLAST LOGIN")
		for _, u := range res.Users {
			lastLogin := "-"
			if u.LastLogin != nil {
				lastLogin = u.LastLogin.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Email, u.Role, u.IsActive, lastLogin)
		}
		return w.Flush()
	})
}

func runSetActive(cmd *cobra.Command, ref string, active bool) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		account, err := findAccount(ctx, a, ref)
		if err != nil {
			return err
		}
		res := a.auth.SetAccountActive(ctx, account.ID, active)
		if !res.Success {
			return resultError(res.Kind, res.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t\n", account.Username, active)
		return nil
	})
}

// findAccount matches ref against account ids and usernames
func findAccount(ctx context.Context, a *app, ref string) (*models.AdminAccount, error) {
	res := a.auth.ListAdminUsers(ctx)
	if res.Error != "" {
		return nil, resultError(res.Kind, res.Error)
	}
	for i := range res.Users {
		if res.Users[i].ID == ref || res.Users[i].Username == ref {
			return &res.Users[i], nil
		}
	}
	return nil, resultError(service.KindUserNotFound, service.MsgUserNotFound)
}

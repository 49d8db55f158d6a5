package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/petms/internal/auth"
	"github.com/me/petms/pkg/model"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(
		newUserAddCmd(),
		newUserListCmd(),
		newUserUnlockCmd(),
		newUserPasswdCmd(),
	)
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Create a staff or admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			svc := auth.NewService(st, nil, logger)
			user, err := svc.CreateUser(cmd.Context(), args[0], args[1], args[1], model.UserRole(role))
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Printf("Created %s (%s, %s)\n", user.Username, user.ID, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(model.RoleStaff), "Account role (staff, admin)")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			users, err := st.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Println("No accounts found.")
				return nil
			}

			now := time.Now()
			fmt.Printf("%-20s  %-8s  %-8s  %-10s  %s\n", "USERNAME", "ROLE", "LOCKED", "ATTEMPTS", "LAST LOGIN")
			fmt.Printf("%-20s  %-8s  %-8s  %-10s  %s\n", "--------", "----", "------", "--------", "----------")
			for _, u := range users {
				locked := "no"
				if u.IsLocked(now) {
					locked = "yes"
				}
				lastLogin := "-"
				if !u.LastLoginAt.IsZero() {
					lastLogin = u.LastLoginAt.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%-20s  %-8s  %-8s  %-10d  %s\n", u.Username, u.Role, locked, u.LoginAttempts, lastLogin)
			}
			return nil
		},
	}
}

func newUserUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <username>",
		Short: "Clear a lockout and reset the failed-attempt counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			if user == nil {
				return fmt.Errorf("no such user: %s", args[0])
			}

			user.LoginAttempts = 0
			user.LockedUntil = nil
			if err := st.UpdateUser(cmd.Context(), user); err != nil {
				return fmt.Errorf("update user: %w", err)
			}

			fmt.Printf("Unlocked %s\n", user.Username)
			return nil
		},
	}
}

func newUserPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <username> <new-password>",
		Short: "Set a new password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := strings.TrimSpace(args[1])
			if len(password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}

			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			if user == nil {
				return fmt.Errorf("no such user: %s", args[0])
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = hash
			user.LoginAttempts = 0
			user.LockedUntil = nil
			if err := st.UpdateUser(cmd.Context(), user); err != nil {
				return fmt.Errorf("update user: %w", err)
			}

			fmt.Printf("Password updated for %s\n", user.Username)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}
	cmd.AddCommand(newSessionsPruneCmd())
	return cmd
}

func newSessionsPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired session records",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.DeleteExpiredSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("prune sessions: %w", err)
			}

			fmt.Printf("Pruned %d expired session(s).\n", n)
			return nil
		},
	}
}

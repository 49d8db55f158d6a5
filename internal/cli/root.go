package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/me/petms/internal/logging"
	"github.com/me/petms/internal/store"
)

var (
	flagDB        string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// defaultDBPath returns the database path, checking PETMS_DB env var first.
func defaultDBPath() string {
	if p := os.Getenv("PETMS_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "petms.db"
	}
	return filepath.Join(home, ".petms", "petms.db")
}

// openStore opens the database named by --db and runs migrations.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(flagDB, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return st, nil
}

// NewRootCmd creates the root cobra command for the petms admin CLI.
// It operates directly on the database, so run it on the server host.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "petms",
		Short: "PetMS admin tool",
		Long:  "PetMS manages staff accounts and sessions of a pet-owner registry server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagDB, "db", defaultDBPath(), "Database path (or PETMS_DB env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newUserCmd(),
		newSessionsCmd(),
	)

	return root
}

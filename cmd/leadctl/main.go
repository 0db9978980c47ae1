package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/database"
	applog "github.com/xavierca1/ligue-crm/internal/logger"
)

var (
	// Global flags
	verbose     bool
	databaseURL string

	// Logger
	logger *zap.Logger

	// openStore is swapped out in tests.
	openStore = openPostgresStore
)

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Operator tooling for the lead CRM",
	Long: `leadctl works directly against the lead Record Store.

It can print the CSV import template, import a CSV file for an owner,
print an owner's dashboard metrics, add the sample leads and run migrations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env := os.Getenv("APP_ENV")
		if verbose {
			env = "development"
		}
		var err error
		logger, err = applog.New(env)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func openPostgresStore(ctx context.Context) (entity.LeadRepositoryInterface, func(), error) {
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	db, err := database.NewDBConnection(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return database.NewLeadRepository(db), func() { db.Close() }, nil
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug-level console logging")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")

	importCmd.Flags().StringVar(&ownerID, "owner", "", "Owner (user id) the leads belong to (required)")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and report without inserting")
	_ = importCmd.MarkFlagRequired("owner")

	dashboardCmd.Flags().StringVar(&ownerID, "owner", "", "Owner (user id) (required)")
	_ = dashboardCmd.MarkFlagRequired("owner")

	seedCmd.Flags().StringVar(&ownerID, "owner", "", "Owner (user id) (required)")
	_ = seedCmd.MarkFlagRequired("owner")

	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/ligue-crm/internal/infra/database"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

var (
	ownerID string
	dryRun  bool
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the CSV import template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), usecase.LeadsTemplateCSV)
		return err
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import leads from a CSV file (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print an owner's dashboard metrics as JSON",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the five sample leads for an owner",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			return fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		db, err := database.NewDBConnection(cmd.Context(), databaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func runImport(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	rows, err := usecase.ParseLeadsCSV(text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, row := range rows {
		if row.IsValid {
			fmt.Fprintf(out, "row %d  ok       %s (%s)\n", row.Line, row.Name, row.Stage)
		} else {
			fmt.Fprintf(out, "row %d  invalid  %s\n", row.Line, strings.Join(row.Errors, "; "))
		}
	}
	valid, invalid := usecase.CountRows(rows)
	fmt.Fprintf(out, "%d valid, %d invalid, %d total\n", valid, invalid, len(rows))

	if dryRun {
		return nil
	}

	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := usecase.NewImportLeadsUseCase(store, nil, logger).Execute(cmd.Context(), ownerID, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d leads, skipped %d\n", res.Inserted, res.Rejected)
	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	uc := usecase.NewGetDashboardUseCase(store, logger)
	stats, err := uc.Execute(cmd.Context(), ownerID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		GeneratedAt time.Time `json:"generated_at"`
		usecase.DashboardStats
	}{time.Now().UTC(), stats})
}

func runSeed(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := usecase.NewSeedSamplesUseCase(store, logger).Execute(cmd.Context(), ownerID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %d sample leads\n", n)
	return nil
}

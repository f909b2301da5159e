package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advocatehub/internal/advocate"
	"advocatehub/internal/csvio"
	"advocatehub/pkg/database"
	"advocatehub/pkg/models"
	"advocatehub/pkg/utils"
)

var (
	dbDriver string
	dbDSN    string
	csvPath  string
)

var importCSVCmd = &cobra.Command{
	Use:   "import-csv",
	Short: "Insert advocates from a CSV file into the store",
	Long: `Header names may use either camelCase (firstName) or snake_case
(first_name). Specialties may be a JSON array or a , | ; separated list.`,
	RunE: runImportCSV,
}

var exportCSVCmd = &cobra.Command{
	Use:   "export-csv",
	Short: "Write the normalized, deduplicated directory to a CSV file",
	RunE:  runExportCSV,
}

func init() {
	for _, c := range []*cobra.Command{importCSVCmd, exportCSVCmd} {
		c.Flags().StringVar(&dbDriver, "driver", "", "store driver: sqlite, postgres or mysql (default from config)")
		c.Flags().StringVar(&dbDSN, "dsn", "", "store DSN (default from config)")
	}
	importCSVCmd.Flags().StringVar(&csvPath, "file", "data/advocates.csv", "input CSV path")
	exportCSVCmd.Flags().StringVar(&csvPath, "file", "data/advocates.csv", "output CSV path")
}

// openStore opens and migrates the store named by flags, config or the
// local sqlite default, in that order.
func openStore() (*database.DB, error) {
	cfg, err := utils.Load()
	if err != nil {
		return nil, err
	}
	driver, dsn := cfg.DB.Driver, cfg.DB.DSN
	if dbDriver != "" {
		driver = dbDriver
	}
	if dbDSN != "" {
		dsn = dbDSN
	}
	if driver == "" {
		driver = database.DriverSQLite
	}

	db, err := database.Open(database.Resolve(driver, dsn))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate failed: %w", err)
	}
	return db, nil
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	n, err := importCSV(ctx, advocate.NewRepo(db), f)
	if err != nil {
		return fmt.Errorf("import %s failed: %w", csvPath, err)
	}
	logger.Info("csv imported", zap.String("file", csvPath), zap.Int("rows", n))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d advocates from %s\n", n, csvPath)
	return nil
}

func importCSV(ctx context.Context, seeder advocate.Seeder, r io.Reader) (int, error) {
	records, err := csvio.ReadRecords(r)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return seeder.Insert(ctx, records)
}

func runExportCSV(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := exportCSV(ctx, advocate.NewRepo(db), f)
	if err != nil {
		return fmt.Errorf("export %s failed: %w", csvPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d advocates to %s\n", n, csvPath)
	return nil
}

// exportCSV pages through the store and writes the directory as search
// would show it for an empty query.
func exportCSV(ctx context.Context, src advocate.RowSource, w io.Writer) (int, error) {
	var rows []models.RawRecord
	for offset := 0; ; offset += advocate.MaxLimit {
		batch, err := src.FetchRows(ctx, advocate.RowQuery{Limit: advocate.MaxLimit, Offset: offset})
		if err != nil {
			return 0, err
		}
		rows = append(rows, batch...)
		if len(batch) < advocate.MaxLimit {
			break
		}
	}

	records := make([]models.Advocate, 0, len(rows))
	for _, r := range rows {
		records = append(records, advocate.Normalize(r))
	}
	records = advocate.Dedupe(records)

	ordered := make([]models.Advocate, 0, len(records))
	for offset := 0; offset < len(records); offset += advocate.MaxLimit {
		page, _ := advocate.Search(records, "", advocate.MaxLimit, offset)
		ordered = append(ordered, page...)
	}

	if err := csvio.WriteAdvocates(w, ordered); err != nil {
		return 0, err
	}
	return len(ordered), nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

var (
	ingestTables []string
	ingestClear  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Copy relational rows into the graph",
	Long: `Reads every row of the configured tables and writes one node per row under
the profile's label, tagged with its source table. Embeddings are left unset;
run "docugraph backfill" afterwards.

The source is read from POSTGRES_DSN or relational.dsn in the config file.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("profile", domain.ProfilePostgres, "index profile: confluence or postgres")
	ingestCmd.Flags().StringSliceVar(&ingestTables, "tables", nil, "tables to read (default relational.tables)")
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "delete existing nodes of the label first")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	profile, err := profileFlag(cmd)
	if err != nil {
		return err
	}

	tables := ingestTables
	if len(tables) == 0 {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		tables = settings.Relational.Tables
	}
	if len(tables) == 0 {
		return fmt.Errorf("no tables to ingest: %w", domain.ErrInvalidInput)
	}

	svc, err := connect(cmd, ConnectOptions{Relational: true})
	if err != nil {
		return err
	}
	if svc.Ingest == nil {
		return errors.New("relational source not configured: set POSTGRES_DSN or relational.dsn")
	}

	summary, err := svc.Ingest.Ingest(cmd.Context(), profile, tables, ingestClear)
	if summary != nil {
		cmd.Println(renderIngestSummary(summary))
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

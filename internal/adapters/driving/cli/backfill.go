package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

var backfillBatch int

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed nodes that have no embedding yet",
	Long: `Selects nodes of the profile's label whose embedding is unset, embeds their
declared text properties and writes the vectors back, batch by batch.

An interrupted backfill resumes where it stopped on the next run.`,
	Args: cobra.NoArgs,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().String("profile", domain.ProfileConfluence, "index profile: confluence or postgres")
	backfillCmd.Flags().IntVar(&backfillBatch, "batch", 0, "nodes per batch (default backfill.batch_size)")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	profile, err := profileFlag(cmd)
	if err != nil {
		return err
	}

	svc, err := connect(cmd, ConnectOptions{})
	if err != nil {
		return err
	}

	summary, err := svc.Backfill.Backfill(cmd.Context(), profile, backfillBatch)
	if summary != nil {
		cmd.Println(renderBackfillSummary(summary))
	}
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

var indexesNoKeyword bool

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Inspect and bootstrap the store's indexes",
}

var indexesEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the profile's indexes if they are missing",
	Long: `Validates existing indexes against the profile and the embedding provider,
then creates whatever is missing. Running it twice changes nothing.`,
	Args: cobra.NoArgs,
	RunE: runIndexesEnsure,
}

var indexesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check existing indexes without creating any",
	Args:  cobra.NoArgs,
	RunE:  runIndexesValidate,
}

var indexesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every index and constraint in the store",
	Args:  cobra.NoArgs,
	RunE:  runIndexesShow,
}

func init() {
	for _, c := range []*cobra.Command{indexesEnsureCmd, indexesValidateCmd} {
		c.Flags().String("profile", domain.ProfileConfluence, "index profile: confluence or postgres")
		c.Flags().BoolVar(&indexesNoKeyword, "no-keyword", false, "skip the fulltext index")
	}
	indexesCmd.AddCommand(indexesEnsureCmd)
	indexesCmd.AddCommand(indexesValidateCmd)
	indexesCmd.AddCommand(indexesShowCmd)
	rootCmd.AddCommand(indexesCmd)
}

func runIndexesEnsure(cmd *cobra.Command, _ []string) error {
	profile, err := profileFlag(cmd)
	if err != nil {
		return err
	}
	svc, err := connect(cmd, ConnectOptions{})
	if err != nil {
		return err
	}

	if err := svc.Index.EnsureIndexes(cmd.Context(), profile, !indexesNoKeyword); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	cmd.Println(successStyle.Render(fmt.Sprintf("Indexes for %s are in place.", profile.Name)))
	return nil
}

func runIndexesValidate(cmd *cobra.Command, _ []string) error {
	profile, err := profileFlag(cmd)
	if err != nil {
		return err
	}
	svc, err := connect(cmd, ConnectOptions{})
	if err != nil {
		return err
	}

	if err := svc.Index.Validate(cmd.Context(), profile, !indexesNoKeyword); err != nil {
		return fmt.Errorf("validate indexes: %w", err)
	}
	cmd.Println(successStyle.Render(fmt.Sprintf("Indexes for %s are compatible.", profile.Name)))
	return nil
}

func runIndexesShow(cmd *cobra.Command, _ []string) error {
	svc, err := connect(cmd, ConnectOptions{})
	if err != nil {
		return err
	}

	indexes, err := svc.Index.Indexes(cmd.Context())
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	constraints, err := svc.Index.Constraints(cmd.Context())
	if err != nil {
		return fmt.Errorf("list constraints: %w", err)
	}
	cmd.Print(renderIndexes(indexes, constraints))
	return nil
}

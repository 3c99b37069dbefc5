package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	refreshSpace     string
	refreshNoKeyword bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the wiki nodes from Confluence",
	Long: `Deletes every Confluence node, then crawls all spaces breadth-first and
writes one embedded node per page.

The vector index (and the fulltext index unless --no-keyword is set) is
validated before anything is deleted. A dimension or label conflict aborts
the run with the store untouched.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshSpace, "space", "", "only crawl the space with this key (default TARGET_SPACE_KEY)")
	refreshCmd.Flags().BoolVar(&refreshNoKeyword, "no-keyword", false, "skip the fulltext index")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	space := refreshSpace
	if space == "" && settingsService != nil {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		space = settings.Confluence.SpaceKey
	}

	svc, err := connect(cmd, ConnectOptions{Keyword: !refreshNoKeyword})
	if err != nil {
		return err
	}

	summary, err := svc.Refresh.FullRefresh(cmd.Context(), space)
	if summary != nil {
		cmd.Println(renderRefreshSummary(summary))
	}
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return nil
}

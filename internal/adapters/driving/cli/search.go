package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
	searchMode  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed nodes",
	Long: `Searches a profile's indexes.

Modes:
  vector  - embedding similarity
  keyword - fulltext match, Lucene operators in the query are escaped
  hybrid  - both, each scaled by its best score and merged (default)`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchMode, "mode", string(domain.SearchModeHybrid), "search mode: vector, keyword or hybrid")
	searchCmd.Flags().String("profile", domain.ProfileConfluence, "index profile: confluence or postgres")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode := domain.SearchMode(searchMode)
	if !mode.IsValid() {
		return fmt.Errorf("invalid search mode %q", searchMode)
	}
	profile, err := profileFlag(cmd)
	if err != nil {
		return err
	}

	svc, err := connect(cmd, ConnectOptions{})
	if err != nil {
		return err
	}
	if svc.Search == nil {
		return errors.New("search service not configured")
	}

	hits, err := svc.Search.Search(cmd.Context(), mode, profile, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	cmd.Print(renderHits(hits))
	return nil
}

type hitJSON struct {
	ElementID string         `json:"element_id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata"`
	Score     float64        `json:"score"`
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	out := make([]hitJSON, len(hits))
	for i, h := range hits {
		out[i] = hitJSON{ElementID: h.ElementID, Text: h.Text, Metadata: h.Metadata, Score: h.Score}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

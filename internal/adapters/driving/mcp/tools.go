package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// SearchInput is the input schema for the search tools.
type SearchInput struct {
	Query   string `json:"query" jsonschema:"the text to search for"`
	K       int    `json:"k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Profile string `json:"profile,omitempty" jsonschema:"index profile to search: confluence (default) or postgres"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ElementID string         `json:"element_id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Score     float64        `json:"score"`
}

// toolModes maps each registered tool to the search mode it runs.
var toolModes = []struct {
	name        string
	description string
	mode        domain.SearchMode
}{
	{"vector_search", "Find wiki pages or records semantically similar to the query", domain.SearchModeVector},
	{"keyword_search", "Find wiki pages or records containing the query terms", domain.SearchModeKeyword},
	{"hybrid_search", "Combine semantic and keyword search, scores normalised to [0,1]", domain.SearchModeHybrid},
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	for _, t := range toolModes {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        t.name,
			Description: t.description,
		}, s.searchHandler(t.mode))
	}
}

// searchHandler returns the tool handler for one search mode.
func (s *Server) searchHandler(
	mode domain.SearchMode,
) func(context.Context, *mcp.CallToolRequest, SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		return s.handleSearch(ctx, mode, input)
	}
}

// handleSearch runs one search and shapes the output.
func (s *Server) handleSearch(
	ctx context.Context,
	mode domain.SearchMode,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	profileName := input.Profile
	if profileName == "" {
		profileName = domain.ProfileConfluence
	}
	profile, err := domain.ProfileByName(profileName)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	k := input.K
	if k <= 0 {
		k = domain.DefaultSearchLimit
	}

	hits, err := s.ports.Search.Search(ctx, mode, profile, input.Query, k)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("%s search: %w", mode, err)
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		output.Results[i] = SearchResultOutput{
			ElementID: hits[i].ElementID,
			Text:      hits[i].Text,
			Metadata:  hits[i].Metadata,
			Score:     hits[i].Score,
		}
	}

	return nil, output, nil
}

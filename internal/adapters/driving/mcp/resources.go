package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docugraph resources.
	uriScheme = "docugraph://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "profiles",
		Name:        "profiles",
		Description: "Index profiles that can be searched",
		MIMEType:    "application/json",
	}, s.handleProfilesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "indexes",
		Name:        "indexes",
		Description: "Vector and fulltext indexes present in the graph store",
		MIMEType:    "application/json",
	}, s.handleIndexesResource)
}

// handleProfilesResource lists the built-in index profiles.
func (s *Server) handleProfilesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type profileInfo struct {
		Name           string   `json:"name"`
		Label          string   `json:"label"`
		VectorIndex    string   `json:"vector_index"`
		KeywordIndex   string   `json:"keyword_index"`
		TextProperties []string `json:"text_properties"`
	}

	names := domain.ProfileNames()
	infos := make([]profileInfo, 0, len(names))
	for _, name := range names {
		p, err := domain.ProfileByName(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, profileInfo{
			Name:           p.Name,
			Label:          p.Label,
			VectorIndex:    p.IndexName,
			KeywordIndex:   p.KeywordIndexName,
			TextProperties: p.TextProperties,
		})
	}

	return jsonResource(req.Params.URI, infos)
}

// handleIndexesResource lists the store's indexes.
func (s *Server) handleIndexesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return jsonResource(req.Params.URI, []domain.IndexInfo{})
	}

	indexes, err := s.ports.Index.Indexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	return jsonResource(req.Params.URI, indexes)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

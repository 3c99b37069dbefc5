// Package mcp provides an MCP (Model Context Protocol) server adapter for docugraph.
// It exposes vector, keyword and hybrid search over the indexed graph to AI assistants.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-notes.
// It lets AI assistants classify queries, search the vault and assemble context bundles.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

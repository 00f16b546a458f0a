// Package mcp provides an MCP (Model Context Protocol) server adapter for refshelf.
// It lets AI assistants scan directories into the reference shelf, search it,
// explore tag networks and correct tags.
package mcp

import "errors"

var (
	// ErrMissingCatalogService is returned when the catalog service is not provided.
	ErrMissingCatalogService = errors.New("mcp: catalog service is required")

	// ErrIngestUnavailable is returned by the scan tool when no ingestor is wired.
	ErrIngestUnavailable = errors.New("mcp: ingestion is not available")

	// ErrRelinkUnavailable is returned by the relink tool when no relinker is wired.
	ErrRelinkUnavailable = errors.New("mcp: relink is not available")
)

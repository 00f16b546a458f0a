package mcp

import (
	"github.com/custodia-labs/refshelf/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Catalog answers search, network, listing and tag edits.
	Catalog driving.CatalogService

	// Ingest runs directory scans. Optional; scan_local_directory fails without it.
	Ingest driving.Ingestor

	// Relink repairs record paths. Optional.
	Relink driving.RelinkService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}

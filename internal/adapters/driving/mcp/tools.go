package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

const (
	defaultSearchLimit = 5
	maxContentPreview  = 500
)

// RecordOutput is the tool-facing view of a stored record.
type RecordOutput struct {
	ID                string   `json:"id"`
	Kind              string   `json:"kind"`
	Tags              []string `json:"tags"`
	Content           string   `json:"content,omitempty"`
	VisionDescription string   `json:"vision_description,omitempty"`
	PostID            string   `json:"post_id,omitempty"`
	SourceURL         string   `json:"source_url,omitempty"`
}

// HitOutput is a ranked record.
type HitOutput struct {
	RecordOutput
	Score      float64  `json:"score"`
	SharedTags []string `json:"shared_tags,omitempty"`
}

// ScanInput is the input schema for the scan tool.
type ScanInput struct {
	Path string `json:"path" jsonschema:"absolute path of the directory to ingest"`
}

// ScanOutput is the output schema for the scan tool.
type ScanOutput struct {
	PDFs       int `json:"pdfs"`
	Images     int `json:"images"`
	Texts      int `json:"texts"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Stored     int `json:"stored"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text query matched against tags and content"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// HitsOutput is the output schema for the search and network tools.
type HitsOutput struct {
	Results []HitOutput `json:"results"`
	Count   int         `json:"count"`
}

// NetworkInput is the input schema for the network tool.
type NetworkInput struct {
	ID    string `json:"id" jsonschema:"record id (file path) to find neighbours of"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of related records (default 5)"`
}

// UpdateTagsInput is the input schema for the tag edit tool.
type UpdateTagsInput struct {
	ID   string   `json:"id" jsonschema:"record id (file path) to retag"`
	Tags []string `json:"tags" jsonschema:"replacement tags; every tag must belong to the vocabulary"`
}

// UpdateTagsOutput is the output schema for the tag edit tool.
type UpdateTagsOutput struct {
	Record RecordOutput `json:"record"`
}

// RelinkInput is the input schema for the relink tool.
type RelinkInput struct {
	Root string `json:"root" jsonschema:"directory to search for moved files"`
}

// RelinkOutput is the output schema for the relink tool.
type RelinkOutput struct {
	AlreadyCorrect int `json:"already_correct"`
	Updated        int `json:"updated"`
	Missing        int `json:"missing"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_local_directory",
		Description: "Ingest every PDF, image and text file under a local directory into the reference shelf",
	}, s.handleScan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_references",
		Description: "Search stored references by keywords, tags or concepts",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_file_network",
		Description: "Find references that share the most tags with a given reference",
	}, s.handleNetwork)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_tags",
		Description: "Replace the tags of a stored reference with vocabulary tags",
	}, s.handleUpdateTags)

	if s.ports.Relink != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "relink_paths",
			Description: "Repair record paths for files that were moved outside refshelf",
		}, s.handleRelink)
	}
}

func (s *Server) handleScan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ScanInput,
) (*mcp.CallToolResult, ScanOutput, error) {
	if s.ports.Ingest == nil {
		return nil, ScanOutput{}, ErrIngestUnavailable
	}
	if strings.TrimSpace(input.Path) == "" {
		return nil, ScanOutput{}, domain.ErrInvalidInput
	}

	res, err := s.ports.Ingest.Scan(ctx, input.Path)
	if err != nil {
		return nil, ScanOutput{}, err
	}

	return nil, ScanOutput{
		PDFs:       res.PDFs,
		Images:     res.Images,
		Texts:      res.Texts,
		Duplicates: res.Duplicates,
		Skipped:    res.Skipped,
		Failed:     res.Failed,
		Stored:     res.Stored(),
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, HitsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := s.ports.Catalog.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, HitsOutput{}, err
	}
	return nil, toHitsOutput(hits), nil
}

func (s *Server) handleNetwork(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NetworkInput,
) (*mcp.CallToolResult, HitsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := s.ports.Catalog.Network(ctx, input.ID, limit)
	if err != nil {
		return nil, HitsOutput{}, err
	}
	return nil, toHitsOutput(hits), nil
}

func (s *Server) handleUpdateTags(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateTagsInput,
) (*mcp.CallToolResult, UpdateTagsOutput, error) {
	rec, err := s.ports.Catalog.UpdateTags(ctx, input.ID, input.Tags)
	if err != nil {
		return nil, UpdateTagsOutput{}, err
	}
	return nil, UpdateTagsOutput{Record: toRecordOutput(rec)}, nil
}

func (s *Server) handleRelink(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RelinkInput,
) (*mcp.CallToolResult, RelinkOutput, error) {
	if s.ports.Relink == nil {
		return nil, RelinkOutput{}, ErrRelinkUnavailable
	}

	res, err := s.ports.Relink.Relink(ctx, input.Root)
	if err != nil {
		return nil, RelinkOutput{}, err
	}
	return nil, RelinkOutput{
		AlreadyCorrect: res.AlreadyCorrect,
		Updated:        res.Updated,
		Missing:        res.Missing,
	}, nil
}

func toHitsOutput(hits []domain.SearchHit) HitsOutput {
	out := HitsOutput{
		Results: make([]HitOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		out.Results[i] = HitOutput{
			RecordOutput: toRecordOutput(&hits[i].Record),
			Score:        hits[i].Score,
			SharedTags:   tagStrings(hits[i].SharedTags),
		}
	}
	return out
}

func toRecordOutput(rec *domain.ContentRecord) RecordOutput {
	return RecordOutput{
		ID:                rec.ID,
		Kind:              rec.Kind.String(),
		Tags:              tagStrings(rec.Tags),
		Content:           preview(rec.RawText),
		VisionDescription: rec.VisionDescription,
		PostID:            rec.Metadata.PostID,
		SourceURL:         rec.Metadata.SourceURL,
	}
}

func tagStrings(tags []domain.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}

// preview truncates text to maxContentPreview runes.
func preview(text string) string {
	r := []rune(text)
	if len(r) <= maxContentPreview {
		return text
	}
	return string(r[:maxContentPreview]) + "..."
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// uriScheme is the custom URI scheme for refshelf resources.
const uriScheme = "refshelf://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tags",
		Name:        "tags",
		Description: "The closed tag vocabulary accepted by update_tags",
		MIMEType:    "application/json",
	}, s.handleTagsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tags/{tag}/records",
		Name:        "tag-records",
		Description: "Records carrying a specific tag",
		MIMEType:    "application/json",
	}, s.handleTagRecordsResource)

	// Record ids are file paths, hence the reserved expansion.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{+id}",
		Name:        "record-body",
		Description: "Stored body of a record: tag header followed by its content",
		MIMEType:    "text/plain",
	}, s.handleRecordResource)
}

func (s *Server) handleTagsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(tagStrings(s.ports.Catalog.Vocabulary()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling vocabulary: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

func (s *Server) handleTagRecordsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	tag := extractTag(req.Params.URI)
	if tag == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.ports.Catalog.List(ctx, domain.ListFilter{Tag: domain.Tag(tag)})
	if err != nil {
		var tagErr *domain.TagError
		if errors.As(err, &tagErr) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("listing records: %w", err)
	}

	out := make([]RecordOutput, len(records))
	for i := range records {
		out[i] = toRecordOutput(&records[i])
		out[i].Content = ""
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling records: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

func (s *Server) handleRecordResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractRecordID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Catalog.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return textResult(req.Params.URI, "text/plain", rec.Body()), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}

// extractTag extracts the tag from refshelf://tags/{tag}/records.
func extractTag(uri string) string {
	const prefix = uriScheme + "tags/"
	const suffix = "/records"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	tag := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(tag, "/") {
		return ""
	}
	return tag
}

// extractRecordID extracts and unescapes the id from refshelf://records/{id}.
func extractRecordID(uri string) string {
	const prefix = uriScheme + "records/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return id
}

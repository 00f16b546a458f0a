package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// recordView is the JSON shape of a record in command output.
type recordView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Tags      []string  `json:"tags"`
	PostID    string    `json:"post_id,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// hitView is the JSON shape of a ranked record.
type hitView struct {
	recordView
	Score      float64  `json:"score"`
	SharedTags []string `json:"shared_tags,omitempty"`
}

func toRecordView(r *domain.ContentRecord) recordView {
	return recordView{
		ID:        r.ID,
		Kind:      r.Kind.String(),
		Tags:      tagStrings(r.Tags),
		PostID:    r.Metadata.PostID,
		SourceURL: r.Metadata.SourceURL,
		CreatedAt: r.CreatedAt,
	}
}

func toHitViews(hits []domain.SearchHit) []hitView {
	out := make([]hitView, len(hits))
	for i := range hits {
		out[i] = hitView{
			recordView: toRecordView(&hits[i].Record),
			Score:      hits[i].Score,
			SharedTags: tagStrings(hits[i].SharedTags),
		}
	}
	return out
}

func tagStrings(tags []domain.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printHits(cmd *cobra.Command, hits []domain.SearchHit, shared bool) {
	for i := range hits {
		h := &hits[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, h.Record.ID, h.Score)
		if shared {
			cmd.Printf("      Shared: %s\n", domain.JoinTags(h.SharedTags))
		}
		cmd.Printf("      Tags: %s\n", domain.JoinTags(h.Record.Tags))
		cmd.Println()
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

var (
	listKind   string
	listTag    string
	listLimit  int
	listOffset int
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored references",
	Long:  `Lists stored references, newest first, optionally filtered by kind or tag.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listKind, "kind", "", "filter by kind (pdf, image, text)")
	listCmd.Flags().StringVar(&listTag, "tag", "", "filter by tag")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum number of records")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of records to skip")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}

	filter := domain.ListFilter{
		Tag:    domain.Tag(listTag),
		Limit:  listLimit,
		Offset: listOffset,
	}
	switch domain.Kind(listKind) {
	case "":
	case domain.KindPDF, domain.KindImage, domain.KindText:
		filter.Kind = domain.Kind(listKind)
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, listKind)
	}

	records, err := catalogService.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if listJSON {
		views := make([]recordView, len(records))
		for i := range records {
			views[i] = toRecordView(&records[i])
		}
		return printJSON(cmd, views)
	}

	if len(records) == 0 {
		cmd.Println("No records found.")
		return nil
	}

	for i := range records {
		r := &records[i]
		cmd.Printf("  %-5s %s\n", r.Kind, r.ID)
		cmd.Printf("        %s\n", domain.JoinTags(r.Tags))
	}
	return nil
}

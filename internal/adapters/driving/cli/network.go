package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	networkLimit int
	networkJSON  bool
)

var networkCmd = &cobra.Command{
	Use:   "network [id]",
	Short: "Show references sharing tags with a record",
	Long: `Lists the stored references that share the most tags with the given record,
strongest overlap first. The id is the record's file path.`,
	Args: cobra.ExactArgs(1),
	RunE: runNetwork,
}

func init() {
	networkCmd.Flags().IntVarP(&networkLimit, "limit", "n", 10, "maximum number of related records")
	networkCmd.Flags().BoolVar(&networkJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(networkCmd)
}

func runNetwork(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}

	hits, err := catalogService.Network(cmd.Context(), args[0], networkLimit)
	if err != nil {
		return fmt.Errorf("network lookup failed: %w", err)
	}

	if networkJSON {
		return printJSON(cmd, toHitViews(hits))
	}

	if len(hits) == 0 {
		cmd.Printf("No related references for %s.\n", args[0])
		return nil
	}

	cmd.Printf("Related to %s:\n\n", args[0])
	printHits(cmd, hits, true)
	return nil
}

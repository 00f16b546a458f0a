package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var relinkCmd = &cobra.Command{
	Use:   "relink [root]",
	Short: "Repair record paths after files were moved",
	Long: `Finds records whose file no longer exists and relinks each to a file with
the same name under root (default: the watched directory).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRelink,
}

func init() {
	rootCmd.AddCommand(relinkCmd)
}

func runRelink(cmd *cobra.Command, args []string) error {
	if relinkService == nil {
		return errors.New("relink service not configured")
	}

	root := watchRoot
	if len(args) > 0 {
		root = args[0]
	}

	res, err := relinkService.Relink(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("relink failed: %w", err)
	}

	cmd.Printf("Relinked records under %s\n", root)
	cmd.Printf("  Already correct: %d\n", res.AlreadyCorrect)
	cmd.Printf("  Updated:         %d\n", res.Updated)
	cmd.Printf("  Missing:         %d\n", res.Missing)
	return nil
}

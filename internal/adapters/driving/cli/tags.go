package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show the tag vocabulary",
	Long:  `Prints the closed tag vocabulary used by classification and tag edits.`,
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var tagsSetCmd = &cobra.Command{
	Use:   "set [id] [tag...]",
	Short: "Replace the tags of a record",
	Long: `Replaces the tags of a stored record. Every tag must belong to the
vocabulary; parent tags are added automatically. Tags may be given as separate
arguments or as one comma separated list.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTagsSet,
}

func init() {
	tagsCmd.AddCommand(tagsSetCmd)
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, _ []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}

	for _, t := range catalogService.Vocabulary() {
		cmd.Println(t.String())
	}
	return nil
}

func runTagsSet(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}

	var tokens []string
	for _, a := range args[1:] {
		for _, tok := range strings.Split(a, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}

	rec, err := catalogService.UpdateTags(cmd.Context(), args[0], tokens)
	if err != nil {
		return fmt.Errorf("update tags: %w", err)
	}

	cmd.Printf("Updated %s\n", rec.ID)
	cmd.Printf("  Tags: %s\n", strings.Join(tagStrings(rec.Tags), ", "))
	return nil
}

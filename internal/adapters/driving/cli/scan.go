package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/logger"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Ingest every file under a directory once",
	Long: `Walks the directory (default: the watched directory) and runs every PDF,
image and text file through the ingestion pipeline. Text files are processed
first so captions are available when their images are classified.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(scanCmd)
}

// scanView is the JSON shape of a scan summary.
type scanView struct {
	Session    string `json:"session"`
	Root       string `json:"root"`
	PDFs       int    `json:"pdfs"`
	Images     int    `json:"images"`
	Texts      int    `json:"texts"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Stored     int    `json:"stored"`
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}

	root := watchRoot
	if len(args) > 0 {
		root = args[0]
	}

	session := uuid.NewString()
	logger.Info("scan %s started (session %s)", root, session)

	res, err := ingestor.Scan(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	logger.Info("scan %s finished (session %s): %d stored", root, session, res.Stored())

	if scanJSON {
		return printJSON(cmd, newScanView(session, root, res))
	}

	cmd.Printf("Scan complete: %s\n", root)
	cmd.Printf("  PDFs:       %d\n", res.PDFs)
	cmd.Printf("  Images:     %d\n", res.Images)
	cmd.Printf("  Texts:      %d\n", res.Texts)
	cmd.Printf("  Duplicates: %d\n", res.Duplicates)
	cmd.Printf("  Skipped:    %d\n", res.Skipped)
	cmd.Printf("  Failed:     %d\n", res.Failed)
	return nil
}

func newScanView(session, root string, res domain.ScanResult) scanView {
	return scanView{
		Session:    session,
		Root:       root,
		PDFs:       res.PDFs,
		Images:     res.Images,
		Texts:      res.Texts,
		Duplicates: res.Duplicates,
		Skipped:    res.Skipped,
		Failed:     res.Failed,
		Stored:     res.Stored(),
	}
}

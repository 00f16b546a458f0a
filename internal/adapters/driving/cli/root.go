// Package cli provides the refshelf command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refshelf/internal/core/ports/driving"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// version is overridden at build time via SetVersion.
var version = "dev"

// skipBootstrap marks commands that run without opening the store.
const skipBootstrap = "skip-bootstrap"

// Services carries everything the commands need. Built by the entry point.
type Services struct {
	Ingestor driving.Ingestor
	Catalog  driving.CatalogService
	Relink   driving.RelinkService

	// WatchRoot is the default directory for watch, scan and relink.
	WatchRoot string

	// WatchSettle is the quiet period before a written file is queued.
	WatchSettle time.Duration

	// LogFile receives log output while the dashboard owns the terminal.
	LogFile string
}

// BootstrapFunc builds the services from the config directory. The returned
// closer releases them when the command finishes.
type BootstrapFunc func(ctx context.Context, configDir string) (*Services, func() error, error)

var (
	configDir string
	verbose   bool

	bootstrap BootstrapFunc
	closer    func() error

	ingestor       driving.Ingestor
	catalogService driving.CatalogService
	relinkService  driving.RelinkService
	watchRoot      = "./watched_files"
	watchSettle    = 500 * time.Millisecond
	logFile        string
)

var rootCmd = &cobra.Command{
	Use:   "refshelf",
	Short: "Local-first reference shelf for images, PDFs and captions",
	Long: `refshelf watches a directory of harvested references, extracts their text,
classifies them against a fixed tag vocabulary with a local vision model,
files them into category folders and keeps a searchable record of each.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.refshelf)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap registers the function that builds services on first use.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices injects ready-made services.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	ingestor = s.Ingestor
	catalogService = s.Catalog
	relinkService = s.Relink
	if s.WatchRoot != "" {
		watchRoot = s.WatchRoot
	}
	if s.WatchSettle > 0 {
		watchSettle = s.WatchSettle
	}
	logFile = s.LogFile
}

// Execute runs the root command and releases bootstrapped services.
func Execute() error {
	defer func() {
		if closer == nil {
			return
		}
		if err := closer(); err != nil {
			logger.Warn("closing services: %v", err)
		}
		closer = nil
	}()
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] != "" || bootstrap == nil || catalogService != nil {
		return nil
	}

	svc, release, err := bootstrap(cmd.Context(), configDir)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	SetServices(svc)
	closer = release
	return nil
}

func requireIngestor() error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}
	return nil
}

func requireCatalog() error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	return nil
}

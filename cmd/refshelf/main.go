// Command refshelf watches a reference inbox, classifies every file with a
// local vision model and files it into a searchable shelf.
package main

import (
	"os"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/cli"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

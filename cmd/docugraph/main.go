// Command docugraph indexes a wiki and a relational database into a graph store.
package main

import (
	"os"

	"github.com/custodia-labs/docugraph/internal/adapters/driving/cli"
	"github.com/custodia-labs/docugraph/internal/bootstrap"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetWiring(bootstrap.Wiring())
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

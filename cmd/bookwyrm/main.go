// Command bookwyrm ingests knowledge sources into ordered chunks and embeddings.
package main

import (
	"os"

	"github.com/custodia-labs/bookwyrm/internal/adapters/driving/cli"
)

func main() {
	// cobra has already printed the error.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

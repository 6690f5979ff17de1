// Uplink - resilient media upload pipeline CLI.
package main

import (
	"os"

	"github.com/reelpipe/uplink/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

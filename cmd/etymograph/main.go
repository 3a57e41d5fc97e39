// Command etymograph explores word etymologies as an interactive graph,
// serves datasets over HTTP and exports layouts.
package main

import (
	"os"
)

var version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// ABOUTME: Help display for the galton CLI with grouped flags, examples, and environment status.
// ABOUTME: Provides printHelp for polished usage output and envStatus for env var detection.
package main

import (
	"fmt"
	"io"
	"os"
)

const galtonASCII = `
                _____________
                \  o  o  o  /
                 \  o  o   /
                  \   o   /
                   |     |
                   |  o  |
                      .
                     . .
                    . . .
                   . . . .
                  . . . . .
                 . . . . . .
                 _ _ _ _ _ _
               | | | |o| | | |
               | | |o|o|o| | |
               | |o|o|o|o|o| |
               |_|o|o|o|o|o|_|
`

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples, environment status, and a docs link.
func printHelp(w io.Writer, ver string) {
	fmt.Fprint(w, galtonASCII)
	fmt.Fprintf(w, "galton %s - stochastic model editor\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  galton <model.yaml>               Open a model in the formula workbench")
	fmt.Fprintln(w, "  galton -check <model.yaml>        Lint a model file and exit")
	fmt.Fprintln(w, "  galton -server [-port 7792]       Start the HTTP editor API")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Workbench Flags:")
	fmt.Fprintln(w, "  -tui                  Open the model file in the terminal formula workbench")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Server Flags:")
	fmt.Fprintln(w, "  -server               Start the HTTP editor server")
	fmt.Fprintln(w, "  -port <port>          Override the port from GALTON_BIND")
	fmt.Fprintln(w, "  -db <path>            Sqlite model archive (default: GALTON_DB)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -check                Lint a model file and exit non-zero on errors")
	fmt.Fprintln(w, "  -verbose              Verbose output")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  galton models/pricing.yaml")
	fmt.Fprintln(w, "  galton -check models/pricing.yaml")
	fmt.Fprintln(w, "  galton -server")
	fmt.Fprintln(w, "  galton -server -port 8080 -db /tmp/models.db")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  GALTON_HOME           %s\n", envStatus("GALTON_HOME"))
	fmt.Fprintf(w, "  GALTON_BIND           %s\n", envStatus("GALTON_BIND"))
	fmt.Fprintf(w, "  GALTON_DB             %s\n", envStatus("GALTON_DB"))
	fmt.Fprintf(w, "  GALTON_AUTH_TOKEN     %s\n", envStatus("GALTON_AUTH_TOKEN"))
	fmt.Fprintf(w, "  GALTON_ALLOW_REMOTE   %s\n", envStatus("GALTON_ALLOW_REMOTE"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  GALTON_ALLOW_REMOTE requires GALTON_AUTH_TOKEN to be set.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Docs: https://github.com/2389-research/galton")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}

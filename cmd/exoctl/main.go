// Command exoctl works with exoplorer data from the terminal: previewing
// exoplanet tables, managing the saved table and candidate records, and
// exporting them. It shares the storage backends of the web server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "exoctl:", err)
		os.Exit(1)
	}
}

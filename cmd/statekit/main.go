// Command statekit manages transition catalogs, grants and history from the
// command line against a SQLite or PostgreSQL database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command heliosdb-inspect dumps the structure of a single WAL, SST, or
// manifest file, dispatching on the file name (§4.9).
package main

import (
	"fmt"
	"os"

	"amethyst/internal/inspect"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <wal.log|sst_NNNNNN.dat|manifest.txt>\n", os.Args[0])
		os.Exit(1)
	}

	if err := inspect.Dispatch(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

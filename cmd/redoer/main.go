// Command redoer drains an entity-resolution engine's redo backlog.
package main

import (
	"fmt"
	"os"

	"github.com/senzing-garage/redoer/cmd/redoer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command voxelsyncd runs the chunk synchronisation daemon: either as the
// authoritative world host or as a streaming client against a remote
// authority, depending on the subcommand invoked.
package main

import (
	"fmt"
	"os"

	"github.com/voxelsync/voxelsync/cmd/voxelsyncd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command tile3d converts a mesh into an OGC 3D Tiles 1.1 tileset, wraps
// tileset validation as a CLI/HTTP surface, and reports build catalog stats.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:     "tile3d",
		Short:   "Tile photogrammetry meshes into OGC 3D Tiles 1.1",
		Version: "0.1.0",
	}

	root.AddCommand(newBuildCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

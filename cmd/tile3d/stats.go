package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joeblew999/tile3d/internal/catalog"
)

func newStatsCmd() *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "stats <run-id>",
		Short: "Report catalog statistics for a previous build run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := catalog.Open(dataDir)
			if err != nil {
				return err
			}
			stats, err := catalog.Stats(db, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("run:       %s\n", stats.RunID)
			fmt.Printf("tiles:     %d\n", stats.TileCount)
			fmt.Printf("failures:  %d\n", stats.FailureCount)
			fmt.Printf("max level: %d\n", stats.MaxLevel)
			fmt.Printf("bytes:     %d\n", stats.TotalBytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", ".data", "Directory holding the build catalog (DuckDB)")
	return cmd
}

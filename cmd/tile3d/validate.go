package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeblew999/tile3d/internal/validate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <tileset-dir>",
		Short: "Walk tileset.json and verify every content.uri parses as a GLB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := validate.Dir(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("validated %d tile(s) under %s\n", report.TileCount, report.TilesetPath)
			for _, p := range report.Problems {
				fmt.Fprintln(os.Stderr, p.Error())
			}
			if !report.OK() {
				return fmt.Errorf("validate: %d problem(s) found", len(report.Problems))
			}
			return nil
		},
	}
}

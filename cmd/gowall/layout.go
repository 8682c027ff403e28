package main

import (
	"fmt"
	"strconv"

	"github.com/philipparndt/gowall/pkg/layout"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:     "layout count width height",
	Short:   "Print the auto-layout anchor positions for an object size",
	Example: "  gowall layout 2 0.5 0.2",
	Args:    cobra.ExactArgs(3),
	RunE:    runLayout,
}

func init() {
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	count, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", args[0], err)
	}
	width, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", args[1], err)
	}
	height, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[2], err)
	}

	points, err := layout.AutoLayout(count, width, height)
	if err != nil {
		return err
	}
	norm, _ := layout.Normalized(count)

	fmt.Printf("Auto-layout for %d anchor(s) on %.3f x %.3f m\n", count, width, height)
	for i, p := range points {
		fmt.Printf("  %d: normalized (%.2f, %.2f) -> local (%.6f, %.6f)\n", i+1, norm[i][0], norm[i][1], p.X, p.Y)
	}
	return nil
}

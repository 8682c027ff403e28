package main

import (
	"fmt"

	"github.com/philipparndt/gowall/pkg/geometry"
	"github.com/spf13/cobra"
)

var fitCmd = &cobra.Command{
	Use:   "fit p1 p2 p3",
	Short: "Fit a wall plane through three points",
	Long: `Fit the plane through three points given as x,y,z. The plane passes through p1
and its normal follows the winding p1 -> p2 -> p3.`,
	Example: "  gowall fit 0,0,0 1,0,0 1,1,0",
	Args:    cobra.ExactArgs(3),
	RunE:    runFit,
}

func init() {
	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	p, err := parseVectors(args)
	if err != nil {
		return err
	}
	plane, err := geometry.FitPlane(p[0], p[1], p[2])
	if err != nil {
		return err
	}
	basis, err := geometry.BuildBasis(p[0], p[1], p[2])
	if err != nil {
		return err
	}
	q := basis.Quaternion()

	fmt.Println("Wall Plane")
	fmt.Println("==========")
	fmt.Printf("Point:   %s\n", formatVector(plane.Point))
	fmt.Printf("Normal:  %s\n\n", formatVector(plane.Normal))

	fmt.Println("Basis:")
	fmt.Printf("  Right:   %s\n", formatVector(basis.Right))
	fmt.Printf("  Up:      %s\n", formatVector(basis.Up))
	fmt.Printf("  Forward: %s\n\n", formatVector(basis.Forward))

	fmt.Printf("Rotation (deg): %s\n", formatVector(basis.EulerDegrees()))
	fmt.Printf("Quaternion:     (%.6f, %.6f, %.6f, %.6f)\n", q.X, q.Y, q.Z, q.W)
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/gowall/internal/storage"
	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
	"github.com/spf13/cobra"
)

var rectJSON bool

var rectCmd = &cobra.Command{
	Use:   "rect top-left top-right bottom-right",
	Short: "Reconstruct a rectangle from three corners",
	Long: `Complete a rectangle from three corners given as x,y,z and report its fourth
corner, size, center and orientation. The corners are expected to form a
right angle at top-right; the deviation from 90 degrees is reported but
not corrected.`,
	Example: "  gowall rect 0,1,0 0.5,1,0 0.5,0.8,0",
	Args:    cobra.ExactArgs(3),
	RunE:    runRect,
}

func init() {
	rootCmd.AddCommand(rectCmd)
	rectCmd.Flags().BoolVar(&rectJSON, "json", false, "print the interchange record instead")
}

func runRect(cmd *cobra.Command, args []string) error {
	p, err := parseVectors(args)
	if err != nil {
		return err
	}
	rect, err := geometry.Reconstruct(p[0], p[1], p[2])
	if err != nil {
		return err
	}

	if rectJSON {
		obj := calibration.NewSpatialObject(uuid.NewString(), rect, time.Now())
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(storage.ToRecord(obj))
	}

	fmt.Println("Rectangle")
	fmt.Println("=========")
	fmt.Printf("Fourth corner: %s\n", formatVector(rect.FourthCorner()))
	fmt.Printf("Center:        %s\n", formatVector(rect.Center))
	fmt.Printf("Width:         %.6f m (%.1f cm)\n", rect.Width, rect.Width*100)
	fmt.Printf("Height:        %.6f m (%.1f cm)\n", rect.Height, rect.Height*100)
	fmt.Printf("Rotation (deg): %s\n", formatVector(rect.Basis.EulerDegrees()))
	fmt.Printf("Corner deviation: %.3f deg\n", rect.CornerDeviation())
	return nil
}

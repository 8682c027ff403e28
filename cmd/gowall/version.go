package main

import (
	"fmt"

	"github.com/philipparndt/gowall/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("gowall", version.GetFullVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

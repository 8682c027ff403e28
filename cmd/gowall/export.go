package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/philipparndt/gowall/internal/storage"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [out.json]",
	Short: "Export the stored layout as a JSON document",
	Long: `Write the wall calibration and all objects from --store or --db as a
versioned JSON document. Without an output file the document goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sink, closeSink, err := openSink(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSink()
	if sink == nil {
		return fmt.Errorf("nothing to export: set --store or --db")
	}

	doc, err := sink.Load(cmd.Context())
	if err != nil {
		return err
	}
	if doc.Version == "" {
		doc.Version = storage.DocumentVersion
	}

	if len(args) == 1 {
		return storage.NewJSONFile(args[0]).Save(cmd.Context(), doc)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"crmcal/internal/export"
	"crmcal/internal/ics"
	appLog "crmcal/internal/log"
)

var (
	exportDir    string
	exportName   string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the seeded events as CSV and/or iCalendar",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (default: export.dir from config)")
	exportCmd.Flags().StringVar(&exportName, "name", "", "Base file name without extension (default: export.filename)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv, ics or all")
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportDir == "" {
		exportDir = conf.Export.Dir
	}
	if exportName == "" {
		exportName = conf.Export.Filename
	}

	var csvOut, icsOut bool
	switch exportFormat {
	case "csv":
		csvOut = true
	case "ics":
		icsOut = true
	case "all":
		csvOut, icsOut = true, true
	default:
		return fmt.Errorf("export: unknown format %q", exportFormat)
	}

	now := time.Now()
	engine := newEngine(cmd.Context(), conf, now)
	events := engine.Events()

	if csvOut {
		path, err := export.WriteFile(exportDir, exportName, export.EventRecords(events))
		if err != nil {
			return err
		}
		if path == "" {
			appLog.Info("export: no events; csv not written")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
	}

	if icsOut {
		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return fmt.Errorf("export: create dir: %w", err)
		}
		path := filepath.Join(exportDir, exportName+".ics")
		if err := os.WriteFile(path, []byte(ics.Encode(events, now)), 0o644); err != nil {
			return fmt.Errorf("export: write ics: %w", err)
		}
		appLog.Info("export: ics written", "path", path, "events", len(events))
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}

	return nil
}

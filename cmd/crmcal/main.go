// Command crmcal serves and exports the CRM dashboard calendar.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"crmcal/internal/config"
	appLog "crmcal/internal/log"
)

const version = "0.1.0"

var (
	configPath string
	consoleLog bool

	// conf is loaded once by the root PersistentPreRunE.
	conf *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "crmcal",
	Short:         "Month calendar engine for the CRM dashboard",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if consoleLog {
			appLog.UseConsole()
		}
		c, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		appLog.SetLevel(appLog.ParseLevel(c.LogLevel))
		conf = c

		appLog.Debug("effective config",
			"command", cmd.Name(),
			"listen", c.Listen,
			"timezone", c.Timezone,
			"week_start", c.WeekStart,
			"day_order", c.DayOrder,
			"current_user", c.CurrentUser,
			"create_delay", c.CreateDelay.String(),
			"strict_times", c.StrictTimes,
			"seed_mock", c.SeedMock,
			"ics_count", len(c.ICS),
			"export_cron", c.Export.Cron,
		)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./crmcal.yaml", "Path to config file (created with defaults if missing)")
	rootCmd.PersistentFlags().BoolVar(&consoleLog, "console", false, "Human-readable log output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// loadConfig loads path. When the file is missing and the defaults cannot
// be written there (read-only directory), it logs and runs on the defaults.
func loadConfig(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if err != nil {
		if c == nil {
			return nil, err
		}
		appLog.Error("could not write default config; continuing with defaults", err, "config_path", path)
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		appLog.Error("crmcal failed", err)
		os.Exit(1)
	}
}

package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"verdura-labs/market-scraper/internal/config"
	"verdura-labs/market-scraper/internal/csvwriter"
	"verdura-labs/market-scraper/internal/db"
)

var (
	exportFrom string
	exportTo   string
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-emit CSV from the archive for a date range",
	Long: `Reads previously scraped records back out of the SQLite archive and
writes them to a single CSV file. Useful for rebuilding a downstream
feed without hitting the market website again.`,
	Run: func(cmd *cobra.Command, args []string) {
		runExport()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first date (YYYY-MM-DD, required)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last date (YYYY-MM-DD, required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default <OUT_DIR>/export_<from>_<to>.csv)")
	exportCmd.MarkFlagRequired("from")
	exportCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(exportCmd)
}

func runExport() {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		logrus.Fatalf("Config error: %v", err)
	}

	from, err := time.Parse(dayLayout, exportFrom)
	if err != nil {
		logrus.Fatalf("Invalid --from: %v", err)
	}
	to, err := time.Parse(dayLayout, exportTo)
	if err != nil {
		logrus.Fatalf("Invalid --to: %v", err)
	}

	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		logrus.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	records, err := db.RecordsBetween(database, from, to)
	if err != nil {
		logrus.Fatalf("Failed to read archive: %v", err)
	}
	if len(records) == 0 {
		logrus.Warnf("No archived records between %s and %s", exportFrom, exportTo)
		return
	}

	out := exportOut
	if out == "" {
		out = appCfg.OutDir + "/export_" + exportFrom + "_" + exportTo + ".csv"
	}
	// Exports are rebuilt from scratch, unlike the append-only day files.
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		logrus.Fatalf("Failed to replace %s: %v", out, err)
	}
	if err := csvwriter.Append(out, records); err != nil {
		logrus.Fatalf("Failed to write export: %v", err)
	}

	logrus.Infof("SUCCESS: exported %d records to %s", len(records), out)
}

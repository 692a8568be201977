package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "market-scraper",
	Short: "Scrapes daily fresh-produce market bulletins into CSV",
	Long: `market-scraper collects the daily crop bulletin of a public
produce market (prices, packaging, volumes, revenue per crop), writes
one raw CSV file per day for downstream analytics, and keeps a local
SQLite archive of everything it has seen.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; real deployments set the variables directly.
		_ = godotenv.Load()
		setupLogging()
	},
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

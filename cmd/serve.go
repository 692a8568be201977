package cmd

import (
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"verdura-labs/market-scraper/internal/config"
	"verdura-labs/market-scraper/internal/db"
	"verdura-labs/market-scraper/internal/models"
	"verdura-labs/market-scraper/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a read-only web view of the archive",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServer() {
	// 1. Setup
	appCfg, err := config.GetAppConfig()
	if err != nil {
		logrus.Fatalf("Config error: %v", err)
	}
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		logrus.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	// 2. Pre-build templates
	homeTmpl, err := template.ParseFS(web.GetTemplatesFS(), "templates/base.html", "templates/home.html")
	if err != nil {
		logrus.Fatalf("Failed to parse templates: %v", err)
	}

	// 3. Routes
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		day, err := db.LatestDay(database)
		if err != nil {
			logrus.WithError(err).Error("DB error")
			http.Error(w, "Failed to load archive", http.StatusInternalServerError)
			return
		}

		var records []models.MarketRecord
		if !day.IsZero() {
			records, err = db.RecordsBetween(database, day, day)
			if err != nil {
				logrus.WithError(err).Error("DB error")
				http.Error(w, "Failed to load archive", http.StatusInternalServerError)
				return
			}
		}

		data := struct {
			Day     string
			Records []models.MarketRecord
		}{
			Day:     day.Format(dayLayout),
			Records: records,
		}
		if err := homeTmpl.ExecuteTemplate(w, "base.html", data); err != nil {
			logrus.WithError(err).Error("Template error")
		}
	})

	// 4. Start Server
	logrus.Infof("Archive view started at http://localhost%s", serveAddr)
	server := &http.Server{
		Addr:         serveAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logrus.Fatal(server.ListenAndServe())
}

package cmd

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"verdura-labs/market-scraper/internal/config"
	"verdura-labs/market-scraper/internal/csvwriter"
	"verdura-labs/market-scraper/internal/db"
	"verdura-labs/market-scraper/internal/fetcher"
	"verdura-labs/market-scraper/internal/models"
	"verdura-labs/market-scraper/internal/scraper"
)

const dayLayout = "2006-01-02"

var (
	scrapeDate string
	scrapeFrom string
	scrapeTo   string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape one date (or a date range) into CSV and the archive",
	Long: `Fetches the market bulletin for the given date, extracts the per-crop
rows, normalizes them and writes one CSV file per day. Every record is
also upserted into the local SQLite archive. A date range is processed
strictly one date at a time.`,
	Run: func(cmd *cobra.Command, args []string) {
		runScrape()
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeDate, "date", "", "date to scrape (YYYY-MM-DD, default today)")
	scrapeCmd.Flags().StringVar(&scrapeFrom, "from", "", "first date of a range (YYYY-MM-DD)")
	scrapeCmd.Flags().StringVar(&scrapeTo, "to", "", "last date of a range (YYYY-MM-DD)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape() {
	// 1. Load Config
	appCfg, err := config.GetAppConfig()
	if err != nil {
		logrus.Fatalf("Config error: %v", err)
	}
	if appCfg.TargetURL == "" {
		logrus.Fatal("TARGET_URL is not set")
	}
	siteCfg := loadSiteConfigOrDefault(appCfg.ConfigPath)

	from, to, err := resolveDates()
	if err != nil {
		logrus.Fatalf("Invalid date flags: %v", err)
	}

	// 2. Connect to DB
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		logrus.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	// 3. Pick the fetcher
	var f fetcher.Fetcher
	if siteCfg.FetchMode == "browser" {
		bf, err := fetcher.NewBrowserFetcher()
		if err != nil {
			logrus.Fatalf("Browser error: %v", err)
		}
		defer bf.Close()
		f = bf
	} else {
		f = fetcher.NewHTTPFetcher()
	}

	// 4. One date at a time, fetch through write, then the next
	ctx := context.Background()
	failed := 0
	total := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		n, err := scrapeDay(ctx, f, siteCfg, appCfg, database, day)
		if err != nil {
			logrus.WithError(err).Errorf("Date %s failed", day.Format(dayLayout))
			failed++
			continue
		}
		total += n
	}

	if failed > 0 {
		logrus.Fatalf("Done with errors: %d records written, %d date(s) failed", total, failed)
	}
	logrus.Infof("SUCCESS: %d records written", total)
}

func scrapeDay(ctx context.Context, f fetcher.Fetcher, siteCfg *config.SiteConfig, appCfg config.AppConfig, database *sql.DB, day time.Time) (int, error) {
	pageURL := fetcher.PageURL(appCfg.TargetURL, day, siteCfg.DateLayout)

	records, err := scraper.Run(ctx, f, siteCfg, pageURL, day)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		logrus.Warnf("No records for %s, nothing written", day.Format(dayLayout))
		return 0, nil
	}

	// Records keep the page's own date, which can differ from the
	// requested one around midnight rollover.
	day = records[0].Date

	if err := csvwriter.Append(csvwriter.DayFile(appCfg.OutDir, day), records); err != nil {
		return 0, err
	}

	if siteCfg.SplitByCommodity {
		for crop, group := range groupByCrop(records) {
			path := csvwriter.CommodityFile(appCfg.OutDir, day, crop)
			if err := csvwriter.Append(path, group); err != nil {
				return 0, err
			}
		}
	}

	count, err := db.SaveRecords(database, records)
	if err != nil {
		return 0, err
	}
	logrus.Infof("Archived %d records for %s", count, day.Format(dayLayout))

	return len(records), nil
}

func loadSiteConfigOrDefault(path string) *config.SiteConfig {
	if _, err := os.Stat(path); err != nil {
		logrus.Infof("No site config at %s, using built-in defaults", path)
		return config.DefaultSiteConfig()
	}
	siteCfg, err := config.LoadSiteConfig(path)
	if err != nil {
		logrus.Fatalf("Failed to load site config: %v", err)
	}
	return siteCfg
}

func resolveDates() (time.Time, time.Time, error) {
	if scrapeFrom != "" || scrapeTo != "" {
		from, err := time.Parse(dayLayout, scrapeFrom)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := time.Parse(dayLayout, scrapeTo)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return from, to, nil
	}
	if scrapeDate != "" {
		day, err := time.Parse(dayLayout, scrapeDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return day, day, nil
	}
	today := midnightOf(time.Now())
	return today, today, nil
}

// midnightOf strips the time of day in the timestamp's own location.
// Truncating would round to UTC midnight and, east of UTC, resolve to
// yesterday during the early hours.
func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func groupByCrop(records []models.MarketRecord) map[string][]models.MarketRecord {
	groups := make(map[string][]models.MarketRecord)
	for _, rec := range records {
		groups[rec.CropName] = append(groups[rec.CropName], rec)
	}
	return groups
}

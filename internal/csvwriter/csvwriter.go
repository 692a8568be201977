// Package csvwriter emits the raw ingestion CSV files consumed by the
// downstream analytics pipeline.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"verdura-labs/market-scraper/internal/models"
)

var logger = logrus.WithField("component", "csvwriter")

// DayFile returns the per-day output path, e.g. market_2024-05-01.csv.
func DayFile(outDir string, day time.Time) string {
	return filepath.Join(outDir, fmt.Sprintf("market_%s.csv", day.Format("2006-01-02")))
}

// CommodityFile returns the per-commodity output path for split mode.
func CommodityFile(outDir string, day time.Time, commodity string) string {
	return filepath.Join(outDir, fmt.Sprintf("market_%s_%s.csv", day.Format("2006-01-02"), SanitizeName(commodity)))
}

// Append writes records to path, creating the file with a header row
// first if it does not exist yet. Re-running a day appends; the files
// are an append-only ingestion log, never rewritten.
func Append(path string, records []models.MarketRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(models.CSVHeader); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}

	for _, rec := range records {
		if err := w.Write(row(rec)); err != nil {
			return fmt.Errorf("failed to write record to %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	logger.Infof("Wrote %d records to %s", len(records), path)
	return nil
}

func row(rec models.MarketRecord) []string {
	return []string{
		rec.Date.Format("2006-01-02"),
		rec.CropName,
		rec.PackagingType,
		strconv.FormatFloat(rec.UnitPrice, 'f', 2, 64),
		strconv.FormatInt(rec.DailyVolume, 10),
		strconv.FormatInt(rec.CumulativeMonthlyVolume, 10),
		strconv.FormatFloat(rec.Revenue, 'f', 2, 64),
	}
}

// SanitizeName makes a commodity caption safe for use in a file name.
var nameSanitizer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "", "?", "",
	"[", "(", "]", ")", "'", "", "\"", "", " ", "_",
)

func SanitizeName(name string) string {
	s := nameSanitizer.Replace(strings.TrimSpace(name))
	// Truncate by runes: commodity captions are routinely multibyte
	// (Korean bulletins), and cutting bytes would corrupt the name.
	if runes := []rune(s); len(runes) > 31 {
		s = string(runes[:31])
	}
	if s == "" {
		s = "unnamed"
	}
	return s
}

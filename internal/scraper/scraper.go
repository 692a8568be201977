// Package scraper orchestrates one day's pipeline:
// fetch -> extract -> normalize. Writing is left to the caller.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"verdura-labs/market-scraper/internal/config"
	"verdura-labs/market-scraper/internal/extractor"
	"verdura-labs/market-scraper/internal/fetcher"
	"verdura-labs/market-scraper/internal/models"
	"verdura-labs/market-scraper/internal/normalizer"
)

var logger = logrus.WithField("component", "scraper")

// Run scrapes a single day's bulletin. Dates are processed one at a
// time, to completion, in order; there is no concurrency and no retry.
// A fetch or parse failure aborts the date; a row that fails validation
// is logged and skipped.
func Run(ctx context.Context, f fetcher.Fetcher, cfg *config.SiteConfig, pageURL string, day time.Time) ([]models.MarketRecord, error) {
	ext := extractor.New(cfg)
	norm := normalizer.New(cfg)

	html, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bulletin for %s: %w", day.Format("2006-01-02"), err)
	}

	// The bulletin publishes its own observation date. A mismatch means
	// the site has not rolled over yet; the published date wins.
	if pageDate, err := ext.PageDate(html); err != nil {
		logger.WithError(err).Warn("Could not read page date, using requested date")
	} else if !sameDay(pageDate, day) {
		logger.Warnf("Page date %s differs from requested %s, keeping page date",
			pageDate.Format("2006-01-02"), day.Format("2006-01-02"))
		day = pageDate
	}

	links, err := ext.CommodityLinks(html)
	if err != nil {
		return nil, err
	}
	links = filterLinks(links, cfg.DisallowedKeywords)

	var records []models.MarketRecord
	skipped := 0

	appendRows := func(commodity string, rows []extractor.FieldMap) {
		for _, row := range rows {
			rec, err := norm.Normalize(day, commodity, row)
			if err != nil {
				logger.WithError(err).Warn("Skipping invalid row")
				skipped++
				continue
			}
			records = append(records, rec)
		}
	}

	if len(links) == 0 {
		// Single-table bulletin: the index page is the table page.
		rows, err := ext.Table(html)
		if err != nil {
			return nil, err
		}
		appendRows("", rows)
	} else {
		for _, link := range links {
			url := fetcher.Resolve(pageURL, link.Href)
			logger.Infof("Scraping commodity '%s'", link.Name)

			pageHTML, err := f.Fetch(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch commodity '%s': %w", link.Name, err)
			}
			rows, err := ext.Table(pageHTML)
			if err != nil {
				return nil, fmt.Errorf("failed to parse commodity '%s': %w", link.Name, err)
			}
			appendRows(link.Name, rows)
		}
	}

	logger.Infof("Day %s: %d records, %d rows skipped", day.Format("2006-01-02"), len(records), skipped)
	return records, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func filterLinks(links []extractor.CommodityLink, disallowed []string) []extractor.CommodityLink {
	if len(disallowed) == 0 {
		return links
	}
	var kept []extractor.CommodityLink
	for _, link := range links {
		nameLower := strings.ToLower(link.Name)
		blocked := false
		for _, kw := range disallowed {
			if strings.Contains(nameLower, strings.ToLower(kw)) {
				logger.Infof("Skipping commodity (keyword '%s'): %s", kw, link.Name)
				blocked = true
				break
			}
		}
		if !blocked {
			kept = append(kept, link)
		}
	}
	return kept
}

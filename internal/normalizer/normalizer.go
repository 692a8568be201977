// Package normalizer maps extracted field-maps onto the fixed
// MarketRecord schema.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"verdura-labs/market-scraper/internal/config"
	"verdura-labs/market-scraper/internal/extractor"
	"verdura-labs/market-scraper/internal/models"
)

// ErrValidation marks a row missing a required field. Bad rows are
// logged and skipped by the pipeline; they never abort a run.
var ErrValidation = errors.New("record validation failure")

// Normalizer resolves the site's column captions to record fields.
type Normalizer struct {
	cols config.Columns
}

func New(cfg *config.SiteConfig) *Normalizer {
	return &Normalizer{cols: cfg.Columns}
}

// Normalize builds a MarketRecord from one extracted row. The crop name
// falls back to the commodity link caption when the table itself has no
// crop column.
func (n *Normalizer) Normalize(day time.Time, commodity string, row extractor.FieldMap) (models.MarketRecord, error) {
	rec := models.MarketRecord{Date: day}

	rec.CropName = row[n.cols.CropName]
	if rec.CropName == "" {
		rec.CropName = commodity
	}
	if rec.CropName == "" {
		return models.MarketRecord{}, fmt.Errorf("%w: missing crop name", ErrValidation)
	}

	rec.PackagingType = row[n.cols.PackagingType]
	if rec.PackagingType == "" {
		return models.MarketRecord{}, fmt.Errorf("%w: missing packaging type for '%s'", ErrValidation, rec.CropName)
	}

	price, ok := parseMoney(row[n.cols.UnitPrice])
	if !ok {
		return models.MarketRecord{}, fmt.Errorf("%w: missing unit price for '%s'", ErrValidation, rec.CropName)
	}
	rec.UnitPrice = price

	// Volumes and revenue are optional on some bulletins; absent values
	// become zero rather than failing the row.
	rec.DailyVolume = parseCount(row[n.cols.DailyVolume])
	rec.CumulativeMonthlyVolume = parseCount(row[n.cols.CumulativeMonthlyVolume])
	if revenue, ok := parseMoney(row[n.cols.Revenue]); ok {
		rec.Revenue = revenue
	}

	return rec, nil
}

// Fields rebuilds the field-map a normalized record would have been
// extracted from. Normalize(Fields(rec)) returns rec unchanged.
func (n *Normalizer) Fields(rec models.MarketRecord) extractor.FieldMap {
	return extractor.FieldMap{
		n.cols.CropName:                rec.CropName,
		n.cols.PackagingType:           rec.PackagingType,
		n.cols.UnitPrice:               strconv.FormatFloat(rec.UnitPrice, 'f', 2, 64),
		n.cols.DailyVolume:             strconv.FormatInt(rec.DailyVolume, 10),
		n.cols.CumulativeMonthlyVolume: strconv.FormatInt(rec.CumulativeMonthlyVolume, 10),
		n.cols.Revenue:                 strconv.FormatFloat(rec.Revenue, 'f', 2, 64),
	}
}

var reMoney = regexp.MustCompile(`[^\d\.]+`)
var reDigits = regexp.MustCompile(`[^\d]+`)

// parseMoney strips currency symbols and thousands separators before
// parsing. The second return reports whether a value was present.
func parseMoney(s string) (float64, bool) {
	cleaned := reMoney.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseCount(s string) int64 {
	cleaned := reDigits.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

package models

import "time"

// MarketRecord holds one crop's published figures for one market day.
type MarketRecord struct {
	Date                    time.Time
	CropName                string
	PackagingType           string
	UnitPrice               float64
	DailyVolume             int64
	CumulativeMonthlyVolume int64
	// Revenue is taken from the page as published. It does not always
	// reconcile with UnitPrice * DailyVolume and is never recomputed.
	Revenue float64
}

// CSVHeader is the column order used for every CSV file we emit.
var CSVHeader = []string{
	"date",
	"crop_name",
	"packaging_type",
	"unit_price",
	"daily_volume",
	"cumulative_monthly_volume",
	"revenue",
}

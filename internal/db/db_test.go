package db

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdura-labs/market-scraper/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, createSchema(database))
	return database
}

func record(day time.Time, crop string, price float64) models.MarketRecord {
	return models.MarketRecord{
		Date:                    day,
		CropName:                crop,
		PackagingType:           "Crate",
		UnitPrice:               price,
		DailyVolume:             340,
		CumulativeMonthlyVolume: 5100,
		Revenue:                 4250.00,
	}
}

func TestSaveRecordsUpsert(t *testing.T) {
	database := openTestDB(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// 1. Insert
	count, err := SaveRecords(database, []models.MarketRecord{record(day, "Tomato", 12.50)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 2. Re-scrape the same key: figures must be replaced, not duplicated
	_, err = SaveRecords(database, []models.MarketRecord{record(day, "Tomato", 13.75)})
	require.NoError(t, err)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM market_records`).Scan(&n))
	assert.Equal(t, 1, n)

	var price float64
	require.NoError(t, database.QueryRow(
		`SELECT unit_price FROM market_records WHERE date = ? AND crop_name = ?`,
		"2024-05-01", "Tomato").Scan(&price))
	assert.Equal(t, 13.75, price)
}

func TestSaveRecordsDistinctPackaging(t *testing.T) {
	database := openTestDB(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	crate := record(day, "Tomato", 12.50)
	bag := record(day, "Tomato", 9.00)
	bag.PackagingType = "Bag"

	// Same crop and day under two packagings are two records.
	_, err := SaveRecords(database, []models.MarketRecord{crate, bag})
	require.NoError(t, err)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM market_records`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRecordsBetween(t *testing.T) {
	database := openTestDB(t)
	d1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)

	_, err := SaveRecords(database, []models.MarketRecord{
		record(d3, "Tomato", 14.00),
		record(d1, "Tomato", 12.50),
		record(d2, "Cucumber", 7.20),
		record(d2, "Apple", 5.00),
	})
	require.NoError(t, err)

	records, err := RecordsBetween(database, d1, d2)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Ordered by date, then crop.
	assert.Equal(t, "Tomato", records[0].CropName)
	assert.Equal(t, d1, records[0].Date)
	assert.Equal(t, "Apple", records[1].CropName)
	assert.Equal(t, "Cucumber", records[2].CropName)
	assert.Equal(t, 12.50, records[0].UnitPrice)
	assert.Equal(t, int64(340), records[0].DailyVolume)
}

func TestLatestDay(t *testing.T) {
	database := openTestDB(t)

	day, err := LatestDay(database)
	require.NoError(t, err)
	assert.True(t, day.IsZero())

	d1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	_, err = SaveRecords(database, []models.MarketRecord{
		record(d2, "Tomato", 14.00),
		record(d1, "Tomato", 12.50),
	})
	require.NoError(t, err)

	day, err = LatestDay(database)
	require.NoError(t, err)
	assert.Equal(t, d2, day)
}

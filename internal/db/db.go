package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only

	"verdura-labs/market-scraper/internal/models"
)

// Connect opens a connection to the SQLite archive and ensures the
// schema exists. It automatically applies recommended settings for
// concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(db *sql.DB) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS market_records (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  date TEXT NOT NULL,
	  crop_name TEXT NOT NULL,
	  packaging_type TEXT NOT NULL,
	  unit_price REAL,
	  daily_volume INTEGER,
	  cumulative_monthly_volume INTEGER,
	  revenue REAL,
	  first_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  last_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  UNIQUE(date, crop_name, packaging_type)
	);
	CREATE INDEX IF NOT EXISTS idx_date ON market_records(date);
	CREATE INDEX IF NOT EXISTS idx_crop ON market_records(crop_name);
	`
	_, err := db.Exec(schemaSQL)
	return err
}

// SaveRecords performs a batch UPSERT of market records. A re-scraped
// day overwrites the previous figures for the same (date, crop,
// packaging) key and refreshes 'last_scraped_at'.
func SaveRecords(db *sql.DB, records []models.MarketRecord) (int64, error) {
	upsertSQL := `
	INSERT INTO market_records (
	  date, crop_name, packaging_type, unit_price, daily_volume,
	  cumulative_monthly_volume, revenue, last_scraped_at
	) VALUES (
	  ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP
	) ON CONFLICT(date, crop_name, packaging_type) DO UPDATE SET
	  unit_price = excluded.unit_price,
	  daily_volume = excluded.daily_volume,
	  cumulative_monthly_volume = excluded.cumulative_monthly_volume,
	  revenue = excluded.revenue,
	  last_scraped_at = CURRENT_TIMESTAMP;
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	var totalAffected int64 = 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			rec.Date.Format("2006-01-02"),
			rec.CropName,
			rec.PackagingType,
			rec.UnitPrice,
			rec.DailyVolume,
			rec.CumulativeMonthlyVolume,
			rec.Revenue,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to upsert %s/%s: %w", rec.CropName, rec.PackagingType, err)
		}
		rows, _ := res.RowsAffected()
		totalAffected += rows
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return totalAffected, nil
}

// RecordsBetween returns archived records for the inclusive date range,
// ordered by date then crop name.
func RecordsBetween(db *sql.DB, from, to time.Time) ([]models.MarketRecord, error) {
	rows, err := db.Query(`
		SELECT date, crop_name, packaging_type, unit_price, daily_volume,
		       cumulative_monthly_volume, revenue
		FROM market_records
		WHERE date >= ? AND date <= ?
		ORDER BY date, crop_name, packaging_type
	`, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MarketRecord
	for rows.Next() {
		var rec models.MarketRecord
		var day string
		if err := rows.Scan(&day, &rec.CropName, &rec.PackagingType, &rec.UnitPrice,
			&rec.DailyVolume, &rec.CumulativeMonthlyVolume, &rec.Revenue); err != nil {
			return nil, err
		}
		rec.Date, err = time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("corrupt date '%s' in archive: %w", day, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestDay returns the most recent date present in the archive, or the
// zero time when the archive is empty.
func LatestDay(db *sql.DB) (time.Time, error) {
	var day sql.NullString
	err := db.QueryRow(`SELECT MAX(date) FROM market_records`).Scan(&day)
	if err != nil {
		return time.Time{}, err
	}
	if !day.Valid || day.String == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", day.String)
}

package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskd/internal/database"
	"github.com/aristath/riskd/pkg/timeseries"
)

// Repository provides access to the daily_closes table in history.db.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// UpsertCloses inserts or replaces closing prices for a symbol.
// All rows are written in a single transaction. Dates are normalized
// to UTC midnight before storage.
func (r *Repository) UpsertCloses(symbol string, closes []DailyClose) (int, error) {
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	if len(closes) == 0 {
		return 0, nil
	}

	written := 0
	err := database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO daily_closes (symbol, date, close)
			VALUES (?, ?, ?)
			ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, c := range closes {
			if c.Close <= 0 {
				return fmt.Errorf("close price must be positive, got %f for %s", c.Close, c.Date.Format("2006-01-02"))
			}
			if _, err := stmt.Exec(symbol, NormalizeDate(c.Date).Unix(), c.Close); err != nil {
				return fmt.Errorf("failed to upsert close for %s: %w", c.Date.Format("2006-01-02"), err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Str("symbol", symbol).Int("count", written).Msg("Upserted daily closes")
	return written, nil
}

// CloseSeries loads the full closing price history for a symbol, ordered
// by date ascending.
func (r *Repository) CloseSeries(symbol string) (*timeseries.Series, error) {
	rows, err := r.db.Query(`
		SELECT date, close FROM daily_closes
		WHERE symbol = ?
		ORDER BY date ASC
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	series := timeseries.New(0)
	for rows.Next() {
		var ts int64
		var close float64
		if err := rows.Scan(&ts, &close); err != nil {
			return nil, fmt.Errorf("failed to scan close row: %w", err)
		}
		if err := series.Append(time.Unix(ts, 0).UTC(), close); err != nil {
			return nil, fmt.Errorf("corrupt date ordering for %s: %w", symbol, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate close rows: %w", err)
	}

	return series, nil
}

// ListCloses returns the stored observations for a symbol, newest first,
// capped at limit (0 means no cap).
func (r *Repository) ListCloses(symbol string, limit int) ([]DailyClose, error) {
	query := `
		SELECT date, close FROM daily_closes
		WHERE symbol = ?
		ORDER BY date DESC
	`
	args := []interface{}{symbol}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []DailyClose
	for rows.Next() {
		var ts int64
		c := DailyClose{Symbol: symbol}
		if err := rows.Scan(&ts, &c.Close); err != nil {
			return nil, fmt.Errorf("failed to scan close row: %w", err)
		}
		c.Date = time.Unix(ts, 0).UTC()
		closes = append(closes, c)
	}
	return closes, rows.Err()
}

// ListSymbols returns a summary of each symbol with stored history.
func (r *Repository) ListSymbols() ([]SymbolSummary, error) {
	rows, err := r.db.Query(`
		SELECT symbol, COUNT(*), MIN(date), MAX(date)
		FROM daily_closes
		GROUP BY symbol
		ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol summaries: %w", err)
	}
	defer rows.Close()

	var summaries []SymbolSummary
	for rows.Next() {
		var s SymbolSummary
		var first, last int64
		if err := rows.Scan(&s.Symbol, &s.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan symbol summary: %w", err)
		}
		s.FirstDate = time.Unix(first, 0).UTC()
		s.LastDate = time.Unix(last, 0).UTC()
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteSymbol removes all stored history for a symbol and returns the
// number of rows removed.
func (r *Repository) DeleteSymbol(symbol string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM daily_closes WHERE symbol = ?`, symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history for %s: %w", symbol, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}

	r.log.Info().Str("symbol", symbol).Int64("deleted", deleted).Msg("Deleted symbol history")
	return deleted, nil
}

// Count returns the number of stored observations for a symbol.
func (r *Repository) Count(symbol string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM daily_closes WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count closes for %s: %w", symbol, err)
	}
	return count, nil
}

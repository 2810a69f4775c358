package risk

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/riskd/internal/database"
)

// SnapshotRepository stores computed VaR series in cache.db. Snapshots
// are recomputable from the price history, so the cache profile trades
// durability for speed.
type SnapshotRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *database.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Insert persists a snapshot and assigns it a fresh id.
func (r *SnapshotRepository) Insert(s *Snapshot) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	blob, err := msgpack.Marshal(s.Points)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot points: %w", err)
	}

	var lambda interface{}
	if s.Lambda > 0 {
		lambda = s.Lambda
	}

	_, err = r.db.Exec(`
		INSERT INTO var_snapshots
			(id, symbol, method, window, confidence, lambda, start_date, end_date, points, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Symbol, string(s.Method), s.Window, s.Confidence, lambda,
		s.StartDate.Unix(), s.EndDate.Unix(), blob, s.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot for %s: %w", s.Symbol, err)
	}

	r.log.Debug().
		Str("id", s.ID).
		Str("symbol", s.Symbol).
		Str("method", string(s.Method)).
		Int("points", len(s.Points)).
		Msg("Stored VaR snapshot")

	return nil
}

// GetByID loads a snapshot with its decoded points. Returns sql.ErrNoRows
// when the id is unknown.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	row := r.db.QueryRow(`
		SELECT id, symbol, method, window, confidence, lambda, start_date, end_date, points, created_at
		FROM var_snapshots WHERE id = ?
	`, id)

	s, err := scanSnapshot(row.Scan, true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	return s, nil
}

// ListBySymbol returns snapshot metadata for a symbol, newest first.
// Points are not decoded; fetch individual snapshots by id for the series.
func (r *SnapshotRepository) ListBySymbol(symbol string, limit int) ([]*Snapshot, error) {
	query := `
		SELECT id, symbol, method, window, confidence, lambda, start_date, end_date, created_at
		FROM var_snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC
	`
	args := []interface{}{symbol}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s: %w", symbol, err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows.Scan, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// Prune deletes snapshots older than the cutoff and returns the number
// removed.
func (r *SnapshotRepository) Prune(olderThan time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM var_snapshots WHERE created_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}

	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Time("cutoff", olderThan).Msg("Pruned old snapshots")
	}
	return deleted, nil
}

func scanSnapshot(scan func(...interface{}) error, withPoints bool) (*Snapshot, error) {
	var (
		s       Snapshot
		method  string
		lambda  sql.NullFloat64
		start   int64
		end     int64
		created int64
		blob    []byte
	)

	dest := []interface{}{&s.ID, &s.Symbol, &method, &s.Window, &s.Confidence, &lambda, &start, &end}
	if withPoints {
		dest = append(dest, &blob)
	}
	dest = append(dest, &created)

	if err := scan(dest...); err != nil {
		return nil, err
	}

	s.Method = Method(method)
	if lambda.Valid {
		s.Lambda = lambda.Float64
	}
	s.StartDate = time.Unix(start, 0).UTC()
	s.EndDate = time.Unix(end, 0).UTC()
	s.CreatedAt = time.Unix(created, 0).UTC()

	if withPoints {
		if err := msgpack.Unmarshal(blob, &s.Points); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot points: %w", err)
		}
	}

	return &s, nil
}

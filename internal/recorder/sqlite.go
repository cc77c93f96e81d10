package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"InflectionTracker/internal/model"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			source       TEXT,
			range_start  TEXT,
			range_end    TEXT,
			price_points INTEGER,
			window_size  INTEGER,
			threshold    TEXT,
			min_distance INTEGER,
			inflections  INTEGER,
			news_records INTEGER,
			best_short   INTEGER,
			best_long    INTEGER,
			crossovers   INTEGER,
			status       TEXT,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON runs(symbol, started_at)`,

		`CREATE TABLE IF NOT EXISTS inflection_points (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL REFERENCES runs(id),
			symbol       TEXT NOT NULL,
			date         TEXT NOT NULL,
			price        TEXT NOT NULL,
			idx          INTEGER NOT NULL,
			prev_date    TEXT,
			prev_price   TEXT,
			price_change TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inflection_run ON inflection_points(run_id)`,

		`CREATE TABLE IF NOT EXISTS news_groups (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL REFERENCES runs(id),
			inflection_date TEXT NOT NULL,
			news_count      INTEGER NOT NULL,
			news_json       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_run ON news_groups(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullString(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var bestShort, bestLong, crossovers int
	if run.Crossover != nil {
		bestShort, bestLong, crossovers = run.Crossover.ShortPeriod, run.Crossover.LongPeriod, run.Crossover.Crossovers
	}

	_, err = tx.Exec(`INSERT INTO runs
		(id, started_at, finished_at, symbol, source, range_start, range_end, price_points,
		 window_size, threshold, min_distance, inflections, news_records,
		 best_short, best_long, crossovers, status, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Symbol, run.Source,
		dateString(run.RangeStart), dateString(run.RangeEnd), run.PricePoints,
		run.Window, run.Threshold, run.MinDistance, len(run.Inflections), run.Grouping.NewsCount(),
		bestShort, bestLong, crossovers, run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range run.Inflections {
		var prevDate sql.NullString
		if p.PrevDate != nil {
			prevDate = sql.NullString{String: p.PrevDate.Format(model.DateLayout), Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO inflection_points
			(run_id, symbol, date, price, idx, prev_date, prev_price, price_change)
			VALUES (?,?,?,?,?,?,?,?)`,
			run.ID, run.Symbol, p.DateString(), p.Price.String(), p.Index,
			prevDate, nullString(p.PrevPrice), nullString(p.PriceChange),
		); err != nil {
			return fmt.Errorf("insert inflection %s: %w", p.DateString(), err)
		}
	}

	for _, date := range run.Grouping.Dates() {
		grp := run.Grouping[date]
		newsJSON, err := json.Marshal(grp.News)
		if err != nil {
			return fmt.Errorf("marshal news for %s: %w", date, err)
		}
		if _, err := tx.Exec(`INSERT INTO news_groups
			(run_id, inflection_date, news_count, news_json)
			VALUES (?,?,?,?)`,
			run.ID, date, len(grp.News), string(newsJSON),
		); err != nil {
			return fmt.Errorf("insert news group %s: %w", date, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) LatestInflections(symbol string) ([]model.InflectionPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var runID string
	err := r.db.QueryRow(`SELECT id FROM runs
		WHERE symbol = ? AND status = ?
		ORDER BY started_at DESC, rowid DESC LIMIT 1`, symbol, StatusOK).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	rows, err := r.db.Query(`SELECT date, price, idx, prev_date, prev_price, price_change
		FROM inflection_points WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query inflections: %w", err)
	}
	defer rows.Close()

	var out []model.InflectionPoint
	for rows.Next() {
		var (
			date, price                     string
			idx                             int
			prevDate, prevPrice, priceDelta sql.NullString
		)
		if err := rows.Scan(&date, &price, &idx, &prevDate, &prevPrice, &priceDelta); err != nil {
			return nil, fmt.Errorf("scan inflection: %w", err)
		}
		p, err := scanPoint(date, price, idx, prevDate, prevPrice, priceDelta)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPoint(date, price string, idx int, prevDate, prevPrice, priceDelta sql.NullString) (model.InflectionPoint, error) {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return model.InflectionPoint{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	pr, err := decimal.NewFromString(price)
	if err != nil {
		return model.InflectionPoint{}, fmt.Errorf("stored price %q: %w", price, err)
	}
	p := model.InflectionPoint{Date: d, Price: pr, Index: idx}
	if prevDate.Valid {
		pd, err := time.Parse(model.DateLayout, prevDate.String)
		if err != nil {
			return model.InflectionPoint{}, fmt.Errorf("stored prev_date %q: %w", prevDate.String, err)
		}
		p.PrevDate = &pd
	}
	if prevPrice.Valid {
		v, err := decimal.NewFromString(prevPrice.String)
		if err != nil {
			return model.InflectionPoint{}, fmt.Errorf("stored prev_price %q: %w", prevPrice.String, err)
		}
		p.PrevPrice = &v
	}
	if priceDelta.Valid {
		v, err := decimal.NewFromString(priceDelta.String)
		if err != nil {
			return model.InflectionPoint{}, fmt.Errorf("stored price_change %q: %w", priceDelta.String, err)
		}
		p.PriceChange = &v
	}
	return p, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

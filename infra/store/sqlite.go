// Package store provides durable trip storage.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    imported INTEGER NOT NULL,
    row_count INTEGER NOT NULL,
    accepted INTEGER NOT NULL,
    rejected INTEGER NOT NULL,
    issues TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL,
    row_num INTEGER NOT NULL,
    day INTEGER NOT NULL,
    date_s INTEGER NOT NULL,
    start_s INTEGER NOT NULL,
    end_s INTEGER NOT NULL,
    plate TEXT NOT NULL,
    vehicle_model TEXT NOT NULL,
    driver TEXT NOT NULL,
    department TEXT NOT NULL,
    category TEXT NOT NULL,
    route TEXT NOT NULL,
    duration_s INTEGER NOT NULL,
    distance_km REAL NOT NULL,
    fuel_liters REAL NOT NULL,
    revenue_vnd INTEGER NOT NULL,
    issues TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS trips_day ON trips(day);
CREATE INDEX IF NOT EXISTS trips_plate ON trips(plate, day);`

// SQLiteStore persists trips in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ tripstore.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path and ensures the
// schema. ":memory:" keeps a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serialises writes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	if err := migrateDateColumn(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// migrateDateColumn adds date_s to databases created before trips kept
// their time of day. Old rows get their day.
func migrateDateColumn(db *sql.DB) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('trips') WHERE name = 'date_s'`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.Exec(`ALTER TABLE trips ADD COLUMN date_s INTEGER NOT NULL DEFAULT 0;
        UPDATE trips SET date_s = day;`)
	return err
}

// SaveBatch stores b and upserts trips in one transaction.
func (s *SQLiteStore) SaveBatch(ctx context.Context, b model.Batch, trips []model.Trip) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	issues, err := json.Marshal(nonNil(b.Issues))
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO batches (id, source, imported, row_count, accepted, rejected, issues)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            source = excluded.source, imported = excluded.imported, row_count = excluded.row_count,
            accepted = excluded.accepted, rejected = excluded.rejected, issues = excluded.issues`,
		b.ID, b.Source, b.Imported.UnixNano(), b.Rows, b.Accepted, b.Rejected, string(issues)); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO trips (id, batch_id, row_num, day, date_s, start_s, end_s, plate,
            vehicle_model, driver, department, category, route, duration_s, distance_km, fuel_liters,
            revenue_vnd, issues)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            batch_id = excluded.batch_id, row_num = excluded.row_num, day = excluded.day, date_s = excluded.date_s,
            start_s = excluded.start_s, end_s = excluded.end_s, plate = excluded.plate,
            vehicle_model = excluded.vehicle_model, driver = excluded.driver,
            department = excluded.department, category = excluded.category, route = excluded.route,
            duration_s = excluded.duration_s, distance_km = excluded.distance_km,
            fuel_liters = excluded.fuel_liters, revenue_vnd = excluded.revenue_vnd,
            issues = excluded.issues`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, t := range trips {
		ti, merr := json.Marshal(nonNil(t.Issues))
		if merr != nil {
			return merr
		}
		if _, err = stmt.ExecContext(ctx, t.ID, t.BatchID, t.Row, t.Day().Unix(), t.Date.Unix(),
			int64(t.Start/time.Second), int64(t.End/time.Second), t.Plate, t.VehicleModel, t.Driver,
			t.Department, t.Category, t.Route, int64(t.Duration/time.Second), t.DistanceKm,
			t.FuelLiters, t.RevenueVND, string(ti)); err != nil {
			return fmt.Errorf("upsert trip %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// Trips returns the trips matching q in day, start, plate, row order.
func (s *SQLiteStore) Trips(ctx context.Context, q tripstore.Query) ([]model.Trip, error) {
	var (
		where []string
		args  []any
	)
	if !q.From.IsZero() {
		where = append(where, "day >= ?")
		args = append(args, model.Trip{Date: q.From}.Day().Unix())
	}
	if !q.To.IsZero() {
		where = append(where, "day <= ?")
		args = append(args, model.Trip{Date: q.To}.Day().Unix())
	}
	if q.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, q.BatchID)
	}
	if len(q.Plates) > 0 {
		where = append(where, "UPPER(plate) IN ("+placeholders(len(q.Plates))+")")
		for _, p := range q.Plates {
			args = append(args, strings.ToUpper(strings.TrimSpace(p)))
		}
	}
	query := `SELECT id, batch_id, row_num, date_s, start_s, end_s, plate, vehicle_model, driver, department,
        category, route, duration_s, distance_km, fuel_liters, revenue_vnd, issues FROM trips`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY day, start_s, plate, row_num"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Trip
	for rows.Next() {
		var (
			t                      model.Trip
			dateTS, start, end, dur int64
			issues                 string
		)
		if err := rows.Scan(&t.ID, &t.BatchID, &t.Row, &dateTS, &start, &end, &t.Plate, &t.VehicleModel,
			&t.Driver, &t.Department, &t.Category, &t.Route, &dur, &t.DistanceKm, &t.FuelLiters,
			&t.RevenueVND, &issues); err != nil {
			return nil, err
		}
		t.Date = time.Unix(dateTS, 0).UTC()
		t.Start = time.Duration(start) * time.Second
		t.End = time.Duration(end) * time.Second
		t.Duration = time.Duration(dur) * time.Second
		if err := json.Unmarshal([]byte(issues), &t.Issues); err != nil {
			return nil, fmt.Errorf("trip %s issues: %w", t.ID, err)
		}
		if len(t.Issues) == 0 {
			t.Issues = nil
		}
		// Department names keep their diacritics; SQLite UPPER only folds ASCII.
		if len(q.Departments) > 0 && !q.Match(t) {
			continue
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Batches returns the stored batches, most recent import first.
func (s *SQLiteStore) Batches(ctx context.Context) ([]model.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, imported, row_count, accepted, rejected, issues
        FROM batches ORDER BY imported DESC, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Batch
	for rows.Next() {
		var (
			b      model.Batch
			ts     int64
			issues string
		)
		if err := rows.Scan(&b.ID, &b.Source, &ts, &b.Rows, &b.Accepted, &b.Rejected, &issues); err != nil {
			return nil, err
		}
		b.Imported = time.Unix(0, ts).UTC()
		if err := json.Unmarshal([]byte(issues), &b.Issues); err != nil {
			return nil, fmt.Errorf("batch %s issues: %w", b.ID, err)
		}
		if len(b.Issues) == 0 {
			b.Issues = nil
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nonNil(is []model.Issue) []model.Issue {
	if is == nil {
		return []model.Issue{}
	}
	return is
}

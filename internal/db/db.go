// Package db persists the append-only count history: one row per registered
// track plus hourly per-class rollups. Tracker state itself is never
// persisted; a restart starts counting from an empty registry.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sql handle with the count-history queries.
type DB struct {
	*sql.DB
}

// New opens (creating if necessary) the SQLite database at path and runs any
// pending migrations.
func New(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{sqldb}
	if err := db.MigrateUp(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// RecordTrack appends one row for a newly registered track.
func (db *DB) RecordTrack(id, class string, confidence float64, registeredAt time.Time) error {
	_, err := db.Exec(
		`INSERT INTO tracks (track_id, class, confidence, registered_at) VALUES (?, ?, ?, ?)`,
		id, class, confidence, registeredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record track: %w", err)
	}
	return nil
}

// RecordHourlyCount upserts the count for one (hour, class) bucket.
func (db *DB) RecordHourlyCount(hourStart time.Time, class string, count int) error {
	_, err := db.Exec(
		`INSERT INTO hourly_counts (hour_start, class, count) VALUES (?, ?, ?)
		 ON CONFLICT(hour_start, class) DO UPDATE SET count = excluded.count`,
		hourStart.UTC(), class, count,
	)
	if err != nil {
		return fmt.Errorf("failed to record hourly count: %w", err)
	}
	return nil
}

// TrackRow is one persisted track registration.
type TrackRow struct {
	TrackID      string    `json:"track_id"`
	Class        string    `json:"class"`
	Confidence   float64   `json:"confidence"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RecentTracks returns the most recently registered tracks, newest first.
func (db *DB) RecentTracks(limit int) ([]TrackRow, error) {
	rows, err := db.Query(
		`SELECT track_id, class, confidence, registered_at
		 FROM tracks ORDER BY registered_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackRow
	for rows.Next() {
		var r TrackRow
		if err := rows.Scan(&r.TrackID, &r.Class, &r.Confidence, &r.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HourlyRow is one persisted (hour, class) count bucket.
type HourlyRow struct {
	HourStart time.Time `json:"hour_start"`
	Class     string    `json:"class"`
	Count     int       `json:"count"`
}

// HourlyHistory returns the count buckets covering the last n hours, oldest
// first.
func (db *DB) HourlyHistory(hours int) ([]HourlyRow, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	rows, err := db.Query(
		`SELECT hour_start, class, count FROM hourly_counts
		 WHERE hour_start >= ? ORDER BY hour_start ASC, class ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HourlyRow
	for rows.Next() {
		var r HourlyRow
		if err := rows.Scan(&r.HourStart, &r.Class, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountSince returns how many tracks were registered at or after t.
func (db *DB) CountSince(t time.Time) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM tracks WHERE registered_at >= ?`, t.UTC()).Scan(&n)
	return n, err
}

package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the booking service.
type DB struct {
	*sql.DB
}

// Open opens the database at path and runs migrations.
func Open(path string) (*DB, error) {
	// DSN options apply to every pooled connection, unlike a one-off PRAGMA.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Service catalog
		`CREATE TABLE IF NOT EXISTS services (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			price_cents INTEGER NOT NULL DEFAULT 0,
			duration_mins INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Appointments. service_id is the legacy single-service column and
		// always holds the first selected service.
		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			full_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT,
			address TEXT,
			service_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Many-to-many between appointments and services.
		`CREATE TABLE IF NOT EXISTS appointment_services (
			appointment_id TEXT NOT NULL,
			service_id TEXT NOT NULL,
			PRIMARY KEY (appointment_id, service_id),
			FOREIGN KEY (service_id) REFERENCES services(id)
		)`,

		// Weekly availability windows (0=Sun .. 6=Sat).
		`CREATE TABLE IF NOT EXISTS availability (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Fully blocked calendar dates.
		`CREATE TABLE IF NOT EXISTS blocked_dates (
			date TEXT PRIMARY KEY,
			note TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Singleton-style configuration values (slot_interval_minutes).
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// The sole concurrency-safety mechanism: no two active-status rows
		// may share (date, time). Finished/cancelled rows free the slot.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_slot
			ON appointments(date, time)
			WHERE status IN ('pending', 'confirmed', 'in_progress')`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_appointment_services_appt ON appointment_services(appointment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_availability_dow ON availability(day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_services_active ON services(is_active)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

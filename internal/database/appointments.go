package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"nursecare/internal/booking"
	"nursecare/internal/model"
)

// InsertAppointmentIfFree inserts the appointment, relying on the partial
// unique index over active statuses to reject a concurrently taken slot.
// Returns booking.ErrSlotTaken on a uniqueness conflict; the caller decides
// whether to re-run slot generation.
func (db *DB) InsertAppointmentIfFree(ctx context.Context, a *model.Appointment) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO appointments (id, date, time, status, full_name, phone, email, address, service_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Date, a.Time, a.Status, a.FullName, a.Phone,
		nullable(a.Email), nullable(a.Address), nullable(a.ServiceID),
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slot %s %s: %w", a.Date, a.Time, booking.ErrSlotTaken)
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// AttachServices inserts one link row per selected service in a single
// transaction, so a failure leaves no partial link set behind.
func (db *DB) AttachServices(ctx context.Context, appointmentID string, serviceIDs []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, sid := range serviceIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO appointment_services (appointment_id, service_id) VALUES (?, ?)",
			appointmentID, sid,
		); err != nil {
			return fmt.Errorf("attach service %s: %w", sid, err)
		}
	}
	return tx.Commit()
}

// DeleteAppointment removes the appointment and its link rows. Used as the
// compensating action when attaching services fails.
func (db *DB) DeleteAppointment(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx,
		"DELETE FROM appointment_services WHERE appointment_id = ?", id,
	); err != nil {
		return fmt.Errorf("delete appointment services: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		"DELETE FROM appointments WHERE id = ?", id,
	); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// GetAppointment returns a single appointment by id.
func (db *DB) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, date, time, status, full_name, phone, email, address, service_id, created_at, updated_at
		FROM appointments WHERE id = ?`, id)

	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return a, nil
}

// UpdateAppointmentStatus sets the status. The caller must pass a canonical
// status value.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Reactivating a finished/cancelled appointment whose slot has
			// since been taken by another active booking.
			return fmt.Errorf("slot occupied for status %s: %w", status, booking.ErrSlotTaken)
		}
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// BookedTimes returns the set of "HH:MM" start times reserved under an
// active status for the date.
func (db *DB) BookedTimes(ctx context.Context, date string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT time FROM appointments
		WHERE date = ? AND status IN (`+activeStatusPlaceholders+`)`,
		append([]interface{}{date}, activeStatusArgs()...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("booked times for %s: %w", date, err)
	}
	defer rows.Close()

	times := make(map[string]struct{})
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times[model.NormalizeClock(t)] = struct{}{}
	}
	return times, rows.Err()
}

// ListAppointments returns appointments, optionally filtered by canonical
// status, newest date first.
func (db *DB) ListAppointments(ctx context.Context, status string) ([]model.Appointment, error) {
	query := `
		SELECT id, date, time, status, full_name, phone, email, address, service_id, created_at, updated_at
		FROM appointments`
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY date DESC, time DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// StatusCounts tallies appointments per status in one aggregate query.
func (db *DB) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM appointments GROUP BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		if canonical, ok := model.NormalizeStatus(status); ok {
			counts[canonical] += n
		}
	}
	return counts, rows.Err()
}

// LinkedServiceIDs returns the service ids attached to an appointment, in
// insertion order.
func (db *DB) LinkedServiceIDs(ctx context.Context, appointmentID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT service_id FROM appointment_services WHERE appointment_id = ? ORDER BY rowid",
		appointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("linked services: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	var email, address, serviceID sql.NullString
	err := row.Scan(
		&a.ID, &a.Date, &a.Time, &a.Status, &a.FullName, &a.Phone,
		&email, &address, &serviceID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Email = email.String
	a.Address = address.String
	a.ServiceID = serviceID.String
	a.Time = model.NormalizeClock(a.Time)
	return &a, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

var activeStatusPlaceholders = strings.TrimSuffix(
	strings.Repeat("?,", len(model.ActiveStatuses)), ",")

func activeStatusArgs() []interface{} {
	args := make([]interface{}, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		args[i] = s
	}
	return args
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"nursecare/internal/model"
	"nursecare/internal/slots"
)

const slotIntervalKey = "slot_interval_minutes"

// ListWindows returns all weekly availability windows ordered by day then
// start time.
func (db *DB) ListWindows(ctx context.Context) ([]model.AvailabilityWindow, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, day_of_week, start_time, end_time FROM availability ORDER BY day_of_week, start_time",
	)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	defer rows.Close()

	var out []model.AvailabilityWindow
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.ID, &w.DayOfWeek, &w.StartTime, &w.EndTime); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// AddWindow validates and stores a weekly availability window.
func (db *DB) AddWindow(ctx context.Context, w model.AvailabilityWindow) (int64, error) {
	if err := w.Validate(); err != nil {
		return 0, fmt.Errorf("invalid window: %w", err)
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO availability (day_of_week, start_time, end_time) VALUES (?, ?, ?)",
		w.DayOfWeek, model.NormalizeClock(w.StartTime), model.NormalizeClock(w.EndTime),
	)
	if err != nil {
		return 0, fmt.Errorf("add window: %w", err)
	}
	return res.LastInsertId()
}

// DeleteWindow removes a window by id.
func (db *DB) DeleteWindow(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, "DELETE FROM availability WHERE id = ?", id)
	return err
}

// ListBlockedDates returns all blocked dates ascending.
func (db *DB) ListBlockedDates(ctx context.Context) ([]model.BlockedDate, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT date, COALESCE(note, '') FROM blocked_dates ORDER BY date",
	)
	if err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	defer rows.Close()

	var out []model.BlockedDate
	for rows.Next() {
		var b model.BlockedDate
		if err := rows.Scan(&b.Date, &b.Note); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddBlockedDate marks a date as offering no slots. Re-adding updates the
// note.
func (db *DB) AddBlockedDate(ctx context.Context, b model.BlockedDate) error {
	if b.Date == "" {
		return fmt.Errorf("blocked date is empty")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO blocked_dates (date, note) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET note = excluded.note`,
		b.Date, nullable(b.Note),
	)
	if err != nil {
		return fmt.Errorf("add blocked date: %w", err)
	}
	return nil
}

// DeleteBlockedDate unblocks a date.
func (db *DB) DeleteBlockedDate(ctx context.Context, date string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM blocked_dates WHERE date = ?", date)
	return err
}

// SlotIntervalMinutes returns the configured slot granularity. An absent
// setting is normal and yields the default; a malformed value is an error so
// the caller can log the degradation and fall back.
func (db *DB) SlotIntervalMinutes(ctx context.Context) (int, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", slotIntervalKey,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return slots.DefaultInterval, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", slotIntervalKey, err)
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", slotIntervalKey, raw)
	}
	return v, nil
}

// SetSlotIntervalMinutes stores the slot granularity.
func (db *DB) SetSlotIntervalMinutes(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("slot interval must be positive, got %d", minutes)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		slotIntervalKey, strconv.Itoa(minutes),
	)
	return err
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nursecare/internal/model"
)

// ListActiveServices returns offerable services ordered by name.
func (db *DB) ListActiveServices(ctx context.Context) ([]model.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, price_cents, duration_mins, is_active, created_at, updated_at
		FROM services WHERE is_active = 1 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	return collectServices(rows)
}

// GetServicesByIDs resolves services preserving the input order. Unknown ids
// are silently dropped, mirroring how the catalog treats stale draft
// selections.
func (db *DB) GetServicesByIDs(ctx context.Context, ids []string) ([]model.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, price_cents, duration_mins, is_active, created_at, updated_at
		FROM services WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get services: %w", err)
	}
	defer rows.Close()

	found, err := collectServices(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Service, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	out := make([]model.Service, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetServiceName returns the name for a single service id, or "" when the
// service does not exist.
func (db *DB) GetServiceName(ctx context.Context, id string) (string, error) {
	var name string
	err := db.QueryRowContext(ctx, "SELECT name FROM services WHERE id = ?", id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get service name: %w", err)
	}
	return name, nil
}

// CreateService stores a new catalog entry and returns its id.
func (db *DB) CreateService(ctx context.Context, s *model.Service) error {
	if s.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO services (id, name, description, price_cents, duration_mins, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, nullable(s.Description), s.PriceCents, s.DurationMins, s.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// UpdateService replaces the mutable fields of a catalog entry.
func (db *DB) UpdateService(ctx context.Context, s *model.Service) error {
	res, err := db.ExecContext(ctx, `
		UPDATE services
		SET name = ?, description = ?, price_cents = ?, duration_mins = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, nullable(s.Description), s.PriceCents, s.DurationMins, s.IsActive, time.Now(), s.ID,
	)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("service %s not found", s.ID)
	}
	return nil
}

// DeactivateService hides a service from the catalog without touching
// historical appointments that reference it.
func (db *DB) DeactivateService(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE services SET is_active = 0, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	return err
}

func collectServices(rows *sql.Rows) ([]model.Service, error) {
	var out []model.Service
	for rows.Next() {
		var s model.Service
		var desc sql.NullString
		if err := rows.Scan(
			&s.ID, &s.Name, &desc, &s.PriceCents, &s.DurationMins, &s.IsActive,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.Description = desc.String
		out = append(out, s)
	}
	return out, rows.Err()
}

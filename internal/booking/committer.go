// Package booking implements the slot availability computation and the
// booking commit protocol: an optimistic insert guarded by the ledger's
// active-slot uniqueness constraint, followed by service line attachment with
// a compensating delete on partial failure.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nursecare/internal/events"
	"nursecare/internal/metrics"
	"nursecare/internal/model"
	"nursecare/internal/notify"
)

// Ledger is the transactional record store for appointments and their
// service links. InsertAppointmentIfFree must return ErrSlotTaken when the
// active-slot uniqueness constraint rejects the (date, time) pair.
type Ledger interface {
	InsertAppointmentIfFree(ctx context.Context, a *model.Appointment) error
	AttachServices(ctx context.Context, appointmentID string, serviceIDs []string) error
	DeleteAppointment(ctx context.Context, id string) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
	LinkedServiceIDs(ctx context.Context, appointmentID string) ([]string, error)
}

// Publisher emits domain events for the notification sink.
type Publisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// FallbackServiceName labels notifications when no service name can be
// resolved from either the link table or the legacy column.
const FallbackServiceName = "Nurse Service"

// CommitRequest carries everything needed to reserve a slot.
type CommitRequest struct {
	ServiceIDs []string `json:"service_ids"`
	Date       string   `json:"date"` // "2006-01-02"
	Time       string   `json:"time"` // "HH:MM"
	FullName   string   `json:"full_name"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email,omitempty"`
	Address    string   `json:"address,omitempty"`
}

// Validate reports the first missing precondition. Nothing is written before
// this passes.
func (r CommitRequest) Validate() error {
	var missing []string
	if len(r.ServiceIDs) == 0 {
		missing = append(missing, "service_ids")
	}
	if r.Date == "" {
		missing = append(missing, "date")
	}
	if r.Time == "" {
		missing = append(missing, "time")
	}
	if strings.TrimSpace(r.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if strings.TrimSpace(r.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Committer orchestrates the two-phase booking write.
type Committer struct {
	ledger  Ledger
	catalog Catalog
	bus     Publisher
	logger  *zerolog.Logger
}

// NewCommitter creates a booking committer.
func NewCommitter(ledger Ledger, catalog Catalog, bus Publisher, logger *zerolog.Logger) *Committer {
	return &Committer{ledger: ledger, catalog: catalog, bus: bus, logger: logger}
}

// Commit reserves the slot and attaches the selected services.
//
// The insert is optimistic: there is no lock between the advisory slot check
// the client ran earlier and this write. A concurrent commit for the same
// (date, time) loses with ErrSlotTaken and must re-run slot generation. If
// attaching services fails the appointment row is deleted again and
// ErrPartialFailure is returned; an appointment without service lines never
// survives.
func (c *Committer) Commit(ctx context.Context, req CommitRequest) (*model.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		ID:        uuid.NewString(),
		Date:      req.Date,
		Time:      model.NormalizeClock(req.Time),
		Status:    model.StatusPending,
		FullName:  strings.TrimSpace(req.FullName),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Address:   strings.TrimSpace(req.Address),
		ServiceID: req.ServiceIDs[0],
	}

	if err := c.ledger.InsertAppointmentIfFree(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.IncSlotConflict()
			c.logger.Info().Str("date", appt.Date).Str("time", appt.Time).
				Msg("slot taken by concurrent booking")
			return nil, err
		}
		return nil, fmt.Errorf("reserve appointment: %w", err)
	}

	if err := c.ledger.AttachServices(ctx, appt.ID, req.ServiceIDs); err != nil {
		metrics.IncPartialFailure()
		c.logger.Error().Err(err).Str("appointment_id", appt.ID).
			Msg("attach services failed, rolling back appointment")

		if delErr := c.ledger.DeleteAppointment(ctx, appt.ID); delErr != nil {
			// The compensating delete is the contract; a failure here leaves
			// an orphan that needs operator attention.
			c.logger.Error().Err(delErr).Str("appointment_id", appt.ID).
				Msg("compensating delete failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrPartialFailure, err)
	}

	metrics.IncAppointmentCreated(appt.Status)
	c.logger.Info().Str("appointment_id", appt.ID).Str("date", appt.Date).
		Str("time", appt.Time).Int("services", len(req.ServiceIDs)).
		Msg("booking committed")

	c.emitBookingConfirmed(ctx, appt, req.ServiceIDs)
	return appt, nil
}

func (c *Committer) emitBookingConfirmed(ctx context.Context, appt *model.Appointment, serviceIDs []string) {
	names := []string{FallbackServiceName}
	duration := 0
	if services, err := c.catalog.GetServicesByIDs(ctx, serviceIDs); err != nil {
		c.logger.Warn().Err(err).Msg("resolve services for notification")
	} else if len(services) > 0 {
		names = model.ServiceNames(services)
		duration = model.TotalDurationMins(services)
	}

	payload := notify.BookingConfirmed{
		Type:              events.TypeBookingConfirmed,
		AppointmentID:     appt.ID,
		ServiceNames:      names,
		TotalDurationMins: duration,
		Date:              appt.Date,
		Time:              appt.Time,
		FullName:          appt.FullName,
		Phone:             appt.Phone,
		Email:             appt.Email,
		Address:           appt.Address,
	}
	if err := c.bus.PublishJSON(events.TypeBookingConfirmed, payload); err != nil {
		c.logger.Warn().Err(err).Msg("publish booking event")
	}
}

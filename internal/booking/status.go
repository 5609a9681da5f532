package booking

import (
	"context"
	"fmt"

	"nursecare/internal/events"
	"nursecare/internal/metrics"
	"nursecare/internal/model"
	"nursecare/internal/notify"
)

// SetStatus applies an administrative status transition. All five statuses
// are reachable from any other; the input is normalized to the canonical
// lowercase set and anything else is rejected. Moving into an active status
// can collide with a booking that took the slot in the meantime, which
// surfaces as ErrSlotTaken.
func (c *Committer) SetStatus(ctx context.Context, appointmentID, rawStatus string) (*model.Appointment, error) {
	status, ok := model.NormalizeStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, rawStatus)
	}

	if err := c.ledger.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
		return nil, err
	}

	appt, err := c.ledger.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	metrics.IncStatusChanged(status)
	c.logger.Info().Str("appointment_id", appointmentID).Str("status", status).
		Msg("appointment status changed")

	c.emitStatusChanged(ctx, appt)
	return appt, nil
}

func (c *Committer) emitStatusChanged(ctx context.Context, appt *model.Appointment) {
	names, totalPrice, totalDuration := c.resolveServiceSummary(ctx, appt)

	payload := notify.StatusChanged{
		Type:            events.TypeStatusChanged,
		Status:          appt.Status,
		AppointmentID:   appt.ID,
		ServiceNames:    names,
		Date:            appt.Date,
		Time:            appt.Time,
		FullName:        appt.FullName,
		Phone:           appt.Phone,
		Email:           appt.Email,
		Address:         appt.Address,
		TotalPriceCents: totalPrice,
		TotalDuration:   totalDuration,
	}
	if err := c.bus.PublishJSON(events.TypeStatusChanged, payload); err != nil {
		c.logger.Warn().Err(err).Msg("publish status event")
	}
}

// resolveServiceSummary gathers the service names for a notification:
// link table first, then the legacy single-service column, then a generic
// label. Totals are only available when the link table resolves.
func (c *Committer) resolveServiceSummary(ctx context.Context, appt *model.Appointment) ([]string, int64, int) {
	ids, err := c.ledger.LinkedServiceIDs(ctx, appt.ID)
	if err != nil {
		c.logger.Warn().Err(err).Str("appointment_id", appt.ID).Msg("load service links")
	}
	if len(ids) > 0 {
		services, err := c.catalog.GetServicesByIDs(ctx, ids)
		if err != nil {
			c.logger.Warn().Err(err).Msg("resolve linked services")
		} else if len(services) > 0 {
			return model.ServiceNames(services),
				model.TotalPriceCents(services),
				model.TotalDurationMins(services)
		}
	}

	if appt.ServiceID != "" {
		name, err := c.catalog.GetServiceName(ctx, appt.ServiceID)
		if err != nil {
			c.logger.Warn().Err(err).Msg("resolve legacy service")
		} else if name != "" {
			return []string{name}, 0, 0
		}
	}

	return []string{FallbackServiceName}, 0, 0
}

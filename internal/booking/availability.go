package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"nursecare/internal/model"
	"nursecare/internal/slots"
)

// RuleStore reads the calendar rules that drive slot generation.
type RuleStore interface {
	ListWindows(ctx context.Context) ([]model.AvailabilityWindow, error)
	ListBlockedDates(ctx context.Context) ([]model.BlockedDate, error)
	SlotIntervalMinutes(ctx context.Context) (int, error)
}

// Catalog resolves service selections against the service catalog.
type Catalog interface {
	GetServicesByIDs(ctx context.Context, ids []string) ([]model.Service, error)
	GetServiceName(ctx context.Context, id string) (string, error)
}

// SlotLedger reads the reservations that currently occupy slots.
type SlotLedger interface {
	BookedTimes(ctx context.Context, date string) (map[string]struct{}, error)
}

// DefaultDateHorizonDays is how far ahead dates are offered for booking.
const DefaultDateHorizonDays = 30

// AvailabilityService resolves calendar rules and current reservations, then
// delegates to the pure slot generator. The generator's filtering is advisory
// only; the ledger's uniqueness constraint is what actually prevents double
// booking.
type AvailabilityService struct {
	rules       RuleStore
	catalog     Catalog
	ledger      SlotLedger
	horizonDays int
	logger      *zerolog.Logger
}

// NewAvailabilityService wires rule, catalog and ledger access.
func NewAvailabilityService(rules RuleStore, catalog Catalog, ledger SlotLedger, horizonDays int, logger *zerolog.Logger) *AvailabilityService {
	if horizonDays <= 0 {
		horizonDays = DefaultDateHorizonDays
	}
	return &AvailabilityService{
		rules:       rules,
		catalog:     catalog,
		ledger:      ledger,
		horizonDays: horizonDays,
		logger:      logger,
	}
}

// Interval returns the configured slot granularity, falling back to the
// default when the setting is unreadable. Degradation never fails the
// booking flow.
func (s *AvailabilityService) Interval(ctx context.Context) int {
	interval, err := s.rules.SlotIntervalMinutes(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Int("fallback", slots.DefaultInterval).
			Msg("slot interval unreadable, using default")
		return slots.DefaultInterval
	}
	return interval
}

// SlotsForDate computes feasible start times for the date given the selected
// services. An empty result means no availability, not an error.
func (s *AvailabilityService) SlotsForDate(ctx context.Context, date string, serviceIDs []string) ([]string, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidRequest, date)
	}

	windows, err := s.rules.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load availability windows: %w", err)
	}

	blockedList, err := s.rules.ListBlockedDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blocked dates: %w", err)
	}
	blocked := make(map[string]struct{}, len(blockedList))
	for _, b := range blockedList {
		blocked[b.Date] = struct{}{}
	}

	booked, err := s.ledger.BookedTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load booked times: %w", err)
	}

	duration := 0
	if len(serviceIDs) > 0 {
		services, err := s.catalog.GetServicesByIDs(ctx, serviceIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve services: %w", err)
		}
		duration = model.TotalDurationMins(services)
	}

	return slots.Generate(day, duration, windows, blocked, booked, s.Interval(ctx)), nil
}

// BookableDates returns the dates within the horizon that are not blocked,
// starting today. Per-date slot feasibility is a separate question answered
// by SlotsForDate.
func (s *AvailabilityService) BookableDates(ctx context.Context) ([]string, error) {
	blockedList, err := s.rules.ListBlockedDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blocked dates: %w", err)
	}
	blocked := make(map[string]struct{}, len(blockedList))
	for _, b := range blockedList {
		blocked[b.Date] = struct{}{}
	}

	today := time.Now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local)

	out := make([]string, 0, s.horizonDays)
	for i := 0; i < s.horizonDays; i++ {
		iso := today.AddDate(0, 0, i).Format("2006-01-02")
		if _, isBlocked := blocked[iso]; !isBlocked {
			out = append(out, iso)
		}
	}
	return out, nil
}

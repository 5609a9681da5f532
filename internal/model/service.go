package model

import "time"

// Service is a bookable care service. Multiple services may be selected for
// one appointment; their durations sum to the required consecutive span.
type Service struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	DurationMins int       `json:"duration_mins"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TotalDurationMins sums service durations in minutes.
func TotalDurationMins(services []Service) int {
	total := 0
	for _, s := range services {
		total += s.DurationMins
	}
	return total
}

// TotalPriceCents sums service prices in minor units.
func TotalPriceCents(services []Service) int64 {
	var total int64
	for _, s := range services {
		total += s.PriceCents
	}
	return total
}

// ServiceNames extracts names preserving order.
func ServiceNames(services []Service) []string {
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.Name)
	}
	return names
}

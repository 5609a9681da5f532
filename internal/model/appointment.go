package model

import (
	"strings"
	"time"
)

// Appointment statuses. The active subset occupies a time slot and is
// enforced by the partial unique index over (date, time).
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
	StatusCancelled  = "cancelled"
)

// ActiveStatuses are the statuses that block a slot.
var ActiveStatuses = []string{StatusPending, StatusConfirmed, StatusInProgress}

// AllStatuses lists every valid appointment status.
var AllStatuses = []string{StatusPending, StatusConfirmed, StatusInProgress, StatusFinished, StatusCancelled}

// IsActiveStatus reports whether status counts toward slot occupancy.
func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// NormalizeStatus maps user-supplied status spellings to the canonical
// lowercase set. Accepts Title Case, "in progress" and the US "canceled".
// Returns false for anything outside the five known statuses.
func NormalizeStatus(input string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "pending":
		return StatusPending, true
	case "confirmed":
		return StatusConfirmed, true
	case "in_progress", "in progress":
		return StatusInProgress, true
	case "finished":
		return StatusFinished, true
	case "cancelled", "canceled":
		return StatusCancelled, true
	}
	return "", false
}

// Appointment represents a booked visit. Date and Time are naive local
// clock values ("2006-01-02" and "HH:MM"); no timezone conversion is done
// anywhere in the system.
type Appointment struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	ServiceID string    `json:"service_id,omitempty"` // legacy: first selected service
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

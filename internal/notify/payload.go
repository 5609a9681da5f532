package notify

// BookingConfirmed is the webhook payload emitted after a successful commit.
// Field names match what the email hook consumes.
type BookingConfirmed struct {
	Type              string   `json:"type"` // "booking_confirmed"
	AppointmentID     string   `json:"appointmentId"`
	ServiceNames      []string `json:"serviceNames"`
	TotalDurationMins int      `json:"totalDurationMins"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	FullName          string   `json:"fullName"`
	Phone             string   `json:"phone"`
	Email             string   `json:"email,omitempty"`
	Address           string   `json:"address,omitempty"`
	AdminEmail        string   `json:"adminEmail,omitempty"`
}

// StatusChanged is the webhook payload emitted after an administrative
// status transition. Totals are aggregated over the attached services and
// omitted when none could be resolved.
type StatusChanged struct {
	Type            string   `json:"type"` // "status_changed"
	Status          string   `json:"status"`
	AppointmentID   string   `json:"appointmentId"`
	ServiceNames    []string `json:"serviceNames"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	FullName        string   `json:"fullName"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email,omitempty"`
	Address         string   `json:"address,omitempty"`
	TotalPriceCents int64    `json:"total_price_cents,omitempty"`
	TotalDuration   int      `json:"total_duration_mins,omitempty"`
	AdminEmail      string   `json:"adminEmail,omitempty"`
}

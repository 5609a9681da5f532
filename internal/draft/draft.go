// Package draft holds resumable in-progress booking state. A draft is a
// convenience cache keyed by an opaque session key, never a source of truth:
// losing one costs the user some typing, nothing more.
package draft

import "time"

// SchemaVersion tags the current draft shape. Version 0 drafts carry a
// single legacy service selection and are migrated forward on load.
const SchemaVersion = 1

// Draft accumulates the selections of one booking attempt.
type Draft struct {
	Version int `json:"version"`

	// Multi-service selection, kept in parallel by id.
	ServiceIDs   []string `json:"service_ids"`
	ServiceNames []string `json:"service_names"`

	// Legacy single-service fields, maintained as "first selected" for
	// older readers.
	ServiceID   string `json:"service_id,omitempty"`
	ServiceName string `json:"service_name,omitempty"`

	Date     string `json:"date,omitempty"` // "2006-01-02"
	Time     string `json:"time,omitempty"` // "HH:MM"
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`

	// Submitted is terminal: once set, this draft can never be submitted
	// again, surviving reloads and duplicate clicks.
	Submitted     bool       `json:"submitted,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	AppointmentID string     `json:"appointment_id,omitempty"`
}

// New returns an empty draft at the current schema version.
func New() *Draft {
	return &Draft{Version: SchemaVersion}
}

// Upgrade migrates a draft loaded from storage to the current schema.
// A legacy single-service selection is promoted into the list shape without
// losing any entered contact fields. Returns true when the draft changed.
func Upgrade(d *Draft) bool {
	if d.Version >= SchemaVersion {
		return false
	}

	if len(d.ServiceIDs) == 0 && d.ServiceID != "" {
		d.ServiceIDs = []string{d.ServiceID}
		if d.ServiceName != "" {
			d.ServiceNames = []string{d.ServiceName}
		}
	}
	if d.ServiceIDs == nil {
		d.ServiceIDs = []string{}
	}
	if d.ServiceNames == nil {
		d.ServiceNames = []string{}
	}

	d.Version = SchemaVersion
	return true
}

// ToggleService adds or removes a service selection, keeping the name list
// and the legacy primary fields in sync by id.
func (d *Draft) ToggleService(id, name string) {
	names := make(map[string]string, len(d.ServiceIDs))
	for i, sid := range d.ServiceIDs {
		if i < len(d.ServiceNames) {
			names[sid] = d.ServiceNames[i]
		}
	}

	if _, selected := names[id]; selected {
		delete(names, id)
		next := d.ServiceIDs[:0]
		for _, sid := range d.ServiceIDs {
			if sid != id {
				next = append(next, sid)
			}
		}
		d.ServiceIDs = next
	} else {
		names[id] = name
		d.ServiceIDs = append(d.ServiceIDs, id)
	}

	d.ServiceNames = make([]string, len(d.ServiceIDs))
	for i, sid := range d.ServiceIDs {
		d.ServiceNames[i] = names[sid]
	}

	d.syncPrimary()
}

// syncPrimary recomputes the legacy single-service fields as the first
// remaining selection.
func (d *Draft) syncPrimary() {
	if len(d.ServiceIDs) == 0 {
		d.ServiceID = ""
		d.ServiceName = ""
		return
	}
	d.ServiceID = d.ServiceIDs[0]
	d.ServiceName = d.ServiceNames[0]
}

// RepairTime clears the chosen time when it is no longer in the feasible
// set. This is invariant repair, not an error; the caller shows a notice
// when true is returned.
func (d *Draft) RepairTime(feasible []string) bool {
	if d.Time == "" {
		return false
	}
	for _, t := range feasible {
		if t == d.Time {
			return false
		}
	}
	d.Time = ""
	return true
}

// CanSubmit reports whether this draft may still be submitted.
func (d *Draft) CanSubmit() bool {
	return !d.Submitted
}

// MarkSubmitted makes the draft terminal. Idempotent: a second call keeps
// the first submission's appointment id and timestamp.
func (d *Draft) MarkSubmitted(appointmentID string, now time.Time) {
	if d.Submitted {
		return
	}
	d.Submitted = true
	d.SubmittedAt = &now
	d.AppointmentID = appointmentID
}

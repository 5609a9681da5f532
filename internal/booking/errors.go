package booking

import "errors"

// Error taxonomy of the booking flow. Correctness-affecting outcomes
// (ErrSlotTaken, ErrPartialFailure) carry enough meaning for the caller to
// retry sensibly; everything else is absorbed close to where it happens.
var (
	// ErrInvalidRequest marks a precondition failure: required fields are
	// missing before any write was attempted.
	ErrInvalidRequest = errors.New("invalid booking request")

	// ErrSlotTaken is returned when the ledger's uniqueness constraint
	// rejects the (date, time) pair. The caller must re-run slot generation
	// and re-prompt; it is never retried blindly.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrPartialFailure means the appointment row was created but attaching
	// service lines failed; the appointment has been removed by the
	// compensating delete and the whole flow must be resubmitted.
	ErrPartialFailure = errors.New("booking partially failed and was rolled back")

	// ErrUnknownStatus rejects a status value outside the canonical set.
	ErrUnknownStatus = errors.New("unknown appointment status")

	// ErrNotFound is returned for a missing appointment.
	ErrNotFound = errors.New("appointment not found")
)

// Package api exposes the booking flow over JSON HTTP. Handlers stay thin:
// all scheduling and commit semantics live in the booking package.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"nursecare/internal/booking"
	"nursecare/internal/database"
	"nursecare/internal/draft"
)

// sessionHeader carries the client's opaque draft session key.
const sessionHeader = "X-Session-Key"

// Server bundles the handler dependencies.
type Server struct {
	availability *booking.AvailabilityService
	committer    *booking.Committer
	db           *database.DB
	drafts       *draft.Manager
	logger       *zerolog.Logger
}

// NewServer creates the API server.
func NewServer(
	availability *booking.AvailabilityService,
	committer *booking.Committer,
	db *database.DB,
	drafts *draft.Manager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		availability: availability,
		committer:    committer,
		db:           db,
		drafts:       drafts,
		logger:       logger,
	}
}

// Routes returns the request multiplexer.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/services", s.handleListServices)
	mux.HandleFunc("GET /api/dates", s.handleBookableDates)
	mux.HandleFunc("GET /api/slots", s.handleSlots)
	mux.HandleFunc("POST /api/appointments", s.handleCommit)

	mux.HandleFunc("GET /api/draft", s.handleGetDraft)
	mux.HandleFunc("PATCH /api/draft", s.handlePatchDraft)
	mux.HandleFunc("POST /api/draft/services", s.handleToggleDraftService)
	mux.HandleFunc("DELETE /api/draft", s.handleDestroyDraft)

	mux.HandleFunc("POST /api/admin/appointments/status", s.handleSetStatus)
	mux.HandleFunc("GET /api/admin/appointments", s.handleListAppointments)
	mux.HandleFunc("GET /api/admin/appointments/counts", s.handleStatusCounts)
	mux.HandleFunc("GET /api/admin/appointments/export", s.handleExport)

	mux.HandleFunc("POST /api/admin/services", s.handleCreateService)
	mux.HandleFunc("PUT /api/admin/services", s.handleUpdateService)
	mux.HandleFunc("DELETE /api/admin/services", s.handleDeactivateService)

	mux.HandleFunc("GET /api/admin/availability", s.handleListWindows)
	mux.HandleFunc("POST /api/admin/availability", s.handleAddWindow)
	mux.HandleFunc("DELETE /api/admin/availability", s.handleDeleteWindow)
	mux.HandleFunc("GET /api/admin/blocked-dates", s.handleListBlockedDates)
	mux.HandleFunc("POST /api/admin/blocked-dates", s.handleAddBlockedDate)
	mux.HandleFunc("DELETE /api/admin/blocked-dates", s.handleDeleteBlockedDate)
	mux.HandleFunc("GET /api/admin/settings/slot-interval", s.handleGetSlotInterval)
	mux.HandleFunc("PUT /api/admin/settings/slot-interval", s.handleSetSlotInterval)

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

// writeError maps the booking error taxonomy onto HTTP statuses. Slot
// conflicts tell the client to re-query availability; partial failures tell
// it the whole flow must be resubmitted.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest), errors.Is(err, booking.ErrUnknownStatus):
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, booking.ErrSlotTaken):
		s.writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  "slot_taken",
			"detail": "that slot was just booked, re-query availability and choose another time",
		})
	case errors.Is(err, booking.ErrPartialFailure):
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":     "booking_failed",
			"detail":    "booking failed while attaching services and was rolled back",
			"retryable": true,
		})
	case errors.Is(err, booking.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "not_found",
		})
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "internal",
		})
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

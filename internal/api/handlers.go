package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"nursecare/internal/booking"
	"nursecare/internal/model"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.db.ListActiveServices(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if services == nil {
		services = []model.Service{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"services": services})
}

func (s *Server) handleBookableDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.availability.BookableDates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"dates": dates})
}

// handleSlots returns the feasible start times for a date and service
// selection. When the request carries a draft session whose chosen time is no
// longer feasible, the time is cleared server-side and the response says so.
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}

	var serviceIDs []string
	if raw := r.URL.Query().Get("service_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				serviceIDs = append(serviceIDs, id)
			}
		}
	}

	feasible, err := s.availability.SlotsForDate(r.Context(), date, serviceIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if feasible == nil {
		feasible = []string{}
	}

	resp := map[string]interface{}{"slots": feasible}

	if key := r.Header.Get(sessionHeader); key != "" {
		d, err := s.drafts.Load(r.Context(), key)
		if err != nil {
			s.logger.Warn().Err(err).Msg("load draft for slot repair")
		} else if d.Date == date && d.RepairTime(feasible) {
			if err := s.drafts.Save(r.Context(), key, d); err != nil {
				s.logger.Warn().Err(err).Msg("persist repaired draft")
			}
			resp["notice"] = "your previously chosen time is no longer available, please pick another"
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleCommit runs the booking commit. With a draft session attached the
// submission becomes idempotent: a duplicate submit returns the stored
// appointment id instead of booking twice.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req booking.CommitRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}

	key := r.Header.Get(sessionHeader)
	if key != "" {
		d, err := s.drafts.Load(r.Context(), key)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if !d.CanSubmit() {
			s.writeJSON(w, http.StatusOK, map[string]interface{}{
				"appointment_id":    d.AppointmentID,
				"already_submitted": true,
			})
			return
		}
	}

	appt, err := s.committer.Commit(r.Context(), req)
	if err != nil {
		// A slot conflict also clears the stale time from the draft so the
		// client re-picks from fresh availability.
		if key != "" && errors.Is(err, booking.ErrSlotTaken) {
			if d, loadErr := s.drafts.Load(r.Context(), key); loadErr == nil {
				d.Time = ""
				if saveErr := s.drafts.Save(r.Context(), key, d); saveErr != nil {
					s.logger.Warn().Err(saveErr).Msg("persist draft after conflict")
				}
			}
		}
		s.writeError(w, err)
		return
	}

	if key != "" {
		if d, loadErr := s.drafts.Load(r.Context(), key); loadErr == nil {
			d.MarkSubmitted(appt.ID, time.Now())
			if saveErr := s.drafts.Save(r.Context(), key, d); saveErr != nil {
				s.logger.Warn().Err(saveErr).Msg("persist submitted draft")
			}
		}
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"appointment_id": appt.ID,
		"status":         appt.Status,
	})
}

func (s *Server) sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(sessionHeader)
	if key == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "missing " + sessionHeader + " header",
		})
		return "", false
	}
	return key, true
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	d, err := s.drafts.Load(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

// handlePatchDraft merges the submitted fields into the stored draft. Only
// the scalar selections are patchable; service toggling has its own endpoint
// and the submitted flag is never writable from outside.
func (s *Server) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}

	var patch struct {
		Date     *string `json:"date"`
		Time     *string `json:"time"`
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
		Email    *string `json:"email"`
		Address  *string `json:"address"`
	}
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}

	d, err := s.drafts.Load(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if patch.Date != nil {
		d.Date = *patch.Date
		// A new date invalidates any previously chosen time.
		d.Time = ""
	}
	if patch.Time != nil {
		d.Time = model.NormalizeClock(*patch.Time)
	}
	if patch.FullName != nil {
		d.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		d.Phone = *patch.Phone
	}
	if patch.Email != nil {
		d.Email = *patch.Email
	}
	if patch.Address != nil {
		d.Address = *patch.Address
	}

	if err := s.drafts.Save(r.Context(), key, d); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleToggleDraftService(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}

	var body struct {
		ServiceID string `json:"service_id"`
	}
	if err := decodeBody(r, &body); err != nil || body.ServiceID == "" {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}

	name, err := s.db.GetServiceName(r.Context(), body.ServiceID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if name == "" {
		s.writeError(w, booking.ErrNotFound)
		return
	}

	d, err := s.drafts.Load(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	d.ToggleService(body.ServiceID, name)

	if err := s.drafts.Save(r.Context(), key, d); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDestroyDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	if err := s.drafts.Destroy(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

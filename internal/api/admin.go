package api

import (
	"net/http"
	"strconv"
	"time"

	"nursecare/internal/booking"
	"nursecare/internal/export"
	"nursecare/internal/model"
)

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AppointmentID string `json:"appointment_id"`
		Status        string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil || body.AppointmentID == "" {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}

	appt, err := s.committer.SetStatus(r.Context(), body.AppointmentID, body.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, appt)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" {
		normalized, ok := model.NormalizeStatus(status)
		if !ok {
			s.writeError(w, booking.ErrUnknownStatus)
			return
		}
		status = normalized
	}

	appointments, err := s.db.ListAppointments(r.Context(), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if appointments == nil {
		appointments = []model.Appointment{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"appointments": appointments})
}

func (s *Server) handleStatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.StatusCounts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"counts": counts})
}

// handleExport streams the full appointment ledger as an xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	appointments, err := s.db.ListAppointments(r.Context(), "")
	if err != nil {
		s.writeError(w, err)
		return
	}

	resolve := func(appointmentID string) []string {
		ids, err := s.db.LinkedServiceIDs(r.Context(), appointmentID)
		if err != nil || len(ids) == 0 {
			return nil
		}
		services, err := s.db.GetServicesByIDs(r.Context(), ids)
		if err != nil {
			return nil
		}
		return model.ServiceNames(services)
	}

	filename := "appointments_" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.WriteAppointments(w, appointments, resolve); err != nil {
		// Headers are already gone; all we can do is log.
		s.logger.Error().Err(err).Msg("export appointments")
	}
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var svc model.Service
	if err := decodeBody(r, &svc); err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	svc.IsActive = true
	if err := s.db.CreateService(r.Context(), &svc); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var svc model.Service
	if err := decodeBody(r, &svc); err != nil || svc.ID == "" {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	if err := s.db.UpdateService(r.Context(), &svc); err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleDeactivateService(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	if err := s.db.DeactivateService(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.db.ListWindows(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if windows == nil {
		windows = []model.AvailabilityWindow{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"windows": windows})
}

func (s *Server) handleAddWindow(w http.ResponseWriter, r *http.Request) {
	var window model.AvailabilityWindow
	if err := decodeBody(r, &window); err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}

	id, err := s.db.AddWindow(r.Context(), window)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	window.ID = id
	s.writeJSON(w, http.StatusCreated, window)
}

func (s *Server) handleDeleteWindow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	if err := s.db.DeleteWindow(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBlockedDates(w http.ResponseWriter, r *http.Request) {
	blocked, err := s.db.ListBlockedDates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if blocked == nil {
		blocked = []model.BlockedDate{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"blocked_dates": blocked})
}

func (s *Server) handleAddBlockedDate(w http.ResponseWriter, r *http.Request) {
	var b model.BlockedDate
	if err := decodeBody(r, &b); err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	if _, err := time.ParseInLocation("2006-01-02", b.Date, time.Local); err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	if err := s.db.AddBlockedDate(r.Context(), b); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleDeleteBlockedDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	if err := s.db.DeleteBlockedDate(r.Context(), date); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSlotInterval(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"slot_interval_minutes": s.availability.Interval(r.Context()),
	})
}

func (s *Server) handleSetSlotInterval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Minutes int `json:"slot_interval_minutes"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, booking.ErrInvalidRequest)
		return
	}
	if err := s.db.SetSlotIntervalMinutes(r.Context(), body.Minutes); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"slot_interval_minutes": body.Minutes,
	})
}

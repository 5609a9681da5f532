package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nursecare/internal/booking"
	"nursecare/internal/database"
	"nursecare/internal/draft"
	"nursecare/internal/events"
	"nursecare/internal/model"
)

type testEnv struct {
	srv   *httptest.Server
	db    *database.DB
	svcID string
	date  string // a bookable date with a 09:00-12:00 window
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l := zerolog.New(io.Discard)
	ctx := context.Background()

	svc := &model.Service{Name: "Wound Care", DurationMins: 60, PriceCents: 5000, IsActive: true}
	require.NoError(t, db.CreateService(ctx, svc))

	// A window one week out keeps the date inside the booking horizon.
	day := time.Now().AddDate(0, 0, 7)
	_, err = db.AddWindow(ctx, model.AvailabilityWindow{
		DayOfWeek: int(day.Weekday()), StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	bus := events.NewEventBus()
	availability := booking.NewAvailabilityService(db, db, db, 0, &l)
	committer := booking.NewCommitter(db, db, bus, &l)
	drafts := draft.NewManager(draft.NewMemoryStore(time.Hour), &l)

	server := NewServer(availability, committer, db, drafts, &l)
	srv := httptest.NewServer(server.Routes())
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:   srv,
		db:    db,
		svcID: svc.ID,
		date:  day.Format("2006-01-02"),
	}
}

func (e *testEnv) request(t *testing.T, method, path, session string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if session != "" {
		req.Header.Set(sessionHeader, session)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func commitBody(e *testEnv, tm string) map[string]interface{} {
	return map[string]interface{}{
		"service_ids": []string{e.svcID},
		"date":        e.date,
		"time":        tm,
		"full_name":   "Anna Petrova",
		"phone":       "+15550100",
	}
}

func TestListServicesAndDates(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.request(t, http.MethodGet, "/api/services", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["services"], 1)

	resp, body = e.request(t, http.MethodGet, "/api/dates", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	dates := body["dates"].([]interface{})
	assert.Len(t, dates, 30)
	assert.Contains(t, dates, e.date)
}

func TestSlotsEndpoint(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.request(t, http.MethodGet,
		"/api/slots?date="+e.date+"&service_ids="+e.svcID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 60-minute service in a 09:00-12:00 window at 30-minute granularity.
	slots := body["slots"].([]interface{})
	assert.Equal(t, []interface{}{"09:00", "09:30", "10:00", "10:30", "11:00"}, slots)

	resp, _ = e.request(t, http.MethodGet, "/api/slots?date=not-a-date", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.request(t, http.MethodGet, "/api/slots", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommitFlowWithDraftSession(t *testing.T) {
	e := newTestEnv(t)
	const session = "sess-flow"

	resp, body := e.request(t, http.MethodPost, "/api/appointments", session, commitBody(e, "09:30"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	apptID := body["appointment_id"].(string)
	assert.NotEmpty(t, apptID)
	assert.Equal(t, "pending", body["status"])

	// Same session again: idempotent, returns the original id, books nothing.
	resp, body = e.request(t, http.MethodPost, "/api/appointments", session, commitBody(e, "11:00"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, apptID, body["appointment_id"])
	assert.Equal(t, true, body["already_submitted"])

	appointments, err := e.db.ListAppointments(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
}

func TestCommitConflict(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.request(t, http.MethodPost, "/api/appointments", "", commitBody(e, "10:00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.request(t, http.MethodPost, "/api/appointments", "", commitBody(e, "10:00"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "slot_taken", body["error"])

	// The taken slot is gone from a fresh availability query. The 60-minute
	// service also rules out 09:30, whose span would cover 10:00.
	resp, body = e.request(t, http.MethodGet,
		"/api/slots?date="+e.date+"&service_ids="+e.svcID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body["slots"], "10:00")
	assert.NotContains(t, body["slots"], "09:30")
	assert.Contains(t, body["slots"], "09:00")
}

func TestCommitValidation(t *testing.T) {
	e := newTestEnv(t)

	body := commitBody(e, "09:00")
	delete(body, "phone")
	resp, _ := e.request(t, http.MethodPost, "/api/appointments", "", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDraftLifecycle(t *testing.T) {
	e := newTestEnv(t)
	const session = "sess-draft"

	resp, _ := e.request(t, http.MethodGet, "/api/draft", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "session header required")

	resp, body := e.request(t, http.MethodPost, "/api/draft/services", session,
		map[string]string{"service_id": e.svcID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"Wound Care"}, body["service_names"])

	resp, _ = e.request(t, http.MethodPost, "/api/draft/services", session,
		map[string]string{"service_id": "no-such-service"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = e.request(t, http.MethodPatch, "/api/draft", session,
		map[string]string{"date": e.date, "time": "09:30"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "09:30", body["time"])

	// Changing the date clears the previously chosen time.
	resp, body = e.request(t, http.MethodPatch, "/api/draft", session,
		map[string]string{"date": "2026-12-01"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["time"])

	resp, _ = e.request(t, http.MethodDelete, "/api/draft", session, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSlotRepairNotice(t *testing.T) {
	e := newTestEnv(t)
	const session = "sess-repair"

	resp, _ := e.request(t, http.MethodPatch, "/api/draft", session,
		map[string]string{"date": e.date, "time": "09:30"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Another client takes 09:30 directly.
	resp, _ = e.request(t, http.MethodPost, "/api/appointments", "", commitBody(e, "09:30"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.request(t, http.MethodGet,
		"/api/slots?date="+e.date+"&service_ids="+e.svcID, session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["notice"], "stale draft time triggers a repair notice")

	_, body = e.request(t, http.MethodGet, "/api/draft", session, nil)
	assert.Empty(t, body["time"], "repaired time is persisted")
}

func TestAdminStatusEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.request(t, http.MethodPost, "/api/appointments", "", commitBody(e, "09:00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	apptID := body["appointment_id"].(string)

	resp, body = e.request(t, http.MethodPost, "/api/admin/appointments/status", "",
		map[string]string{"appointment_id": apptID, "status": "Cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])

	resp, _ = e.request(t, http.MethodPost, "/api/admin/appointments/status", "",
		map[string]string{"appointment_id": apptID, "status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.request(t, http.MethodPost, "/api/admin/appointments/status", "",
		map[string]string{"appointment_id": "no-such-id", "status": "confirmed"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = e.request(t, http.MethodGet, "/api/admin/appointments?status=cancelled", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["appointments"], 1)

	resp, body = e.request(t, http.MethodGet, "/api/admin/appointments/counts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counts := body["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["cancelled"])
	assert.Equal(t, float64(0), counts["pending"])
}

func TestAdminServiceCatalogEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.request(t, http.MethodPost, "/api/admin/services", "",
		map[string]interface{}{"name": "Home Visit", "duration_mins": 45, "price_cents": 9000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	svcID := body["id"].(string)
	assert.Equal(t, true, body["is_active"])

	resp, _ = e.request(t, http.MethodPost, "/api/admin/services", "",
		map[string]interface{}{"duration_mins": 45})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "name is required")

	resp, body = e.request(t, http.MethodPut, "/api/admin/services", "",
		map[string]interface{}{"id": svcID, "name": "Extended Home Visit",
			"duration_mins": 90, "price_cents": 15000, "is_active": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Extended Home Visit", body["name"])

	resp, _ = e.request(t, http.MethodPut, "/api/admin/services", "",
		map[string]interface{}{"id": "no-such-id", "name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.request(t, http.MethodDelete, "/api/admin/services?id="+svcID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = e.request(t, http.MethodGet, "/api/services", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["services"], 1, "only the seeded service remains active")
}

func TestAdminRuleEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.request(t, http.MethodPost, "/api/admin/blocked-dates", "",
		map[string]string{"date": "2026-12-25", "note": "holiday"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = e.request(t, http.MethodPost, "/api/admin/blocked-dates", "",
		map[string]string{"date": "christmas"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.request(t, http.MethodGet, "/api/admin/blocked-dates", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["blocked_dates"], 1)

	resp, _ = e.request(t, http.MethodDelete, "/api/admin/blocked-dates?date=2026-12-25", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = e.request(t, http.MethodPut, "/api/admin/settings/slot-interval", "",
		map[string]int{"slot_interval_minutes": 45})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.request(t, http.MethodGet, "/api/admin/settings/slot-interval", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(45), body["slot_interval_minutes"])

	resp, body = e.request(t, http.MethodPost, "/api/admin/availability", "",
		map[string]interface{}{"day_of_week": 2, "start_time": "13:00", "end_time": "17:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	windowID := body["id"].(float64)

	resp, _ = e.request(t, http.MethodPost, "/api/admin/availability", "",
		map[string]interface{}{"day_of_week": 9, "start_time": "13:00", "end_time": "17:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.request(t, http.MethodDelete,
		"/api/admin/availability?id="+strconv.FormatInt(int64(windowID), 10), "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

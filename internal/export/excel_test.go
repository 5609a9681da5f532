package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nursecare/internal/model"
)

func TestWriteAppointments(t *testing.T) {
	created := time.Date(2026, 9, 10, 14, 30, 0, 0, time.UTC)
	appointments := []model.Appointment{
		{
			ID: "apt-1", Date: "2026-09-14", Time: "09:30", Status: "pending",
			FullName: "Anna Petrova", Phone: "+15550100", CreatedAt: created,
		},
		{
			ID: "apt-2", Date: "2026-09-15", Time: "11:00", Status: "confirmed",
			FullName: "Ivan Orlov", Phone: "+15550142", CreatedAt: created,
		},
	}
	resolve := func(appointmentID string) []string {
		if appointmentID == "apt-1" {
			return []string{"Wound Care", "IV Therapy"}
		}
		return nil
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAppointments(&buf, appointments, resolve))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Appointments")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Services", rows[0][8])
	assert.Equal(t, "apt-1", rows[1][0])
	assert.Equal(t, "Wound Care, IV Therapy", rows[1][8])
	assert.Equal(t, "confirmed", rows[2][3])
}

func TestWriteAppointmentsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAppointments(&buf, nil, func(string) []string { return nil }))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Appointments")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

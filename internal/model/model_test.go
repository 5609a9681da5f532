package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"pending", StatusPending, true},
		{"Pending", StatusPending, true},
		{"  Confirmed ", StatusConfirmed, true},
		{"in_progress", StatusInProgress, true},
		{"in progress", StatusInProgress, true},
		{"In Progress", StatusInProgress, true},
		{"finished", StatusFinished, true},
		{"Cancelled", StatusCancelled, true},
		{"canceled", StatusCancelled, true},
		{"archived", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeStatus(tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestIsActiveStatus(t *testing.T) {
	assert.True(t, IsActiveStatus(StatusPending))
	assert.True(t, IsActiveStatus(StatusConfirmed))
	assert.True(t, IsActiveStatus(StatusInProgress))
	assert.False(t, IsActiveStatus(StatusFinished))
	assert.False(t, IsActiveStatus(StatusCancelled))
	assert.False(t, IsActiveStatus("archived"))
}

func TestClockConversions(t *testing.T) {
	mins, err := ClockToMinutes("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, mins)

	mins, err = ClockToMinutes("09:30:00")
	require.NoError(t, err)
	assert.Equal(t, 570, mins)

	_, err = ClockToMinutes("24:00")
	assert.Error(t, err)
	_, err = ClockToMinutes("0930")
	assert.Error(t, err)

	assert.Equal(t, "09:30", MinutesToClock(570))
	assert.Equal(t, "00:00", MinutesToClock(0))
	assert.Equal(t, "23:59", MinutesToClock(1439))
}

func TestNormalizeClock(t *testing.T) {
	assert.Equal(t, "09:30", NormalizeClock("09:30:00"))
	assert.Equal(t, "09:05", NormalizeClock("9:5"))
	assert.Equal(t, "garbage", NormalizeClock("garbage"), "unparseable input passes through")
}

func TestAvailabilityWindowValidate(t *testing.T) {
	valid := AvailabilityWindow{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}
	assert.NoError(t, valid.Validate())

	cases := []AvailabilityWindow{
		{DayOfWeek: 7, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: -1, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: 1, StartTime: "12:00", EndTime: "09:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00"},
		{DayOfWeek: 1, StartTime: "late", EndTime: "12:00"},
	}
	for _, w := range cases {
		assert.Error(t, w.Validate(), "window %+v", w)
	}
}

func TestServiceAggregates(t *testing.T) {
	services := []Service{
		{Name: "Wound Care", PriceCents: 5000, DurationMins: 60},
		{Name: "IV Therapy", PriceCents: 7500, DurationMins: 30},
	}

	assert.Equal(t, 90, TotalDurationMins(services))
	assert.Equal(t, int64(12500), TotalPriceCents(services))
	assert.Equal(t, []string{"Wound Care", "IV Therapy"}, ServiceNames(services))

	assert.Equal(t, 0, TotalDurationMins(nil))
	assert.Empty(t, ServiceNames(nil))
}

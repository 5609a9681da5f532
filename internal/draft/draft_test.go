package draft

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeLegacyDraft(t *testing.T) {
	d := &Draft{
		Version:     0,
		ServiceID:   "svc-1",
		ServiceName: "Wound Care",
		FullName:    "Anna Petrova",
		Date:        "2026-09-10",
	}

	require.True(t, Upgrade(d))
	assert.Equal(t, SchemaVersion, d.Version)
	assert.Equal(t, []string{"svc-1"}, d.ServiceIDs)
	assert.Equal(t, []string{"Wound Care"}, d.ServiceNames)
	// Contact fields survive the migration untouched.
	assert.Equal(t, "Anna Petrova", d.FullName)
	assert.Equal(t, "2026-09-10", d.Date)

	assert.False(t, Upgrade(d), "second upgrade is a no-op")
}

func TestUpgradeEmptyLegacyDraft(t *testing.T) {
	d := &Draft{Version: 0}
	require.True(t, Upgrade(d))
	assert.NotNil(t, d.ServiceIDs)
	assert.Empty(t, d.ServiceIDs)
}

func TestToggleService(t *testing.T) {
	d := New()

	d.ToggleService("svc-1", "Wound Care")
	d.ToggleService("svc-2", "IV Therapy")
	assert.Equal(t, []string{"svc-1", "svc-2"}, d.ServiceIDs)
	assert.Equal(t, []string{"Wound Care", "IV Therapy"}, d.ServiceNames)
	assert.Equal(t, "svc-1", d.ServiceID, "legacy field tracks first selection")

	// Toggling again deselects and the legacy field moves on.
	d.ToggleService("svc-1", "Wound Care")
	assert.Equal(t, []string{"svc-2"}, d.ServiceIDs)
	assert.Equal(t, "svc-2", d.ServiceID)
	assert.Equal(t, "IV Therapy", d.ServiceName)

	d.ToggleService("svc-2", "IV Therapy")
	assert.Empty(t, d.ServiceIDs)
	assert.Empty(t, d.ServiceID)
}

func TestRepairTime(t *testing.T) {
	d := New()
	d.Time = "09:30"

	assert.False(t, d.RepairTime([]string{"09:00", "09:30"}), "feasible time stays")
	assert.Equal(t, "09:30", d.Time)

	assert.True(t, d.RepairTime([]string{"10:00"}), "infeasible time is cleared")
	assert.Empty(t, d.Time)

	assert.False(t, d.RepairTime([]string{"10:00"}), "empty time needs no repair")
}

func TestMarkSubmittedIsTerminal(t *testing.T) {
	d := New()
	require.True(t, d.CanSubmit())

	first := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	d.MarkSubmitted("apt-1", first)
	assert.False(t, d.CanSubmit())
	assert.Equal(t, "apt-1", d.AppointmentID)

	// A duplicate submit keeps the original appointment id and timestamp.
	d.MarkSubmitted("apt-2", first.Add(time.Hour))
	assert.Equal(t, "apt-1", d.AppointmentID)
	assert.Equal(t, first, *d.SubmittedAt)
}

func testManager(t *testing.T, store Store) *Manager {
	t.Helper()
	l := zerolog.New(io.Discard)
	return NewManager(store, &l)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	d := New()
	d.ToggleService("svc-1", "Wound Care")
	d.Date = "2026-09-10"
	require.NoError(t, store.Save(ctx, "sess-1", d))

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, d.ServiceIDs, got.ServiceIDs)
	assert.Equal(t, "2026-09-10", got.Date)

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "sess-1", d))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerMigratesOnLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	legacy := &Draft{Version: 0, ServiceID: "svc-1", ServiceName: "Wound Care"}
	require.NoError(t, store.Save(ctx, "sess-legacy", legacy))

	m := testManager(t, store)
	d, err := m.Load(ctx, "sess-legacy")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, d.Version)
	assert.Equal(t, []string{"svc-1"}, d.ServiceIDs)

	// The migration is persisted, not just applied in memory.
	raw, err := store.Load(ctx, "sess-legacy")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, raw.Version)
}

func TestManagerMissingDraftIsFresh(t *testing.T) {
	m := testManager(t, NewMemoryStore(time.Hour))
	d, err := m.Load(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, d.Version)
	assert.True(t, d.CanSubmit())
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", New()))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, store.Cleanup())
}

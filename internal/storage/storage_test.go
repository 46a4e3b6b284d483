package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStorageContract exercises behaviour every backend must share.
func runStorageContract(t *testing.T, newStore func(t *testing.T) Storage) {
	t.Run("create assigns sequential ids", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		created := time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC)

		first := &ServiceRequest{Name: "Ana", Email: "ana@example.org", Status: StatusPending, CreatedAt: created}
		second := &ServiceRequest{Name: "Ben", Email: "ben@example.org", Status: StatusPending, CreatedAt: created}
		require.NoError(t, st.CreateServiceRequest(ctx, first))
		require.NoError(t, st.CreateServiceRequest(ctx, second))

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
		assert.Equal(t, "SR-000002", second.ReferenceNumber())

		list, err := st.ListServiceRequests(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Ana", list[0].Name)
		assert.Equal(t, "Ben", list[1].Name)
		assert.WithinDuration(t, created, list[0].CreatedAt, time.Second)
	})

	t.Run("counts by status", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		for _, status := range []string{StatusPending, StatusPending, StatusResolved} {
			require.NoError(t, st.CreateServiceRequest(ctx, &ServiceRequest{Name: "x", Status: status}))
		}

		counts, err := st.CountServiceRequestsByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts[StatusPending])
		assert.Equal(t, 1, counts[StatusResolved])
		assert.Zero(t, counts[StatusInProgress])
	})

	t.Run("announcements newest first and upsert replaces", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		require.NoError(t, st.UpsertAnnouncement(ctx, Announcement{ID: 1, Title: "Old", Date: "2026-01-01", Type: "info"}))
		require.NoError(t, st.UpsertAnnouncement(ctx, Announcement{ID: 2, Title: "New", Date: "2026-02-01", Type: "info"}))
		require.NoError(t, st.UpsertAnnouncement(ctx, Announcement{ID: 1, Title: "Old (edited)", Date: "2026-01-01", Type: "info"}))

		list, err := st.ListAnnouncements(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "New", list[0].Title)
		assert.Equal(t, "Old (edited)", list[1].Title)
	})

	t.Run("ping", func(t *testing.T) {
		st := newStore(t)
		assert.NoError(t, st.Ping(context.Background()))
	})
}

func TestMemoryStorage_Contract(t *testing.T) {
	runStorageContract(t, func(t *testing.T) Storage {
		m := NewMemory()
		t.Cleanup(func() { m.Close() })
		return m
	})
}

func TestMemoryStorage_ConcurrentCreate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.CreateServiceRequest(ctx, &ServiceRequest{Name: "x", Status: StatusPending})
		}()
	}
	wg.Wait()

	list, err := m.ListServiceRequests(ctx)
	require.NoError(t, err)
	require.Len(t, list, 50)
	for i, r := range list {
		assert.Equal(t, int64(i+1), r.ID)
	}
}

func TestMemoryStorage_DefaultsCreatedAt(t *testing.T) {
	m := NewMemory()
	req := &ServiceRequest{Name: "x"}
	require.NoError(t, m.CreateServiceRequest(context.Background(), req))
	assert.False(t, req.CreatedAt.IsZero())
}

func TestOpen_MemorySeedsAnnouncements(t *testing.T) {
	st, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	defer st.Close()

	list, err := st.ListAnnouncements(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Scheduled Water Interruption", list[0].Title)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	assert.Error(t, err)
}

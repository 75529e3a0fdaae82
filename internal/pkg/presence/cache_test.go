package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return mr, NewCache(client, time.Minute)
}

func TestCache_SetAndGet(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	reason := "OUTSIDE_BRANCH"
	live := Live{
		EmployeeID:    "emp-1",
		SessionID:     "sess-1",
		LastSeenAt:    time.Now().UTC().Truncate(time.Second),
		InsideArea:    false,
		SignalUsable:  true,
		ProblemReason: &reason,
	}

	require.NoError(t, cache.Set(ctx, "tenant-1", live))

	got, err := cache.Get(ctx, "tenant-1", "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, live.EmployeeID, got.EmployeeID)
	assert.Equal(t, live.SessionID, got.SessionID)
	assert.False(t, got.InsideArea)
	require.NotNil(t, got.ProblemReason)
	assert.Equal(t, reason, *got.ProblemReason)
}

func TestCache_Get_Missing(t *testing.T) {
	_, cache := setupTestCache(t)

	got, err := cache.Get(context.Background(), "tenant-1", "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Get_Expired(t *testing.T) {
	mr, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "tenant-1", Live{EmployeeID: "emp-1", SessionID: "sess-1"}))

	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "tenant-1", "emp-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Delete(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "tenant-1", Live{EmployeeID: "emp-1", SessionID: "sess-1"}))
	require.NoError(t, cache.Delete(ctx, "tenant-1", "emp-1"))

	got, err := cache.Get(ctx, "tenant-1", "emp-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_ListByTenant_IsTenantScoped(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "tenant-1", Live{EmployeeID: "emp-1", SessionID: "s1"}))
	require.NoError(t, cache.Set(ctx, "tenant-1", Live{EmployeeID: "emp-2", SessionID: "s2"}))
	require.NoError(t, cache.Set(ctx, "tenant-2", Live{EmployeeID: "emp-3", SessionID: "s3"}))

	result, err := cache.ListByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Len(t, result, 2)
	for _, live := range result {
		assert.NotEqual(t, "emp-3", live.EmployeeID)
	}
}

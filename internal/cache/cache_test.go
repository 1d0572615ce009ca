package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/seoscout/seoscout/internal/cache"
	"github.com/seoscout/seoscout/pkg/models"
)

// setupRedis spins up a Redis container and returns a connected RedisCache.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rc, err := cache.NewRedisCache("redis://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return rc
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	assert.NoError(t, rc.Ping(context.Background()))
}

func TestSetGet_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "k", []byte("v"), time.Minute))

	val, ok, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestGet_Missing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	_, ok, err := rc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, rc.Delete(ctx, "k"))

	_, ok, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordStatus_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, rc.SetRecordStatus(ctx, id, models.StatusProcessing, time.Minute))

	status, ok, err := rc.GetRecordStatus(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.StatusProcessing, status)

	// Overwrite follows the lifecycle.
	require.NoError(t, rc.SetRecordStatus(ctx, id, models.StatusCompleted, time.Minute))
	status, _, err = rc.GetRecordStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status)
}

func TestRecordStatus_Missing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	_, ok, err := rc.GetRecordStatus(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := cache.RateLimitKey("203.0.113.9")

	for want := int64(1); want <= 3; want++ {
		got, err := rc.IncrWithExpiry(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

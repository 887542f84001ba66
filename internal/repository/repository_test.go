// Tests use testcontainers-go to spin up PostgreSQL and Redis containers.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, SnapshotSchema)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// setupTestRedis starts a Redis container and returns a client for it
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}

	return client, cleanup
}

// ============================================================================
// PostgresStore Tests
// ============================================================================

func TestPostgresStore_LoadMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(pool, "test")

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestPostgresStore_SaveOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(pool, "test")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []byte(`{"version":2,"users":{"1":{"id":1,"balance":5}}}`)))
	require.NoError(t, store.Save(ctx, []byte(`{"version":2,"users":{"1":{"id":1,"balance":9}}}`)))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"users":{"1":{"id":1,"balance":9}}}`, string(doc))

	// Separate names do not collide
	other := NewPostgresStore(pool, "other")
	_, err = other.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	assert.NoError(t, store.Ping(ctx))
}

// ============================================================================
// RedisStore Tests
// ============================================================================

func TestRedisStore_SaveLoad(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisStore(client, "test:ledger")
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, store.Save(ctx, []byte(`{"version":2,"users":{}}`)))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"users":{}}`, string(doc))
	assert.NoError(t, store.Ping(ctx))
}

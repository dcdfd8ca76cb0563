package postgres_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"phishvault"
	"phishvault/pkg/logger"
	"phishvault/pkg/storage/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgUser     = "postgres"
	pgPassword = "postgres"
	pgAdminDB  = "postgres"
)

// server is shared by every test in the package; each test gets its own database.
var (
	server struct {
		host string
		port int
	}
	dbSeq atomic.Int64
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := func() int {
		defer func() { _ = container.Terminate(ctx) }()

		if server.host, err = container.Host(ctx); err != nil {
			log.Printf("could not get container host: %v", err)

			return 1
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			log.Printf("could not get mapped port: %v", err)

			return 1
		}
		server.port = port.Int()

		return m.Run()
	}()

	os.Exit(code)
}

func connect(ctx context.Context, database string) (*postgres.PgSQL, error) {
	return postgres.New(ctx, postgres.Options{
		Username:           pgUser,
		Password:           pgPassword,
		Host:               server.host,
		Port:               server.port,
		Database:           database,
		SslMode:            "disable",
		ApplicationName:    "phishvault-test",
		ConnMaxLifetime:    time.Minute,
		ConnMaxIdleTime:    time.Minute,
		MaxOpenConnections: 5,
		MaxIdleConnections: 1,
	})
}

// setupTestDB creates an empty database, migrates it and returns a client.
func setupTestDB(t *testing.T) (*postgres.PgSQL, func()) {
	t.Helper()
	ctx := context.Background()

	admin, err := connect(ctx, pgAdminDB)
	require.NoError(t, err)
	defer func() { _ = admin.Close() }()

	name := fmt.Sprintf("scans_%d_%s", dbSeq.Add(1), uuid.NewString()[:8])
	_, err = admin.DB.ExecContext(ctx, "CREATE DATABASE "+name)
	require.NoError(t, err)

	pg, err := connect(ctx, name)
	require.NoError(t, err)
	require.NoError(t, pg.Migrate(ctx, phishvault.Migrations, "migrations"))

	return pg, func() {
		_ = pg.Close()

		admin, err := connect(ctx, pgAdminDB)
		if err != nil {
			return
		}
		defer func() { _ = admin.Close() }()
		_, _ = admin.DB.ExecContext(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)")
	}
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := postgres.New(ctx, postgres.Options{
		Username: pgUser,
		Password: "wrong",
		Host:     server.host,
		Port:     server.port,
		Database: pgAdminDB,
		SslMode:  "disable",
	})
	require.Error(t, err)
}

func TestPgSQL_SchemaVersion(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	v, err := pg.SchemaVersion(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	// running again is a no-op
	require.NoError(t, pg.Migrate(ctx, phishvault.Migrations, "migrations"))
	again, err := pg.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, v, again)
}

func TestPgSQL_SchemaVersion_Unmigrated(t *testing.T) {
	ctx := context.Background()

	admin, err := connect(ctx, pgAdminDB)
	require.NoError(t, err)
	defer func() { _ = admin.Close() }()

	name := fmt.Sprintf("empty_%d", dbSeq.Add(1))
	_, err = admin.DB.ExecContext(ctx, "CREATE DATABASE "+name)
	require.NoError(t, err)

	pg, err := connect(ctx, name)
	require.NoError(t, err)
	defer func() { _ = pg.Close() }()

	v, err := pg.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Zero(t, v)
}

package pgrecords

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGRecords_BlobFlow(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "parceldesk_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/parceldesk_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	require.NoError(t, st.Ping(ctx))

	_, ok, err := st.Get(ctx, "users")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Set(ctx, "users", []byte(`[{"id":"u-1"}]`)))
	first, ok, err := st.UpdatedAt(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)

	// перезапись целиком, last write wins
	require.NoError(t, st.Set(ctx, "users", []byte(`[{"id":"u-1"},{"id":"u-2"}]`)))
	b, ok, err := st.Get(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"u-1"},{"id":"u-2"}]`, string(b))

	second, _, err := st.UpdatedAt(ctx, "users")
	require.NoError(t, err)
	require.False(t, second.Before(first))

	require.Error(t, st.Set(ctx, "parcels", []byte(`{broken`)))

	// schema init is repeatable
	require.NoError(t, st.initSchema(ctx))
}

package migrate

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/nullscape-admin/migrations"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	body, err := fs.ReadFile(migrations.FS, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "-- +goose Down")
	assert.Contains(t, string(body), "mutation_journal")
}

func TestUnreachableDatabase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dsn := "postgres://journal@127.0.0.1:1/journal?sslmode=disable&connect_timeout=1"

	v, err := Version(ctx, dsn)
	require.Error(t, err)
	assert.ErrorContains(t, err, "schema version")
	assert.Zero(t, v)

	assert.Error(t, Up(ctx, dsn))
}

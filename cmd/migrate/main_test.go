package main

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Ordering(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.up.sql":   {Data: []byte("SELECT 2;")},
		"migrations/001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/001_a.down.sql": {Data: []byte("SELECT 1;")},
		"migrations/README.md":      {Data: []byte("notes")},
	}

	up, err := migrationFiles(fsys, ".up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_a.up.sql", "migrations/002_b.up.sql"}, up)

	down, err := migrationFiles(fsys, ".down.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_a.down.sql"}, down)
}

func TestEmbeddedMigrations_Paired(t *testing.T) {
	up, err := migrationFiles(migrationFS, ".up.sql")
	require.NoError(t, err)
	down, err := migrationFiles(migrationFS, ".down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, up)
	assert.Len(t, down, len(up), "every up migration needs a down")
}

package pg

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migrations "github.com/dbMundada/nango/migrations/postgres"
)

func TestParseMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(migrations.CoreFS, migrations.CoreDir).ParseMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "init", migs[0].Name)
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS private_keys")
}

func TestParseMigrations_OrderAndFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0010_b.sql":   {Data: []byte("SELECT 2")},
		"m/0002_a.sql":   {Data: []byte("SELECT 1")},
		"m/README.md":    {Data: []byte("x")},
		"m/sub/0001.sql": {Data: []byte("ignored")},
	}
	migs, err := NewMigrator(fsys, "m").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 2, migs[0].Version)
	assert.Equal(t, 10, migs[1].Version)
}

func TestParseMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("SELECT 1")},
		"m/1_b.sql":    {Data: []byte("SELECT 2")},
	}
	_, err := NewMigrator(fsys, "m").ParseMigrations()
	assert.Error(t, err)
}

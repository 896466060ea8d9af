package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_init_schema_migrations.sql", true, 1, "init_schema_migrations"},
		{"0012_create_cards.sql", true, 12, "create_cards"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
		{"0000_zero.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_create_cards.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.cards` (id STRING);")
	writeFile(t, dir, "0001_init.sql", "SELECT 1;")
	writeFile(t, dir, "README.md", "notes")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o755))

	migrations, err := readMigrations(dir, "proj", "finance", zerolog.New(io.Discard))
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "create_cards", migrations[1].Name)
	assert.Equal(t, "CREATE TABLE `proj.finance.cards` (id STRING);", migrations[1].SQL)

	// the checksum ignores where the migration is applied
	again, err := readMigrations(dir, "other", "dataset", zerolog.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, migrations[1].Checksum, again[1].Checksum)
	assert.NotEqual(t, migrations[0].Checksum, migrations[1].Checksum)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_a.sql", "SELECT 1;")
	writeFile(t, dir, "0001_b.sql", "SELECT 2;")

	_, err := readMigrations(dir, "proj", "finance", zerolog.New(io.Discard))
	assert.ErrorContains(t, err, "duplicate migration version 0001")
}

func TestReadMigrations_RepositoryFiles(t *testing.T) {
	dir, err := locateMigrationsDir("migrations/bigquery")
	require.NoError(t, err)

	migrations, err := readMigrations(dir, "proj", "finance", zerolog.New(io.Discard))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, m.Filename)
		assert.NotContains(t, m.SQL, "{{", m.Filename)
	}
}

func TestPendingAndDrift(t *testing.T) {
	all := []Migration{
		{Version: 1, Filename: "0001_a.sql", Checksum: "aaa"},
		{Version: 2, Filename: "0002_b.sql", Checksum: "bbb"},
		{Version: 3, Filename: "0003_c.sql", Checksum: "ccc"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "aaa"},
		{Version: 2, Checksum: "changed"},
	}

	pending := pendingMigrations(all, applied)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Version)

	assert.Equal(t, []string{"0002_b.sql"}, checksumDrift(all, applied))
	assert.Empty(t, checksumDrift(all, []AppliedMigration{{Version: 1}}))
}

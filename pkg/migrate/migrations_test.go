package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/launchboard-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir(migrate.EmbeddedDir))
}

const wellFormed = `-- +goose Up
-- +goose StatementBegin
SELECT 1;
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 1;
-- +goose StatementEnd
`

func TestValidateFSRejectsMalformedMigrations(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad filename": {
			"m/launch_notes.sql": {Data: []byte(wellFormed)},
		},
		"duplicate version": {
			"m/20260301090000_a.sql": {Data: []byte(wellFormed)},
			"m/20260301090000_b.sql": {Data: []byte(wellFormed)},
		},
		"missing down": {
			"m/20260301090000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"down before up": {
			"m/20260301090000_a.sql": {Data: []byte("-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n")},
		},
		"unterminated statement": {
			"m/20260301090000_a.sql": {Data: []byte("-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")},
		},
		"stray statement end": {
			"m/20260301090000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose StatementEnd\n-- +goose Down\nSELECT 1;\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, migrate.ValidateFS(fsys, "m"))
		})
	}

	ok := fstest.MapFS{
		"m/20260301090000_a.sql": {Data: []byte(wellFormed)},
		"m/README.md":            {Data: []byte("notes")},
	}
	assert.NoError(t, migrate.ValidateFS(ok, "m"))
}

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDeclareLaunchConstraints(t *testing.T) {
	checks := map[string][]string{
		"create_products_table": {
			"CREATE TABLE IF NOT EXISTS products",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_products_owner_slug",
			"CREATE TABLE IF NOT EXISTS product_categories",
			"CREATE TABLE IF NOT EXISTS product_media",
		},
		"create_orders_table": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_external_id",
			"numeric(12,2)",
		},
		"create_votes_table": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_votes_user_product",
		},
		"create_rankings_tables": {
			"ux_winner_flags_daily ON winner_flags ((true)) WHERE won_daily",
			"ux_winner_flags_weekly ON winner_flags ((true)) WHERE won_weekly",
			"ux_winner_flags_monthly ON winner_flags ((true)) WHERE won_monthly",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_archive_entries_year_period_product",
			"CREATE TABLE IF NOT EXISTS archive_runs",
		},
		"create_launch_week_slots_table": {
			"CREATE TABLE IF NOT EXISTS launch_week_slots",
		},
	}
	for suffix, statements := range checks {
		content := readMigration(t, suffix)
		for _, stmt := range statements {
			assert.True(t, strings.Contains(content, stmt), "%s missing %q", suffix, stmt)
		}
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Launch Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_launch_notes.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestCreateSQLMigrationVersionsAfterNewestExisting(t *testing.T) {
	dir := t.TempDir()
	future := filepath.Join(dir, "20991231120000_future_change.sql")
	require.NoError(t, os.WriteFile(future, []byte(wellFormed), 0o644))

	path, err := migrate.CreateSQLMigration(dir, "launch notes")
	require.NoError(t, err)
	assert.Equal(t, "20991231120001_launch_notes.sql", filepath.Base(path))

	path, err = migrate.CreateSQLMigration(dir, "launch notes again")
	require.NoError(t, err)
	assert.Equal(t, "20991231120002_launch_notes_again.sql", filepath.Base(path))
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestCreateSQLMigrationRefusesEmbeddedSet(t *testing.T) {
	_, err := migrate.CreateSQLMigration(migrate.EmbeddedDir, "launch notes")
	assert.Error(t, err)
}

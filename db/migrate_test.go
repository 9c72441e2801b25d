package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// columns returns name -> notnull for a sqlite table.
func columns(t *testing.T, database *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := database.Query(`SELECT name, "notnull", dflt_value FROM pragma_table_info('` + table + `')`)
	require.NoError(t, err)
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		var notNull bool
		var dflt sql.NullString
		require.NoError(t, rows.Scan(&name, &notNull, &dflt))
		assert.False(t, dflt.Valid, "column %s should have no default", name)
		cols[name] = notNull
	}
	require.NoError(t, rows.Err())
	return cols
}

func TestMigratorUpAddsResponseFields(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	m := NewMigrator(database, SQLite, zap.NewNop())

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(Migrations))

	cols := columns(t, database, "responses")
	for _, name := range []string{"body", "author", "post_id"} {
		notNull, ok := cols[name]
		require.True(t, ok, "responses.%s missing", name)
		assert.False(t, notNull, "responses.%s must be nullable", name)
	}

	// Rows without the new fields are allowed.
	_, err = database.Exec(`INSERT INTO responses (created_at, updated_at) VALUES (CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.NoError(t, err)
}

func TestMigratorUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	m := NewMigrator(database, SQLite, zap.NewNop())

	_, err := m.Up(ctx)
	require.NoError(t, err)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, Migrations[len(Migrations)-1].Version, version)
}

func TestMigratorDownRollsBackLatest(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	m := NewMigrator(database, SQLite, zap.NewNop())
	_, err := m.Up(ctx)
	require.NoError(t, err)

	// index, moderators, then the response fields.
	for _, want := range []int64{20120301120500, 20120301120000, 20120221032404} {
		got, err := m.Down(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	cols := columns(t, database, "responses")
	assert.NotContains(t, cols, "body")
	assert.NotContains(t, cols, "author")
	assert.NotContains(t, cols, "post_id")

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, len(Migrations))
	assert.True(t, statuses[1].Applied)
	assert.False(t, statuses[2].Applied)

	// Re-applying brings the columns back.
	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{20120221032404, 20120301120000, 20120301120500}, applied)
	assert.Contains(t, columns(t, database, "responses"), "post_id")
}

func TestMigratorDownWithNothingApplied(t *testing.T) {
	m := NewMigrator(openTestDB(t), SQLite, zap.NewNop())
	_, err := m.Down(context.Background())
	assert.ErrorIs(t, err, ErrNoMigrations)
}

func TestMigratorPropagatesStorageErrors(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	// Adding columns to a table that does not exist must fail, not be swallowed.
	m := NewMigratorWith(database, SQLite, zap.NewNop(), Migrations[2:3])
	applied, err := m.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add_fields_to_response")
	assert.Empty(t, applied)

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, version, "failed migration must not be recorded")
}

func TestInitSchemaAndSeed(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	require.NoError(t, InitSchema(ctx, database, SQLite, zap.NewNop()))

	seed := Seed{ModeratorEmail: "mod@example.com", ModeratorPasswordHash: "hash"}
	require.NoError(t, SeedData(ctx, database, seed))
	require.NoError(t, SeedData(ctx, database, seed))

	var posts, moderators int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&posts))
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM moderators`).Scan(&moderators))
	assert.Equal(t, 1, posts)
	assert.Equal(t, 1, moderators)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)
	assert.Equal(t, "SERIAL PRIMARY KEY", Postgres.PrimaryKey())

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

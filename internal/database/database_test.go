package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/school_management/internal/config"
	"github.com/locvowork/school_management/internal/repository/builder"
)

func openTestDB(t *testing.T) (*sql.DB, Config) {
	t.Helper()
	cfg := Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "school.db"), QueryTimeout: time.Second}
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, cfg
}

func TestConfig_DataSourceName(t *testing.T) {
	testCases := map[string]struct {
		cfg  Config
		want string
	}{
		"postgres from parts": {
			cfg:  Config{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "school", SSLMode: "disable"},
			want: "host=db port=5432 user=u password=p dbname=school sslmode=disable",
		},
		"postgres explicit dsn": {
			cfg:  Config{Driver: "postgres", DSN: "postgres://u:p@db/school", Host: "ignored"},
			want: "postgres://u:p@db/school",
		},
		"sqlite default file": {
			cfg:  Config{Driver: "SQLite", DBName: "school"},
			want: "school.db?" + sqlitePragmas,
		},
		"sqlite dsn with options is kept": {
			cfg:  Config{Driver: "sqlite", DSN: "file:test.db?mode=memory"},
			want: "file:test.db?mode=memory",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.DataSourceName())
		})
	}
}

func TestDialect(t *testing.T) {
	assert.Equal(t, DialectSQLite, Config{Driver: "sqlite"}.Dialect())
	assert.Equal(t, DialectPostgres, Config{Driver: "postgres"}.Dialect())
	assert.Equal(t, DialectPostgres, Config{}.Dialect())
	assert.Equal(t, builder.Question, DialectSQLite.Placeholder())
	assert.Equal(t, builder.Dollar, DialectPostgres.Placeholder())
}

func TestConfigFromEnv(t *testing.T) {
	env := &config.EnvConfig{DB_DRIVER: "sqlite", DB_DSN: "x.db", DB_QUERY_TIMEOUT: 3 * time.Second, DB_MAX_OPEN_CONNS: 7}
	cfg := ConfigFromEnv(env)
	assert.Equal(t, DialectSQLite, cfg.Dialect())
	assert.Equal(t, "x.db", cfg.DSN)
	assert.Equal(t, 3*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 7, cfg.MaxOpenConns)
}

func TestProvider(t *testing.T) {
	db, cfg := openTestDB(t)
	p := NewProvider(db, cfg)
	ctx := context.Background()

	assert.Equal(t, DialectSQLite, p.Dialect())
	assert.Equal(t, time.Second, p.QueryTimeout())
	require.NoError(t, p.Ping(ctx))

	conn, err := p.Conn(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Equal(t, 5*time.Second, NewProvider(db, Config{Driver: "sqlite"}).QueryTimeout())
}

func TestMigrate(t *testing.T) {
	db, cfg := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db, cfg.Dialect()))
	// a second run is a no-op
	require.NoError(t, Migrate(ctx, db, cfg.Dialect()))

	version, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)

	_, err = db.Exec(`INSERT INTO teachers (teacherfname, teacherlname, employeenumber) VALUES ('a', 'b', 'T1')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO teachers (teacherfname, teacherlname, employeenumber) VALUES ('c', 'd', 'T1')`)
	assert.Error(t, err, "employee numbers are unique")
}

func TestSplitSQLStatements(t *testing.T) {
	stmts := splitSQLStatements(`
		-- comment
		CREATE TABLE a (
			id INTEGER
		);

		CREATE INDEX ix ON a (id);
		SELECT 1
	`)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.Equal(t, "CREATE INDEX ix ON a (id);", stmts[1])
	assert.Equal(t, "SELECT 1", stmts[2])
}

func TestDataSeeder(t *testing.T) {
	db, cfg := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, cfg.Dialect()))

	seeder := NewDataSeeder(db, cfg.Dialect()).WithSeed(42)

	stats, err := seeder.SeedData(ctx, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Courses)
	assert.Equal(t, 10, stats.Teachers)

	var first string
	require.NoError(t, db.QueryRow(`SELECT employeenumber FROM teachers ORDER BY teacherid LIMIT 1`).Scan(&first))
	assert.Equal(t, "T378", first)

	var assignments int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM teachers_courses`).Scan(&assignments))
	assert.Equal(t, stats.Assignments, assignments)

	// a second run continues the numbering
	_, err = seeder.SeedData(ctx, 0, 2)
	require.NoError(t, err)
	var last string
	require.NoError(t, db.QueryRow(`SELECT employeenumber FROM teachers ORDER BY teacherid DESC LIMIT 1`).Scan(&last))
	assert.Equal(t, "T389", last)

	require.NoError(t, seeder.ClearData(ctx))
	for _, table := range []string{"teachers", "courses", "teachers_courses"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestGetPresetConfig(t *testing.T) {
	courses, teachers := GetPresetConfig(PresetSmall)
	assert.Equal(t, 5, courses)
	assert.Equal(t, 10, teachers)

	courses, teachers = GetPresetConfig("unknown")
	assert.Equal(t, 10, courses)
	assert.Equal(t, 50, teachers)
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/locvowork/school_management/internal/logger"
	"github.com/locvowork/school_management/internal/repository/builder"
)

type migration struct {
	Version int
	Name    string
	// SQL per dialect
	Postgres string
	SQLite   string
}

func (m migration) statements(d Dialect) []string {
	if d == DialectSQLite {
		return splitSQLStatements(m.SQLite)
	}
	return splitSQLStatements(m.Postgres)
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Postgres: `
			CREATE TABLE IF NOT EXISTS teachers (
				teacherid SERIAL PRIMARY KEY,
				teacherfname VARCHAR(100) NOT NULL,
				teacherlname VARCHAR(100) NOT NULL,
				employeenumber VARCHAR(10) NOT NULL,
				hiredate DATE NULL,
				salary NUMERIC(10, 2) NULL,
				teacherworkphone VARCHAR(32) NULL
			);

			CREATE TABLE IF NOT EXISTS courses (
				courseid SERIAL PRIMARY KEY,
				coursename VARCHAR(200) NOT NULL,
				coursecode VARCHAR(20) NOT NULL
			);

			CREATE TABLE IF NOT EXISTS teachers_courses (
				teacherid INTEGER NOT NULL REFERENCES teachers(teacherid) ON DELETE CASCADE,
				courseid INTEGER NOT NULL REFERENCES courses(courseid) ON DELETE CASCADE,
				PRIMARY KEY (teacherid, courseid)
			);
		`,
		SQLite: `
			CREATE TABLE IF NOT EXISTS teachers (
				teacherid INTEGER PRIMARY KEY AUTOINCREMENT,
				teacherfname TEXT NOT NULL,
				teacherlname TEXT NOT NULL,
				employeenumber TEXT NOT NULL,
				hiredate DATE NULL,
				salary REAL NULL,
				teacherworkphone TEXT NULL
			);

			CREATE TABLE IF NOT EXISTS courses (
				courseid INTEGER PRIMARY KEY AUTOINCREMENT,
				coursename TEXT NOT NULL,
				coursecode TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS teachers_courses (
				teacherid INTEGER NOT NULL REFERENCES teachers(teacherid) ON DELETE CASCADE,
				courseid INTEGER NOT NULL REFERENCES courses(courseid) ON DELETE CASCADE,
				PRIMARY KEY (teacherid, courseid)
			);
		`,
	},
	{
		Version:  2,
		Name:     "unique_employee_number",
		Postgres: `CREATE UNIQUE INDEX IF NOT EXISTS ux_teachers_employeenumber ON teachers (employeenumber);`,
		SQLite:   `CREATE UNIQUE INDEX IF NOT EXISTS ux_teachers_employeenumber ON teachers (employeenumber);`,
	},
	{
		Version: 3,
		Name:    "hire_date_and_course_indexes",
		Postgres: `
			CREATE INDEX IF NOT EXISTS ix_teachers_hiredate ON teachers (hiredate);
			CREATE INDEX IF NOT EXISTS ix_teachers_courses_courseid ON teachers_courses (courseid);
		`,
		SQLite: `
			CREATE INDEX IF NOT EXISTS ix_teachers_hiredate ON teachers (hiredate);
			CREATE INDEX IF NOT EXISTS ix_teachers_courses_courseid ON teachers_courses (courseid);
		`,
	},
}

// LatestVersion is the schema version after all migrations ran.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// Migrate brings the schema up to date. Every migration runs in its own
// transaction and is recorded in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	logger.InfoLog(ctx, "Running database migrations")

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	logger.DebugLog(ctx, "current schema version %d", currentVersion)

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		logger.InfoLog(ctx, "Applying migration %d (%s)", m.Version, m.Name)

		err := withTx(ctx, db, func(tx *sql.Tx) error {
			for i, stmt := range m.statements(dialect) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d statement %d failed: %w", m.Version, i+1, err)
				}
			}

			query, args := builder.NewSQLBuilderWithFormat(dialect.Placeholder()).
				Insert("schema_migrations", "version").
				Values(m.Version).
				Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	logger.InfoLog(ctx, "Database migrations complete")
	return nil
}

// SchemaVersion returns the highest applied migration, 0 for a fresh store.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current migration version: %w", err)
	}
	return version, nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.ErrorLog(ctx, "Failed to rollback transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// splitSQLStatements splits a script on trailing semicolons, skipping blank
// lines and -- comments.
func splitSQLStatements(script string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}
	return statements
}

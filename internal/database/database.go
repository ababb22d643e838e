package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/school_management/internal/config"
	"github.com/locvowork/school_management/internal/logger"
	"github.com/locvowork/school_management/internal/repository/builder"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL store behind a connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Placeholder returns the bind marker format the dialect expects.
func (d Dialect) Placeholder() builder.PlaceholderFormat {
	if d == DialectSQLite {
		return builder.Question
	}
	return builder.Dollar
}

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

type Config struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// ConfigFromEnv maps the environment configuration onto a database Config.
func ConfigFromEnv(env *config.EnvConfig) Config {
	return Config{
		Driver:          env.DB_DRIVER,
		DSN:             env.DB_DSN,
		Host:            env.DB_HOST,
		Port:            env.DB_PORT,
		User:            env.DB_USER,
		Password:        env.DB_PASSWORD,
		DBName:          env.DB_NAME,
		SSLMode:         env.DB_SSL_MODE,
		MaxOpenConns:    env.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    env.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: env.DB_CONN_MAX_LIFETIME,
		QueryTimeout:    env.DB_QUERY_TIMEOUT,
	}
}

func (c Config) Dialect() Dialect {
	if strings.EqualFold(c.Driver, string(DialectSQLite)) {
		return DialectSQLite
	}
	return DialectPostgres
}

// DataSourceName returns the DSN handed to sql.Open. An explicit DSN wins over
// the individual connection parts.
func (c Config) DataSourceName() string {
	if c.Dialect() == DialectSQLite {
		dsn := c.DSN
		if dsn == "" {
			dsn = c.DBName + ".db"
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqlitePragmas
		}
		return dsn
	}

	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Open opens the configured store, applies pool limits and pings it.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dialect := cfg.Dialect()
	db, err := sql.Open(string(dialect), cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// a single writer keeps transactions from tripping over SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	logger.DebugLog(ctx, "database connection established (driver=%s)", dialect)
	return db, nil
}

// Provider hands out one connection per call. Callers must close the
// connection on every path.
type Provider struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
}

func NewProvider(db *sql.DB, cfg Config) *Provider {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Provider{db: db, dialect: cfg.Dialect(), timeout: timeout}
}

func (p *Provider) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

func (p *Provider) Dialect() Dialect {
	return p.dialect
}

// QueryTimeout is the upper bound applied to every repository call.
func (p *Provider) QueryTimeout() time.Duration {
	return p.timeout
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Provider) DB() *sql.DB {
	return p.db
}

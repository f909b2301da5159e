package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var ErrUnknownDriver = errors.New("unknown database driver")

type Config struct {
	Driver string
	// DSN is the driver-specific connection string. For sqlite it is a file path.
	DSN string
}

// Resolve builds a Config from explicit settings, falling back to the local
// sqlite file when driver is sqlite and no DSN is given.
func Resolve(driver, dsn string) Config {
	cfg := Config{Driver: strings.ToLower(strings.TrimSpace(driver)), DSN: dsn}
	if cfg.Driver == DriverSQLite && cfg.DSN == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		cfg.DSN = filepath.Join(home, ".advocatehub", "data.db")
	}
	return cfg
}

// DB wraps a *sql.DB together with the dialect it speaks.
type DB struct {
	*sql.DB
	Driver string
}

func EnsureDataDir(cfg Config) error {
	return os.MkdirAll(filepath.Dir(cfg.DSN), 0o755)
}

func Open(cfg Config) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DriverSQLite:
		if err := EnsureDataDir(cfg); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
		db, err = sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma journal_mode: %w", err)
		}
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(30 * time.Minute)
	case DriverMySQL:
		db, err = sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return &DB{DB: db, Driver: cfg.Driver}, nil
}

// Rebind rewrites '?' placeholders into the form the driver expects.
// Only postgres needs it ($1, $2, ...).
func (d *DB) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}
	var out strings.Builder
	out.Grow(len(query) + 8)
	idx := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(idx))
			idx++
			continue
		}
		out.WriteByte(query[i])
	}
	return out.String()
}

// TextCast returns an SQL expression casting col to a text type.
func (d *DB) TextCast(col string) string {
	if d.Driver == DriverMySQL {
		return "CAST(" + col + " AS CHAR)"
	}
	return "CAST(" + col + " AS TEXT)"
}

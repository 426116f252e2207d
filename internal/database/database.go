// Package database opens the PostgreSQL connection backing the full-text search index.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"prdapi/internal/config"
)

const (
	pingTimeout    = 5 * time.Second
	connectTimeout = 5 * time.Second
	appName        = "prd-index"
)

var ErrIncompleteConfig = errors.New("database config needs host, port, user and name")

var (
	sqlOpen = sql.Open

	driverOnce sync.Once
	driverName string
	driverErr  error
)

// DSN renders c as a postgres:// URL understood by pgx.
func DSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", ErrIncompleteConfig
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(c.User),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	q.Set("application_name", appName)
	q.Set("connect_timeout", strconv.Itoa(int(connectTimeout/time.Second)))
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// tracedDriver registers the otelsql-wrapped pgx driver once per process.
func tracedDriver() (string, error) {
	driverOnce.Do(func() {
		driverName, driverErr = otelsql.Register("pgx",
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithSQLCommenter(true),
		)
	})
	return driverName, driverErr
}

// NewPostgres opens a traced pool, applies pool limits and pings before returning.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}
	driver, err := tracedDriver()
	if err != nil {
		return nil, fmt.Errorf("register traced driver: %w", err)
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s@%s/%s: %w", c.User, c.Host, c.Name, err)
	}
	configurePool(db, c)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s:%s: %w", c.Host, c.Port, err)
	}
	return db, nil
}

func configurePool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		lifetime := time.Duration(c.ConnMaxLifetimeSec) * time.Second
		db.SetConnMaxLifetime(lifetime)
		db.SetConnMaxIdleTime(lifetime / 2)
	}
}

package sql

import (
	"database/sql"
	"time"
)

// config holds the pool settings applied by Open and Configure.
type config struct {
	// MaxOpenConns caps open connections. nil keeps the database/sql default (unlimited).
	MaxOpenConns *int

	// MaxIdleConns caps idle connections. nil keeps the database/sql default (2).
	MaxIdleConns *int

	// ConnMaxLifetime closes connections older than this. nil means no limit.
	ConnMaxLifetime *time.Duration

	// ConnMaxIdleTime closes connections idle longer than this. nil means no limit.
	ConnMaxIdleTime *time.Duration
}

// newConfig creates a new config and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Configure applies pool options to an already opened *sql.DB.
//
// Example:
//
//	sentinelsql.Configure(db,
//	    sentinelsql.WithMaxOpenConns(25),
//	    sentinelsql.WithConnMaxLifetime(time.Hour),
//	)
func Configure(db *sql.DB, opts ...Option) {
	newConfig(opts...).apply(db)
}

func (c *config) apply(db *sql.DB) {
	if c.MaxOpenConns != nil {
		db.SetMaxOpenConns(*c.MaxOpenConns)
	}
	if c.MaxIdleConns != nil {
		db.SetMaxIdleConns(*c.MaxIdleConns)
	}
	if c.ConnMaxLifetime != nil {
		db.SetConnMaxLifetime(*c.ConnMaxLifetime)
	}
	if c.ConnMaxIdleTime != nil {
		db.SetConnMaxIdleTime(*c.ConnMaxIdleTime)
	}
}

// Option configures the pool opened by Open.
type Option func(*config)

// WithMaxOpenConns sets the maximum number of open connections.
//
// Example:
//
//	conn, _ := sentinelsql.Open("postgres", dsn, dbtrace.Postgres,
//	    sentinelsql.WithMaxOpenConns(25),
//	)
func WithMaxOpenConns(n int) Option {
	return func(cfg *config) {
		cfg.MaxOpenConns = &n
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(cfg *config) {
		cfg.MaxIdleConns = &n
	}
}

// WithConnMaxLifetime sets how long a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(cfg *config) {
		cfg.ConnMaxLifetime = &d
	}
}

// WithConnMaxIdleTime sets how long a connection may sit idle.
func WithConnMaxIdleTime(d time.Duration) Option {
	return func(cfg *config) {
		cfg.ConnMaxIdleTime = &d
	}
}

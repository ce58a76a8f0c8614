package repository

import "github.com/okian/gameweek/pkg/logger"

// Option configures Open.
type Option func(*options)

type options struct {
	migrate      bool
	maxOpenConns int
	log          logger.Logger
}

// WithoutMigrations skips applying pending migrations on Open.
func WithoutMigrations() Option {
	return func(o *options) {
		o.migrate = false
	}
}

// WithMaxOpenConns caps the connection pool. SQLite is always pinned to one.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithLogger enables debug logging of every query.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

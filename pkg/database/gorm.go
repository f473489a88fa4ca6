package database

import (
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrEmptyDSN = errors.New("database connection string is empty")

type options struct {
	logLevel        logger.LogLevel
	maxIdleConns    int
	maxOpenConns    int
	connMaxLifetime time.Duration
}

type Option func(*options)

// WithSQLLogging logs every statement instead of only slow ones and errors
func WithSQLLogging(enabled bool) Option {
	return func(o *options) {
		if enabled {
			o.logLevel = logger.Info
		}
	}
}

func WithPool(maxIdle, maxOpen int, lifetime time.Duration) Option {
	return func(o *options) {
		o.maxIdleConns = maxIdle
		o.maxOpenConns = maxOpen
		o.connMaxLifetime = lifetime
	}
}

func getLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // embeddings stay out of the log
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB, o *options) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(o.maxIdleConns)
	sqlDB.SetMaxOpenConns(o.maxOpenConns)
	sqlDB.SetConnMaxLifetime(o.connMaxLifetime)

	return nil
}

// NewGormDBFromDSN opens a pooled postgres connection. The database must have the vector extension.
func NewGormDBFromDSN(dsn string, opts ...Option) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	o := &options{
		logLevel:        logger.Warn,
		maxIdleConns:    10,
		maxOpenConns:    100,
		connMaxLifetime: time.Hour,
	}
	for _, opt := range opts {
		opt(o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: getLogger(o.logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, o); err != nil {
		return nil, err
	}

	return db, nil
}

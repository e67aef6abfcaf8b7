package database

import (
	"context"
	"sync"

	"maintenance-service/pkg/config"

	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is a lazily-initialized database handle. The first caller of Get
// establishes the connection; concurrent callers await the same in-flight
// attempt via singleflight. A failed attempt is not cached, so the next
// caller retries.
type DB struct {
	cfg   *config.DatabaseConfig
	env   string
	group singleflight.Group

	mu     sync.RWMutex
	handle *gorm.DB
}

// New creates an unconnected handle. No connection is made until Get.
func New(cfg *config.DatabaseConfig, env string) *DB {
	return &DB{cfg: cfg, env: env}
}

// NewFromGorm wraps an already-open gorm connection. Used by tests and by
// callers that manage the connection themselves.
func NewFromGorm(gdb *gorm.DB) *DB {
	return &DB{handle: gdb}
}

func (d *DB) current() *gorm.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handle
}

// Get returns the gorm handle, connecting on first use.
func (d *DB) Get(ctx context.Context) (*gorm.DB, error) {
	if gdb := d.current(); gdb != nil {
		return gdb.WithContext(ctx), nil
	}

	v, err, _ := d.group.Do("connect", func() (interface{}, error) {
		if gdb := d.current(); gdb != nil {
			return gdb, nil
		}
		gdb, err := d.connect()
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.handle = gdb
		d.mu.Unlock()
		return gdb, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB).WithContext(ctx), nil
}

func (d *DB) connect() (*gorm.DB, error) {
	logLevel := logger.Error
	if d.env == "development" {
		logLevel = logger.Info
	}

	// Configure Postgres options
	pgConfig := postgres.Config{
		DSN:                  d.cfg.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ConnectTimeout)
	defer cancel()

	gdb, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	// Get generic database object SQL
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(d.cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(d.cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(d.cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(connectCtx); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate runs migrations for the provided models.
func (d *DB) Migrate(ctx context.Context, models ...interface{}) error {
	gdb, err := d.Get(ctx)
	if err != nil {
		return err
	}
	return gdb.AutoMigrate(models...)
}

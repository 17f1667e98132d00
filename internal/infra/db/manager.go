// Package db manages the PostgreSQL connection used by the repositories.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"contest-api/internal/domain/entity"
)

// ErrNotConfigured is returned when no DSN was supplied.
var ErrNotConfigured = errors.New("database DSN not configured")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	DSN             string
	ConnectTimeout  time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
// Serverless instances hold few connections each, so the pool is kept small.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:  5 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Manager owns the process-wide database handle.
//
// The handle is established on the first Init or Get and cached for later
// requests. Reset drops it so the next Get reconnects. Repositories receive the
// Manager explicitly instead of reaching for a package global.
type Manager struct {
	cfg     ConnectionConfig
	open    func(dsn string) (*sql.DB, error)
	migrate func(ctx context.Context, db *sql.DB) error
	logger  *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewManager creates a Manager that connects lazily with the pgx driver.
func NewManager(cfg ConnectionConfig, logger *slog.Logger) *Manager {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectionConfig().ConnectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		open:    func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) },
		migrate: MigrateUp,
		logger:  logger,
	}
}

// NewManagerWithDB wraps an already open handle. Migrations are not run.
func NewManagerWithDB(db *sql.DB) *Manager {
	return &Manager{
		cfg:    DefaultConnectionConfig(),
		logger: slog.Default(),
		db:     db,
	}
}

// Init establishes the connection now instead of on first use.
func (m *Manager) Init(ctx context.Context) error {
	_, err := m.Get(ctx)
	return err
}

// Get returns the cached handle, connecting first if necessary.
// Connection failures wrap entity.ErrDependencyUnavailable.
func (m *Manager) Get(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	db, err := m.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: connect database: %w", entity.ErrDependencyUnavailable, err)
	}
	m.db = db
	return db, nil
}

func (m *Manager) connect(ctx context.Context) (*sql.DB, error) {
	if m.cfg.DSN == "" {
		return nil, ErrNotConfigured
	}

	db, err := m.open(m.cfg.DSN)
	if err != nil {
		return nil, err
	}

	// Apply connection pool configuration
	if m.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(m.cfg.MaxOpenConns)
	}
	if m.cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(m.cfg.MaxIdleConns)
	}
	if m.cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(m.cfg.ConnMaxLifetime)
	}
	if m.cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(m.cfg.ConnMaxIdleTime)
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if m.migrate != nil {
		if err := m.migrate(pingCtx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	m.logger.Info("database connection established",
		slog.Int("max_open_conns", m.cfg.MaxOpenConns),
		slog.Int("max_idle_conns", m.cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", m.cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", m.cfg.ConnMaxIdleTime))
	return db, nil
}

// Reset closes and forgets the cached handle. The next Get reconnects.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

// Invalidate resets the manager when stale is still the cached handle and
// reports whether it did. Callers that saw a connection die pass the handle
// they used, so a burst of failures on one handle triggers a single reconnect.
func (m *Manager) Invalidate(stale *sql.DB) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stale == nil || m.db != stale {
		return false
	}
	if err := m.closeLocked(); err != nil {
		m.logger.Warn("closing dropped database handle", slog.Any("error", err))
	}
	m.logger.Warn("database handle dropped after connection loss; next call reconnects")
	return true
}

// Close releases the handle. It is safe to call more than once.
func (m *Manager) Close() error {
	return m.Reset()
}

func (m *Manager) closeLocked() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// Connected reports whether a handle is currently cached.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db != nil
}

// Ping verifies the cached handle, connecting first if necessary.
func (m *Manager) Ping(ctx context.Context) error {
	db, err := m.Get(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Stats returns pool statistics, or false when no handle is cached.
func (m *Manager) Stats() (sql.DBStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return sql.DBStats{}, false
	}
	return m.db.Stats(), true
}

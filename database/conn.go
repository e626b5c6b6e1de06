/*
 * Copyright 2025 the dbkit authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// Engine owns one configured database connection pool and the Bun
// handle built on top of it. The dialect is selected from the URL
// scheme: postgres://, mysql://, or sqlite:// (also the default for a
// bare file path).
type Engine struct {
	config    *Config
	db        *bun.DB
	sqlDB     *sql.DB
	logger    Logger
	mu        sync.RWMutex
	connected bool
	sqlite    bool
}

// NewEngine returns an unconnected engine. If config is nil, the
// default configuration (including environment overrides) is used.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{config: config, logger: GetLogger()}
}

// Connect opens the connection pool, configures it, installs query
// hooks, and verifies the connection with a ping. Calling Connect on
// a connected engine is a no-op.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.connected && e.db != nil {
		return nil
	}

	sqlDB, db, err := e.open()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	e.sqlDB = sqlDB
	e.db = db
	e.configurePool()

	timeout := e.config.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.db.PingContext(ctxTimeout); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	e.connected = true
	e.logger.Info("Database connected successfully:", "url", redactURL(e.config.URL))
	return nil
}

func (e *Engine) open() (*sql.DB, *bun.DB, error) {
	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	rawURL := e.config.URL
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		sqlDB, db, err = e.openPostgres(rawURL)
	case strings.HasPrefix(rawURL, "mysql://"):
		sqlDB, db, err = e.openMySQL(rawURL)
	default:
		sqlDB, db, err = e.openSQLite(rawURL)
	}
	if err != nil {
		return nil, nil, err
	}

	if e.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if e.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(e.config.SlowQueryTime, e.logger))
	}
	return sqlDB, db, nil
}

func (e *Engine) openPostgres(rawURL string) (*sql.DB, *bun.DB, error) {
	sqlDB, err := sql.Open("postgres", rawURL)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
}

func (e *Engine) openMySQL(rawURL string) (*sql.DB, *bun.DB, error) {
	// The mysql driver wants "user:pass@tcp(host:port)/db", not a URL.
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid mysql url: %w", err)
	}
	password, _ := u.User.Password()
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		u.User.Username(),
		password,
		u.Host,
		strings.TrimPrefix(u.Path, "/"),
	)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
}

func (e *Engine) openSQLite(rawURL string) (*sql.DB, *bun.DB, error) {
	dsn := strings.TrimPrefix(rawURL, "sqlite://")
	if dsn == "" {
		dsn = "database.db"
	}

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}
	e.sqlite = true
	return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func (e *Engine) configurePool() {
	if e.sqlDB == nil {
		return
	}
	if e.sqlite {
		// SQLite allows a single writer per database file; funnel the
		// whole pool through one connection.
		e.sqlDB.SetMaxOpenConns(1)
		return
	}
	e.sqlDB.SetMaxIdleConns(e.config.MaxIdleConns)
	e.sqlDB.SetMaxOpenConns(e.config.MaxOpenConns)
	e.sqlDB.SetConnMaxLifetime(e.config.ConnMaxLifetime)
	e.sqlDB.SetConnMaxIdleTime(e.config.ConnMaxIdleTime)
}

// DB returns the Bun handle, or nil before Connect.
func (e *Engine) DB() *bun.DB {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db
}

// SQLDB returns the raw database/sql pool, or nil before Connect.
func (e *Engine) SQLDB() *sql.DB {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sqlDB
}

// Ping verifies the connection is alive.
func (e *Engine) Ping(ctx context.Context) error {
	e.mu.RLock()
	db := e.db
	e.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

// Stats reports connection pool statistics.
func (e *Engine) Stats() *DBStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.sqlDB == nil {
		return &DBStats{}
	}
	s := e.sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

// Close disposes the connection pool.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	e.sqlDB = nil
	e.connected = false

	if err != nil {
		e.logger.Error("Failed to close database connection", "error", err)
	} else {
		e.logger.Info("Database connection closed")
	}
	return err
}

// DBStats mirrors database/sql pool statistics.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	u.User = url.User(u.User.Username())
	return u.String()
}

var (
	globalEngine *Engine
	globalMu     sync.Mutex
)

// InitDB connects the global engine using the provided configuration
// and returns the Bun handle.
func InitDB(ctx context.Context, cfg *Config) (*bun.DB, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalEngine != nil {
		return globalEngine.DB(), nil
	}

	engine := NewEngine(cfg)
	if err := engine.Connect(ctx); err != nil {
		return nil, err
	}
	globalEngine = engine
	return engine.DB(), nil
}

// GetDB returns the global Bun database instance, or nil before InitDB.
func GetDB() *bun.DB {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalEngine == nil {
		return nil
	}
	return globalEngine.DB()
}

// GetEngine returns the global engine, or nil before InitDB.
func GetEngine() *Engine {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalEngine
}

// CloseDB closes the global database connection.
func CloseDB() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalEngine == nil {
		return nil
	}
	err := globalEngine.Close()
	globalEngine = nil
	return err
}

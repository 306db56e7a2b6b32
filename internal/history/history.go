// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package history keeps a trail of synchronization runs in a SQL database.
// SQLite is the default backend; PostgreSQL and MySQL are supported through
// the same bun models.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/toeirei/keysync/internal/keysync"

	// SQL drivers selectable through history.type.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DefaultType and DefaultDSN select an on-disk SQLite database.
const (
	DefaultType = "sqlite"
	DefaultDSN  = "/var/lib/keysync/history.db"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// runModel maps the sync_runs table.
type runModel struct {
	bun.BaseModel `bun:"table:sync_runs"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Username      string    `bun:"username,notnull"`
	SourceURL     string    `bun:"source_url,notnull"`
	State         string    `bun:"state,notnull"`
	FailedIn      string    `bun:"failed_in"`
	Added         int       `bun:"added"`
	Error         string    `bun:"error"`
	StartedAt     time.Time `bun:"started_at,notnull"`
	DurationMS    int64     `bun:"duration_ms"`
}

// Run is one recorded synchronization.
type Run struct {
	ID        int64
	User      string
	SourceURL string
	State     keysync.State
	FailedIn  keysync.State
	Added     int
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Store records outcomes and lists them back. It satisfies keysync.Recorder.
type Store struct {
	bun *bun.DB
}

// Open connects to the database of the given type ("sqlite", "postgres" or
// "mysql") and creates the sync_runs table when it is missing.
func Open(ctx context.Context, dbType, dsn string) (*Store, error) {
	driverName := dbType
	switch dbType {
	case "sqlite", "mysql":
	case "postgres":
		// The pgx stdlib registers driver name "pgx".
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported history database type: %q", dbType)
	}

	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// In-memory SQLite databases exist per connection.
	if dbType == "sqlite" && dsn == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	s := &Store{bun: createBunDB(sqlDB, dbType)}
	if err := s.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to prepare history table: %w", err)
	}
	return s, nil
}

func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.bun.NewCreateTable().Model((*runModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Record stores one outcome.
func (s *Store) Record(ctx context.Context, o keysync.Outcome) error {
	m := &runModel{
		Username:   o.User,
		SourceURL:  o.SourceURL,
		State:      string(o.State),
		FailedIn:   string(o.FailedIn),
		Added:      o.Added,
		StartedAt:  o.StartedAt.UTC(),
		DurationMS: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		m.Error = o.Err.Error()
	}
	if _, err := s.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("record sync run for %s: %w", o.User, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	var rows []runModel
	q := s.bun.NewSelect().Model(&rows).OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, Run{
			ID:        r.ID,
			User:      r.Username,
			SourceURL: r.SourceURL,
			State:     keysync.State(r.State),
			FailedIn:  keysync.State(r.FailedIn),
			Added:     r.Added,
			Error:     r.Error,
			StartedAt: r.StartedAt,
			Duration:  time.Duration(r.DurationMS) * time.Millisecond,
		})
	}
	return runs, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.bun.Close()
}

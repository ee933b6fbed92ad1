// Package postgres implements the state store against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/config"
	"github.com/pbrinkmeier/hoff/internal/entities"
)

const (
	selectStateQuery = `SELECT state FROM project_state WHERE project=$1`
	upsertStateQuery = `INSERT INTO project_state(project, state, updated_at) VALUES ($1,$2,NOW())
		ON CONFLICT (project) DO UPDATE SET state=EXCLUDED.state, updated_at=NOW()`
)

// DB wraps a pgx pool shared by all project stores.
type DB struct {
	baseCtx context.Context
	log     *zap.SugaredLogger
	db      *pgxpool.Pool
	cfg     config.PostgresConfig
}

// New creates a database handle. OnStart connects and migrates.
func New(ctx context.Context, log *zap.SugaredLogger, cfg config.PostgresConfig) *DB {
	return &DB{
		baseCtx: ctx,
		log:     log.Named("repo.postgres"),
		cfg:     cfg,
	}
}

// OnStart establishes connection pool and applies migrations.
func (p *DB) OnStart(_ context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(p.cfg.DSN())
	if err != nil {
		return fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = p.cfg.MaxConns
	poolCfg.MinConns = p.cfg.MinConns

	connectCtx, cancelConnect := context.WithTimeout(p.baseCtx, p.cfg.QueryTimeout)
	defer cancelConnect()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		return fmt.Errorf("ping pool: %w", err)
	}

	sqlDB, err := sql.Open("postgres", p.cfg.DSN())
	if err != nil {
		return fmt.Errorf("open sql: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	migrateCtx, cancelMigrate := context.WithTimeout(p.baseCtx, p.cfg.MigrateTimeout)
	defer cancelMigrate()

	if err := goose.UpContext(migrateCtx, sqlDB, p.cfg.MigrationsDir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := goose.EnsureDBVersion(sqlDB); err != nil {
		return fmt.Errorf("migrate version: %w", err)
	}

	p.db = pool
	p.log.Infow("postgres ready", "host", p.cfg.Host, "port", p.cfg.Port)
	return nil
}

// OnStop closes pool connections.
func (p *DB) OnStop(_ context.Context) error {
	if p.db != nil {
		p.db.Close()
	}
	return nil
}

// Store returns the state store of one project.
func (p *DB) Store(project string) *Store {
	return &Store{
		project: project,
		db:      p,
		log:     p.log.With("project", project),
	}
}

// Store persists one project's state as a single JSONB row; the upsert
// replaces the snapshot atomically.
type Store struct {
	project string
	db      *DB
	log     *zap.SugaredLogger
}

// Load implements repository.StateStore. A missing row yields the empty
// state; an undecodable one fails with ErrStateCorrupt so the operator can
// quiesce, delete the row and restart.
func (s *Store) Load(ctx context.Context) (entities.ProjectState, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var raw []byte
	if err := s.db.db.QueryRow(ctx, selectStateQuery, s.project).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.log.Infow("no state row yet, starting empty")
			return entities.ProjectState{}, nil
		}
		return entities.ProjectState{}, fmt.Errorf("select state: %w", err)
	}

	var state entities.ProjectState
	if err := json.Unmarshal(raw, &state); err != nil {
		return entities.ProjectState{}, fmt.Errorf("%w: project %s: %v", entities.ErrStateCorrupt, s.project, err)
	}
	return state, nil
}

// Save implements repository.StateStore.
func (s *Store) Save(ctx context.Context, state entities.ProjectState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	if _, err := s.db.db.Exec(ctx, upsertStateQuery, s.project, raw); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (s *Store) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.db.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.db.cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

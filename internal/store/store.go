// Package store persists generated layouts in PostgreSQL so a city can be
// replayed exactly.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"snowcity/internal/layout"
	"snowcity/internal/store/migrations"
)

// ErrNotFound is returned when a layout id does not exist.
var ErrNotFound = errors.New("store: layout not found")

// Layout is one stored generation run.
type Layout struct {
	ID         int64
	Seed       uint64
	Config     json.RawMessage
	Placements []layout.Placement
	CreatedAt  time.Time
}

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and returns a Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: pinging: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("store: opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("store: setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("store: running migrations: %w", err)
	}
	return nil
}

// Save inserts the layout and its placements in one transaction and
// returns the new id.
func (s *Store) Save(ctx context.Context, l *Layout) (int64, error) {
	cfg := l.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO layouts (seed, config) VALUES ($1, $2) RETURNING id`,
		int64(l.Seed), []byte(cfg),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: inserting layout: %w", err)
	}

	rows := make([][]any, len(l.Placements))
	for i, p := range l.Placements {
		rows[i] = []any{id, i, p.ModelRef, p.CellX, p.CellZ, p.Position[0], p.Position[1], p.Position[2], p.RotationY, p.Center[0], p.Center[2]}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"placements"},
		[]string{"layout_id", "idx", "model", "cell_x", "cell_z", "x", "y", "z", "rotation_y", "center_x", "center_z"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("store: copying placements: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	slog.Info("layout stored", "id", id, "seed", l.Seed, "placements", len(l.Placements))
	return id, nil
}

// Get loads a stored layout with its placements in generation order.
func (s *Store) Get(ctx context.Context, id int64) (*Layout, error) {
	l := &Layout{ID: id}
	var seed int64
	var cfg []byte
	err := s.pool.QueryRow(ctx,
		`SELECT seed, config, created_at FROM layouts WHERE id = $1`, id,
	).Scan(&seed, &cfg, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: layout %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: querying layout %d: %w", id, err)
	}
	l.Seed = uint64(seed)
	l.Config = cfg

	rows, err := s.pool.Query(ctx,
		`SELECT model, cell_x, cell_z, x, y, z, rotation_y, center_x, center_z
		 FROM placements WHERE layout_id = $1 ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("store: querying placements %d: %w", id, err)
	}
	l.Placements, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (layout.Placement, error) {
		var p layout.Placement
		err := row.Scan(&p.ModelRef, &p.CellX, &p.CellZ, &p.Position[0], &p.Position[1], &p.Position[2], &p.RotationY, &p.Center[0], &p.Center[2])
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("store: scanning placements %d: %w", id, err)
	}
	return l, nil
}

// Latest returns the id of the most recent layout.
func (s *Store) Latest(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM layouts ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: querying latest layout: %w", err)
	}
	return id, nil
}

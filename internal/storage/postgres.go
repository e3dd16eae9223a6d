package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bonus-promotion-service/internal/config"
)

// Promotion kinds. LIST promotions enumerate their bonus products on the
// basket's bonus discount line; RULE promotions are resolved through the
// product-qualification query.
const (
	KindList = "LIST"
	KindRule = "RULE"
)

type Store struct {
	pool *pgxpool.Pool
}

type PromotionRow struct {
	ID     string
	Name   string
	Kind   string
	Status string
}

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadActivePromotions loads all active promotion definitions.
func (s *Store) LoadActivePromotions(ctx context.Context) ([]PromotionRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, kind, status
		FROM promotions
		WHERE status = 'ACTIVE'
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	var out []PromotionRow
	for rows.Next() {
		var p PromotionRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Kind, &p.Status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// UpsertPromotions writes promotion definitions in one transaction and
// notifies the refresh channel so running instances pick them up.
func (s *Store) UpsertPromotions(ctx context.Context, channel string, promos []PromotionRow) error {
	if len(promos) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, p := range promos {
			_, err := tx.Exec(ctx, `
				INSERT INTO promotions (id, name, kind, status)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name, kind = EXCLUDED.kind, status = EXCLUDED.status
			`, p.ID, p.Name, p.Kind, p.Status)
			if err != nil {
				return fmt.Errorf("upsert promotion %s: %w", p.ID, err)
			}
		}
		_, err := tx.Exec(ctx, "SELECT pg_notify($1, 'promotions upserted')", channel)
		return err
	})
}

func (s *Store) ListenChannel() string {
	return "promo_data_change"
}

func (s *Store) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/config"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(cfg *config.PostgreSQLConfig) (*PostgresRepository, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d pool_min_conns=%d",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxConns,
		cfg.MinConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// IntervalsOverlapping returns usage intervals whose lifetime intersects
// [lower, upper). A nil lower bound means no lower bound: one query serves
// both cases through a nullable parameter instead of two query variants.
// Still-open intervals (stop IS NULL) count as extending indefinitely.
func (r *PostgresRepository) IntervalsOverlapping(ctx context.Context, lower *time.Time, upper time.Time) ([]models.UsageInterval, error) {
	query := `
		SELECT node_id, start_ts, stop_ts, cpu_cores, ram_mb, gpu_class_id, fee
		FROM usage_intervals
		WHERE start_ts < $1
		  AND ($2::timestamptz IS NULL OR stop_ts IS NULL OR stop_ts > $2)
		ORDER BY start_ts ASC
	`

	rows, err := r.pool.Query(ctx, query, upper, lower)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage intervals: %w", err)
	}
	defer rows.Close()

	var intervals []models.UsageInterval
	for rows.Next() {
		var iv models.UsageInterval
		if err := rows.Scan(
			&iv.NodeID,
			&iv.Start,
			&iv.Stop,
			&iv.CPUCores,
			&iv.RAMMB,
			&iv.GpuClassID,
			&iv.Fee,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage interval row: %w", err)
		}
		intervals = append(intervals, iv)
	}

	return intervals, rows.Err()
}

// EarliestIntervalStart returns the start of the oldest recorded interval,
// or the zero time when the store is empty.
func (r *PostgresRepository) EarliestIntervalStart(ctx context.Context) (time.Time, error) {
	query := `SELECT min(start_ts) FROM usage_intervals`

	var earliest *time.Time
	if err := r.pool.QueryRow(ctx, query).Scan(&earliest); err != nil {
		return time.Time{}, fmt.Errorf("failed to query earliest interval: %w", err)
	}
	if earliest == nil {
		return time.Time{}, nil
	}
	return *earliest, nil
}

// GpuClasses returns the full GPU-class catalog for the in-memory lookup.
func (r *PostgresRepository) GpuClasses(ctx context.Context) ([]models.GpuClass, error) {
	query := `SELECT id, name, vram_gb FROM gpu_classes ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query gpu classes: %w", err)
	}
	defer rows.Close()

	var classes []models.GpuClass
	for rows.Next() {
		var c models.GpuClass
		if err := rows.Scan(&c.ID, &c.Name, &c.VRAMGB); err != nil {
			return nil, fmt.Errorf("failed to scan gpu class row: %w", err)
		}
		classes = append(classes, c)
	}

	return classes, rows.Err()
}

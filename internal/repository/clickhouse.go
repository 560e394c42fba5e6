package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/config"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

type ClickHouseRepository struct {
	conn driver.Conn
}

func NewClickHouseRepository(cfg *config.ClickHouseConfig) (*ClickHouseRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return &ClickHouseRepository{conn: conn}, nil
}

func (r *ClickHouseRepository) Close() error {
	return r.conn.Close()
}

func (r *ClickHouseRepository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

// TransactionsBetween returns on-chain payments with ts in [from, to),
// ascending. Per-bucket rollup happens in the aggregation core; this query
// stays a plain row scan.
func (r *ClickHouseRepository) TransactionsBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ts, tx_type, amount
		FROM chain_transactions
		WHERE ts >= ?
		  AND ts < ?
		ORDER BY ts ASC
	`

	rows, err := r.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.Timestamp, &tx.TxType, &tx.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

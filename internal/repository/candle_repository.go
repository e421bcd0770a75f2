package repository

import (
	"context"
	"time"

	"chanscope/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CandleRepository is the candle store adapter: it persists raw OHLCV
// rows and serves time-ascending ranges to the analysis pipeline.
type CandleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewCandleRepository(pool PgxPool, tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{pool: pool, tracer: tracer}
}

func (r *CandleRepository) RunMigrations(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS candles (
		     symbol TEXT NOT NULL,
		     level TEXT NOT NULL,
		     open_time TIMESTAMPTZ NOT NULL,
		     open DOUBLE PRECISION NOT NULL,
		     high DOUBLE PRECISION NOT NULL,
		     low DOUBLE PRECISION NOT NULL,
		     close DOUBLE PRECISION NOT NULL,
		     volume DOUBLE PRECISION NOT NULL,
		     PRIMARY KEY (symbol, level, open_time)
		 )`)
	return err
}

func (r *CandleRepository) UpsertCandles(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "candle-repo.upsert-candles")
	defer span.End()

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(
			`INSERT INTO candles (symbol, level, open_time, open, high, low, close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (symbol, level, open_time) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume`,
			c.Symbol, string(c.Level), c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range candles {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetCandleRange returns candles sorted ascending by open time. No rows
// is an empty slice, not an error.
func (r *CandleRepository) GetCandleRange(ctx context.Context, symbol string, level domain.TimeLevel, from, to time.Time) ([]domain.Candle, error) {
	_, span := r.tracer.Start(ctx, "candle-repo.get-candle-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, level, open_time, open, high, low, close, volume
		 FROM candles
		 WHERE symbol = $1 AND level = $2 AND open_time >= $3 AND open_time <= $4
		 ORDER BY open_time ASC`,
		symbol, string(level), from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		var lvl string
		if err := rows.Scan(&c.Symbol, &lvl, &c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.Level = domain.TimeLevel(lvl)
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

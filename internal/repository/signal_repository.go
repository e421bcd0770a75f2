package repository

import (
	"context"
	"fmt"
	"strings"

	"chanscope/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: pool, tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS trading_signals (
		     id BIGSERIAL PRIMARY KEY,
		     symbol TEXT NOT NULL,
		     side TEXT NOT NULL,
		     point TEXT NOT NULL,
		     level TEXT NOT NULL,
		     timestamp TIMESTAMPTZ NOT NULL,
		     price DOUBLE PRECISION NOT NULL,
		     strength DOUBLE PRECISION NOT NULL,
		     confidence DOUBLE PRECISION NOT NULL,
		     description TEXT NOT NULL DEFAULT '',
		     supporting_levels TEXT[] NOT NULL DEFAULT '{}',
		     UNIQUE (symbol, side, point, level, timestamp)
		 )`)
	return err
}

func (r *SignalRepository) InsertSignals(ctx context.Context, signals []domain.TradingSignal) ([]domain.TradingSignal, error) {
	if len(signals) == 0 {
		return nil, nil
	}

	_, span := r.tracer.Start(ctx, "signal-repo.insert-signals")
	defer span.End()

	batch := &pgx.Batch{}
	for _, s := range signals {
		supporting := make([]string, 0, len(s.SupportingLevels))
		for _, l := range s.SupportingLevels {
			supporting = append(supporting, string(l))
		}
		batch.Queue(
			`INSERT INTO trading_signals (symbol, side, point, level, timestamp, price, strength, confidence, description, supporting_levels)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (symbol, side, point, level, timestamp) DO UPDATE SET
			     price = EXCLUDED.price,
			     strength = EXCLUDED.strength,
			     confidence = EXCLUDED.confidence,
			     description = EXCLUDED.description,
			     supporting_levels = EXCLUDED.supporting_levels
			 RETURNING id`,
			s.Symbol,
			string(s.Side),
			string(s.Point),
			string(s.Level),
			s.Timestamp.UTC(),
			s.Price,
			s.Strength,
			s.Confidence,
			s.Description,
			supporting,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	out := make([]domain.TradingSignal, len(signals))
	copy(out, signals)
	for i := range signals {
		var id int64
		if err := br.QueryRow().Scan(&id); err != nil {
			return nil, err
		}
		out[i].ID = id
	}
	return out, nil
}

func (r *SignalRepository) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.TradingSignal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.list-signals")
	defer span.End()

	args := make([]any, 0, 4)
	var sb strings.Builder
	sb.WriteString(
		`SELECT id, symbol, side, point, level, timestamp, price, strength, confidence, description, supporting_levels
		 FROM trading_signals
		 WHERE 1=1`)

	if filter.Symbol != "" {
		args = append(args, strings.ToUpper(filter.Symbol))
		sb.WriteString(fmt.Sprintf(" AND symbol = $%d", len(args)))
	}
	if filter.Side != "" {
		args = append(args, string(filter.Side))
		sb.WriteString(fmt.Sprintf(" AND side = $%d", len(args)))
	}
	if filter.Level != "" {
		args = append(args, string(filter.Level))
		sb.WriteString(fmt.Sprintf(" AND level = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.TradingSignal
	for rows.Next() {
		var (
			s          domain.TradingSignal
			side       string
			point      string
			level      string
			supporting []string
		)
		if err := rows.Scan(&s.ID, &s.Symbol, &side, &point, &level, &s.Timestamp, &s.Price, &s.Strength, &s.Confidence, &s.Description, &supporting); err != nil {
			return nil, err
		}
		s.Side = domain.SignalSide(side)
		s.Point = domain.SignalPoint(point)
		s.Level = domain.TimeLevel(level)
		for _, l := range supporting {
			s.SupportingLevels = append(s.SupportingLevels, domain.TimeLevel(l))
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chanscope/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

func TestUpsertCandlesBatchesStatements(t *testing.T) {
	batchResults := &stubBatchResults{}
	pool := &stubPool{batchResults: batchResults}
	repo := NewCandleRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	candles := []domain.Candle{
		{Symbol: "AAPL", Level: domain.LevelDaily, OpenTime: time.Unix(0, 0)},
		{Symbol: "AAPL", Level: domain.LevelDaily, OpenTime: time.Unix(86400, 0)},
	}
	if err := repo.UpsertCandles(context.Background(), candles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.queuedBatch == nil || pool.queuedBatch.Len() != len(candles) {
		t.Fatalf("expected batch of size %d", len(candles))
	}
	if batchResults.execCalls != len(candles) {
		t.Fatalf("expected %d Exec calls, got %d", len(candles), batchResults.execCalls)
	}
}

func TestUpsertCandlesEmptySkipsBatch(t *testing.T) {
	pool := &stubPool{}
	repo := NewCandleRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.UpsertCandles(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.queuedBatch != nil {
		t.Fatal("expected no batch for empty input")
	}
}

func TestGetCandleRangeReturnsRows(t *testing.T) {
	rows := [][]any{{
		"AAPL", "daily", time.Unix(0, 0), 100.0, 110.0, 95.0, 105.0, 1000.0,
	}}
	pool := &stubPool{rowsData: rows}
	repo := NewCandleRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	candles, err := repo.GetCandleRange(context.Background(), "AAPL", domain.LevelDaily, time.Unix(0, 0), time.Unix(86400, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 || candles[0].Symbol != "AAPL" {
		t.Fatalf("unexpected candles: %+v", candles)
	}
	if candles[0].Level != domain.LevelDaily {
		t.Fatalf("expected daily level, got %q", candles[0].Level)
	}
	if candles[0].High != 110.0 || candles[0].Low != 95.0 {
		t.Fatalf("unexpected range: %+v", candles[0])
	}
}

func TestGetCandleRangeEmptyIsNotError(t *testing.T) {
	pool := &stubPool{}
	repo := NewCandleRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	candles, err := repo.GetCandleRange(context.Background(), "AAPL", domain.Level5Min, time.Unix(0, 0), time.Unix(300, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 0 {
		t.Fatalf("expected no candles, got %+v", candles)
	}
}

type stubPool struct {
	batchResults pgx.BatchResults
	queuedBatch  *pgx.Batch
	rowsData     [][]any
}

func (s *stubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	s.queuedBatch = b
	if s.batchResults != nil {
		return s.batchResults
	}
	return &stubBatchResults{}
}

func (s *stubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.rowsData == nil {
		return &stubRows{}, nil
	}
	dataCopy := make([][]any, len(s.rowsData))
	for i := range s.rowsData {
		row := make([]any, len(s.rowsData[i]))
		copy(row, s.rowsData[i])
		dataCopy[i] = row
	}
	return &stubRows{data: dataCopy}, nil
}

func (s *stubPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &stubRow{}
}

type stubBatchResults struct {
	execCalls int
	nextID    int64
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) {
	s.execCalls++
	return pgconn.CommandTag{}, nil
}

func (s *stubBatchResults) Query() (pgx.Rows, error) { return &stubRows{}, nil }

func (s *stubBatchResults) QueryRow() pgx.Row {
	s.nextID++
	return &stubRow{id: s.nextID}
}

func (s *stubBatchResults) Close() error { return nil }

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close() {}

func (r *stubRows) Err() error { return nil }

func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *stubRows) Next() bool {
	if len(r.data) == 0 || r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return fmt.Errorf("invalid scan index")
	}
	row := r.data[r.idx-1]
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = row[i].(string)
		case *time.Time:
			*ptr = row[i].(time.Time)
		case *float64:
			*ptr = row[i].(float64)
		case *int64:
			*ptr = row[i].(int64)
		case *[]string:
			*ptr = row[i].([]string)
		default:
			return fmt.Errorf("unsupported dest type %T", d)
		}
	}
	return nil
}

func (r *stubRows) Values() ([]any, error) { return nil, nil }

func (r *stubRows) RawValues() [][]byte { return nil }

func (r *stubRows) Conn() *pgx.Conn { return nil }

type stubRow struct {
	id int64
}

func (r *stubRow) Scan(dest ...any) error {
	if len(dest) == 1 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.id
		}
	}
	return nil
}

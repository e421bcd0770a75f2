package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"chanscope/internal/domain"
	"chanscope/internal/mapping"
	"chanscope/internal/structure"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPivotWindow   = 3
	defaultBatchWidth    = 5
	defaultLookbackHours = 24 * 120
)

// CandleSource is the narrow read interface over the candle store. An
// empty slice means "no data", never an error.
type CandleSource interface {
	GetCandleRange(ctx context.Context, symbol string, level domain.TimeLevel, from, to time.Time) ([]domain.Candle, error)
}

// SignalStore persists emitted trading signals.
type SignalStore interface {
	InsertSignals(ctx context.Context, signals []domain.TradingSignal) ([]domain.TradingSignal, error)
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.TradingSignal, error)
}

// SignalEngine synthesizes trading signals from per-level structures.
type SignalEngine interface {
	Synthesize(levels map[domain.TimeLevel]*domain.LevelStructure) []domain.TradingSignal
}

// ResultCache collapses concurrent computations per key and stores
// finished results with a TTL.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key string, compute func() (*domain.AnalysisResult, error)) (*domain.AnalysisResult, error)
}

type AnalysisService struct {
	tracer      trace.Tracer
	source      CandleSource
	signalRepo  SignalStore
	engine      SignalEngine
	cache       ResultCache
	pivotWindow int
	batchWidth  int
	now         func() time.Time
}

type AnalysisOption func(*AnalysisService)

func WithPivotWindow(window int) AnalysisOption {
	return func(s *AnalysisService) {
		if window >= 2 {
			s.pivotWindow = window
		}
	}
}

func WithBatchWidth(width int) AnalysisOption {
	return func(s *AnalysisService) {
		if width > 0 {
			s.batchWidth = width
		}
	}
}

func WithSignalStore(repo SignalStore) AnalysisOption {
	return func(s *AnalysisService) { s.signalRepo = repo }
}

func WithResultCache(cache ResultCache) AnalysisOption {
	return func(s *AnalysisService) { s.cache = cache }
}

func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAnalysisService(tracer trace.Tracer, source CandleSource, engine SignalEngine, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		tracer:      tracer,
		source:      source,
		engine:      engine,
		pivotWindow: defaultPivotWindow,
		batchWidth:  defaultBatchWidth,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeSymbol runs the full multi-level analysis for one symbol: every
// level's structural pipeline in parallel, then the cross-level stages
// once all levels have settled. A level whose fetch fails is logged and
// excluded; only a symbol with no usable levels at all degrades the
// result to "no data".
func (s *AnalysisService) AnalyzeSymbol(ctx context.Context, symbol string, levels []domain.TimeLevel, from, to time.Time) (*domain.AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-symbol")
	defer span.End()

	if s.source == nil || s.engine == nil {
		return nil, fmt.Errorf("analysis service is not fully initialized")
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if len(levels) == 0 {
		levels = domain.AnalysisLevels
	}
	for _, level := range levels {
		if !level.IsValid() {
			return nil, fmt.Errorf("unsupported level: %s", level)
		}
	}
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultLookbackHours * time.Hour)
	}

	if s.cache == nil {
		return s.analyze(ctx, symbol, levels, from, to)
	}
	key := cacheKey(symbol, levels, from, to)
	return s.cache.GetOrCompute(ctx, key, func() (*domain.AnalysisResult, error) {
		return s.analyze(ctx, symbol, levels, from, to)
	})
}

func (s *AnalysisService) analyze(ctx context.Context, symbol string, levels []domain.TimeLevel, from, to time.Time) (*domain.AnalysisResult, error) {
	result := &domain.AnalysisResult{
		Symbol:      symbol,
		GeneratedAt: s.now().UTC(),
		Levels:      make(map[domain.TimeLevel]*domain.LevelStructure, len(levels)),
	}

	// Per-level fan-out; the WaitGroup is the barrier before any
	// cross-level stage runs.
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		fetched int
	)
	for _, level := range levels {
		wg.Add(1)
		go func(level domain.TimeLevel) {
			defer wg.Done()
			candles, err := s.source.GetCandleRange(ctx, symbol, level, from, to)
			if err != nil {
				log.Printf("candle fetch failed for %s %s: %v", symbol, level, err)
				return
			}
			ls := structure.BuildLevelStructure(symbol, level, candles, s.pivotWindow)
			mu.Lock()
			defer mu.Unlock()
			fetched++
			if ls.CandleCount > 0 {
				result.Levels[level] = ls
			}
		}(level)
	}
	wg.Wait()

	if fetched == 0 {
		return nil, fmt.Errorf("candle source unavailable for %s", symbol)
	}

	result.Mappings = mapping.AnalyzePairs(result.Levels)
	result.Inheritances = mapping.AnalyzeAllInheritance(result.Levels)
	result.Signals = s.engine.Synthesize(result.Levels)
	for i := range result.Signals {
		result.Signals[i].Symbol = symbol
	}

	result.Success = true
	result.DataQuality = float64(len(result.Levels)) / float64(len(levels))
	switch {
	case len(result.Levels) == 0:
		result.Assessment = "no data"
	case len(result.Levels) < len(levels):
		result.Assessment = "partial data"
	default:
		result.Assessment = "complete"
	}

	if s.signalRepo != nil && len(result.Signals) > 0 {
		persisted, err := s.signalRepo.InsertSignals(ctx, result.Signals)
		if err != nil {
			log.Printf("persist signals for %s: %v", symbol, err)
		} else {
			result.Signals = persisted
		}
	}
	return result, nil
}

// BatchResult pairs one symbol of a batch run with its outcome.
type BatchResult struct {
	Symbol string
	Result *domain.AnalysisResult
	Err    error
}

// AnalyzeBatch analyzes symbols concurrently, at most batchWidth at a
// time. Failures are collected per symbol, never aborting siblings.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, symbols []string, levels []domain.TimeLevel, from, to time.Time) []BatchResult {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-batch")
	defer span.End()

	results := make([]BatchResult, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWidth)
	for i, symbol := range symbols {
		g.Go(func() error {
			res, err := s.AnalyzeSymbol(ctx, symbol, levels, from, to)
			results[i] = BatchResult{Symbol: symbol, Result: res, Err: err}
			return nil
		})
	}
	// Goroutines always return nil; Wait only serves as the barrier.
	_ = g.Wait()
	return results
}

// ListSignals returns persisted signals matching the filter.
func (s *AnalysisService) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.TradingSignal, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.list-signals")
	defer span.End()

	if s.signalRepo == nil {
		return nil, fmt.Errorf("signal store is not configured")
	}
	filter.Symbol = strings.ToUpper(strings.TrimSpace(filter.Symbol))
	if filter.Level != "" && !filter.Level.IsValid() {
		return nil, fmt.Errorf("unsupported level: %s", filter.Level)
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.signalRepo.ListSignals(ctx, filter)
}

func cacheKey(symbol string, levels []domain.TimeLevel, from, to time.Time) string {
	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		parts = append(parts, string(l))
	}
	return fmt.Sprintf("analysis:%s:%s:%d:%d", symbol, strings.Join(parts, ","), from.Unix(), to.Unix())
}

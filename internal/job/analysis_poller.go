package job

import (
	"context"
	"log"
	"time"

	"chanscope/internal/domain"
	"chanscope/internal/service"

	"go.opentelemetry.io/otel/trace"
)

// AnalysisPoller periodically re-runs the multi-level analysis for the
// configured watchlist so stored signals stay fresh.
type AnalysisPoller struct {
	tracer   trace.Tracer
	runner   BatchRunner
	alerts   AlertSink
	symbols  []string
	levels   []domain.TimeLevel
	interval time.Duration
}

type BatchRunner interface {
	AnalyzeBatch(ctx context.Context, symbols []string, levels []domain.TimeLevel, from, to time.Time) []service.BatchResult
}

// AlertSink receives the signals of each completed sweep. A nil sink
// disables notification.
type AlertSink interface {
	NotifySignals(ctx context.Context, signals []domain.TradingSignal) error
}

func NewAnalysisPoller(tracer trace.Tracer, runner BatchRunner, alerts AlertSink, symbols []string, levels []domain.TimeLevel, interval time.Duration) *AnalysisPoller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &AnalysisPoller{
		tracer:   tracer,
		runner:   runner,
		alerts:   alerts,
		symbols:  symbols,
		levels:   levels,
		interval: interval,
	}
}

// Start runs one sweep immediately, then one per tick. Blocks until ctx
// is cancelled.
func (p *AnalysisPoller) Start(ctx context.Context) {
	if p.runner == nil || len(p.symbols) == 0 {
		log.Println("Analysis poller disabled: no runner or symbols")
		<-ctx.Done()
		return
	}

	log.Printf("Analysis poller starting for %d symbols every %s", len(p.symbols), p.interval)
	p.sweep(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Analysis poller stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *AnalysisPoller) sweep(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "analysis-poller.sweep")
	defer span.End()

	results := p.runner.AnalyzeBatch(ctx, p.symbols, p.levels, time.Time{}, time.Time{})
	var signals []domain.TradingSignal
	for _, r := range results {
		if r.Err != nil {
			log.Printf("analysis poll error for %s: %v", r.Symbol, r.Err)
			continue
		}
		if r.Result == nil {
			continue
		}
		if !r.Result.Success {
			log.Printf("analysis poll for %s degraded: %s", r.Symbol, r.Result.Assessment)
		}
		signals = append(signals, r.Result.Signals...)
	}

	if p.alerts == nil || len(signals) == 0 {
		return
	}
	if err := p.alerts.NotifySignals(ctx, signals); err != nil {
		log.Printf("alert dispatch error: %v", err)
	}
}

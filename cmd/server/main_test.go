package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"chanscope/internal/bot"
	"chanscope/internal/config"
	"chanscope/internal/domain"
	"chanscope/internal/job"
	"chanscope/internal/repository"
	"chanscope/internal/service"
	signalengine "chanscope/internal/signal"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewCandleRepo := newCandleRepoFunc
	origNewSignalRepo := newSignalRepoFunc
	origNewSignalEngine := newSignalEngineFunc
	origNewAnalysisService := newAnalysisServiceFunc
	origNewPoller := newAnalysisPollerFunc
	origStartPoller := startPollerFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			AnalysisLevels: domain.AnalysisLevels,
			PivotWindow:    3,
			BatchWidth:     5,
			PollSecs:       1,
			CacheTTLSecs:   1,
			HTTPPort:       8080,
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newCandleRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.CandleRepository {
		return nil
	}
	newSignalRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.SignalRepository {
		return nil
	}
	newSignalEngineFunc = func(func() time.Time) *signalengine.Engine { return signalengine.NewEngine(nil) }
	newAnalysisServiceFunc = func(trace.Tracer, service.CandleSource, service.SignalEngine, ...service.AnalysisOption) *service.AnalysisService {
		return nil
	}
	newAnalysisPollerFunc = func(trace.Tracer, job.BatchRunner, job.AlertSink, []string, []domain.TimeLevel, time.Duration) *job.AnalysisPoller {
		return nil
	}
	startPollerFunc = func(*job.AnalysisPoller, context.Context) {}
	startTelegramBotFunc = func(bot.Analyzer) *bot.AlertDispatcher { return nil }
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newCandleRepoFunc = origNewCandleRepo
		newSignalRepoFunc = origNewSignalRepo
		newSignalEngineFunc = origNewSignalEngine
		newAnalysisServiceFunc = origNewAnalysisService
		newAnalysisPollerFunc = origNewPoller
		startPollerFunc = origStartPoller
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"chanscope/internal/bot"
	"chanscope/internal/cache"
	"chanscope/internal/config"
	"chanscope/internal/db"
	"chanscope/internal/handler"
	"chanscope/internal/job"
	"chanscope/internal/repository"
	"chanscope/internal/service"
	signalengine "chanscope/internal/signal"
	"chanscope/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newCandleRepoFunc      = repository.NewCandleRepository
	newSignalRepoFunc      = repository.NewSignalRepository
	newSignalEngineFunc    = signalengine.NewEngine
	newAnalysisServiceFunc = service.NewAnalysisService
	newAnalysisPollerFunc  = job.NewAnalysisPoller
	startPollerFunc        = func(p *job.AnalysisPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repositories and run migrations
	candleRepo := newCandleRepoFunc(db.Pool, tracer)
	signalRepo := newSignalRepoFunc(db.Pool, tracer)
	if db.Pool != nil {
		if err := candleRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run candle migrations: %v", err)
		}
		if err := signalRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run signal migrations: %v", err)
		}
	}

	// Create the analysis pipeline
	engine := newSignalEngineFunc(nil)
	resultCache := cache.NewResultCache(cache.Client, time.Duration(cfg.CacheTTLSecs)*time.Second)
	analysisService := newAnalysisServiceFunc(tracer, candleRepo, engine,
		service.WithPivotWindow(cfg.PivotWindow),
		service.WithBatchWidth(cfg.BatchWidth),
		service.WithSignalStore(signalRepo),
		service.WithResultCache(resultCache),
	)

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	alerts := startTelegramBotFunc(analysisService)

	// Start the watchlist poller (stopped by ctx cancel)
	poller := newAnalysisPollerFunc(tracer, analysisService, alerts, cfg.Symbols, cfg.AnalysisLevels, time.Duration(cfg.PollSecs)*time.Second)
	startPollerFunc(poller, ctx)

	// Create handlers and routes
	h := newHandlerFunc(tracer, analysisService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("chanscope"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"chanscope/internal/domain"
)

type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	HTTPPort         int

	Symbols        []string
	AnalysisLevels []domain.TimeLevel
	PivotWindow    int
	BatchWidth     int
	LookbackHours  int
	PollSecs       int
	CacheTTLSecs   int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.Symbols = parseSymbols(os.Getenv("ANALYSIS_SYMBOLS"))
	cfg.AnalysisLevels = parseLevels(os.Getenv("ANALYSIS_LEVELS"))

	cfg.PivotWindow = 3
	if v := strings.TrimSpace(os.Getenv("PIVOT_WINDOW")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 2 {
			cfg.PivotWindow = n
		}
	}

	cfg.BatchWidth = 5
	if v := strings.TrimSpace(os.Getenv("BATCH_WIDTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BatchWidth = n
		}
	}

	cfg.LookbackHours = 24 * 120
	if v := strings.TrimSpace(os.Getenv("LOOKBACK_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LookbackHours = n
		}
	}

	cfg.PollSecs = 300
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollSecs = n
		}
	}

	cfg.CacheTTLSecs = 300
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTLSecs = n
		}
	}

	return cfg
}

func parseSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	return out
}

func parseLevels(raw string) []domain.TimeLevel {
	if strings.TrimSpace(raw) == "" {
		return append([]domain.TimeLevel(nil), domain.AnalysisLevels...)
	}

	parts := strings.Split(raw, ",")
	out := make([]domain.TimeLevel, 0, len(parts))
	seen := make(map[domain.TimeLevel]struct{}, len(parts))
	for _, part := range parts {
		level := domain.TimeLevel(strings.ToLower(strings.TrimSpace(part)))
		if level == "" {
			continue
		}
		if !level.IsValid() {
			log.Printf("Warning: unsupported analysis level %q, skipping", level)
			continue
		}
		if _, ok := seen[level]; ok {
			continue
		}
		seen[level] = struct{}{}
		out = append(out, level)
	}
	if len(out) == 0 {
		return append([]domain.TimeLevel(nil), domain.AnalysisLevels...)
	}
	return out
}

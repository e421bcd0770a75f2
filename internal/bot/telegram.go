package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"chanscope/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string, levels []domain.TimeLevel, from, to time.Time) (*domain.AnalysisResult, error)
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.TradingSignal, error)
}

func StartTelegramBot(analysisService Analyzer) *AlertDispatcher {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	alerts := NewAlertDispatcher(b)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID) {
				return c.Send("Resonance alerts enabled for this chat.")
			}
			return c.Send("Resonance alerts are already enabled for this chat.")
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Resonance alerts disabled for this chat.")
			}
			return c.Send("Resonance alerts are already disabled for this chat.")
		default:
			if alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})

	b.Handle("/analyze", func(c tele.Context) error {
		if analysisService == nil {
			return c.Send("Analysis service unavailable")
		}
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /analyze AAPL")
		}
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))

		result, err := analysisService.AnalyzeSymbol(context.Background(), symbol, nil, time.Time{}, time.Time{})
		if err != nil {
			return c.Send(fmt.Sprintf("Error analyzing %s: %v", symbol, err))
		}
		return c.Send(formatResult(result))
	})

	b.Handle("/signals", func(c tele.Context) error {
		if analysisService == nil {
			return c.Send("Signal service unavailable")
		}

		filter, err := parseSignalArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /signals AAPL | /signals --side buy | /signals AAPL --level daily")
		}

		signals, err := analysisService.ListSignals(context.Background(), filter)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching signals: %v", err))
		}
		if len(signals) == 0 {
			return c.Send("No matching signals right now.")
		}

		lines := make([]string, 0, len(signals)+1)
		lines = append(lines, "Latest signals:")
		for _, s := range signals {
			lines = append(lines, formatSignal(s))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}

func parseSignalArgs(args []string) (domain.SignalFilter, error) {
	filter := domain.SignalFilter{Limit: 5}

	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])
		if arg == "" {
			continue
		}

		if arg == "--side" || arg == "--level" {
			if i+1 >= len(args) {
				return domain.SignalFilter{}, errors.New("missing option value")
			}
			i++
			value := strings.ToLower(strings.TrimSpace(args[i]))
			if arg == "--side" {
				side := domain.SignalSide(value)
				if side != domain.SideBuy && side != domain.SideSell {
					return domain.SignalFilter{}, errors.New("side must be buy or sell")
				}
				filter.Side = side
				continue
			}
			level := domain.TimeLevel(value)
			if !level.IsValid() {
				return domain.SignalFilter{}, errors.New("unsupported level")
			}
			filter.Level = level
			continue
		}

		if strings.HasPrefix(arg, "--") {
			return domain.SignalFilter{}, errors.New("unknown option")
		}
		if filter.Symbol != "" {
			return domain.SignalFilter{}, errors.New("multiple symbols provided")
		}
		filter.Symbol = strings.ToUpper(arg)
	}

	return filter, nil
}

func formatSignal(s domain.TradingSignal) string {
	return fmt.Sprintf(
		"#%d %s %s %s point on %s at %.2f (strength %.2f) %s",
		s.ID,
		s.Symbol,
		strings.ToUpper(string(s.Side)),
		s.Point,
		s.Level,
		s.Price,
		s.Strength,
		s.Timestamp.UTC().Format(time.RFC822),
	)
}

func formatResult(r *domain.AnalysisResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s analysis (%s)\n", r.Symbol, r.Assessment)
	fmt.Fprintf(&sb, "Data quality: %.0f%%\n", r.DataQuality*100)

	levels := make([]string, 0, len(r.Levels))
	for level := range r.Levels {
		levels = append(levels, string(level))
	}
	sort.Strings(levels)
	for _, level := range levels {
		ls := r.Levels[domain.TimeLevel(level)]
		fmt.Fprintf(&sb, "%s: trend %s (%.2f), %d strokes, %d zones\n",
			level, ls.Trend.Direction, ls.Trend.Strength, len(ls.Strokes), len(ls.Zones))
	}

	if len(r.Signals) == 0 {
		sb.WriteString("No signals.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d signal(s):\n", len(r.Signals))
	for _, s := range r.Signals {
		sb.WriteString(formatSignal(s))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

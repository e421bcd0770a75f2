package structure

import (
	"testing"
	"time"

	"chanscope/internal/domain"
)

func flatCandles(n int, high, low float64) []domain.Candle {
	base := time.Unix(0, 0).UTC()
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     low,
			High:     high,
			Low:      low,
			Close:    low,
		}
	}
	return out
}

func TestSynthesizeTrendInsufficientCandles(t *testing.T) {
	trend := SynthesizeTrend(flatCandles(19, 10, 9), nil)
	if trend.Direction != domain.DirectionSideways {
		t.Fatalf("expected sideways, got %s", trend.Direction)
	}
	if trend.Strength != 0.5 {
		t.Fatalf("expected fixed strength 0.5, got %f", trend.Strength)
	}
}

func TestSynthesizeTrendUp(t *testing.T) {
	candles := flatCandles(30, 10, 9)
	for i := 20; i < 30; i++ {
		candles[i].High = 12
		candles[i].Low = 11
		candles[i].Open = 11
		candles[i].Close = 11
	}

	trend := SynthesizeTrend(candles, nil)
	if trend.Direction != domain.DirectionUp {
		t.Fatalf("expected up, got %s", trend.Direction)
	}
	// (12 - 10) / 10 = 0.2
	if trend.Strength != 0.2 {
		t.Fatalf("expected strength 0.2, got %f", trend.Strength)
	}
}

func TestSynthesizeTrendDown(t *testing.T) {
	candles := flatCandles(30, 10, 8)
	for i := 20; i < 30; i++ {
		candles[i].High = 7
		candles[i].Low = 6
		candles[i].Open = 6
		candles[i].Close = 6
	}

	trend := SynthesizeTrend(candles, nil)
	if trend.Direction != domain.DirectionDown {
		t.Fatalf("expected down, got %s", trend.Direction)
	}
	// (8 - 6) / 8 = 0.25
	if trend.Strength != 0.25 {
		t.Fatalf("expected strength 0.25, got %f", trend.Strength)
	}
}

func TestSynthesizeTrendMixedIsSideways(t *testing.T) {
	candles := flatCandles(30, 10, 9)
	for i := 20; i < 30; i++ {
		candles[i].High = 12 // higher high but lows unchanged
		candles[i].Open = 9
		candles[i].Close = 9
	}

	trend := SynthesizeTrend(candles, nil)
	if trend.Direction != domain.DirectionSideways {
		t.Fatalf("expected sideways, got %s", trend.Direction)
	}
	if trend.Strength != 0.5 {
		t.Fatalf("expected strength 0.5, got %f", trend.Strength)
	}
}

func TestSynthesizeTrendCountsZones(t *testing.T) {
	zones := []domain.Zone{{High: 10, Low: 9, Center: 9.5}, {High: 11, Low: 10, Center: 10.5}}
	trend := SynthesizeTrend(flatCandles(30, 10, 9), zones)
	if trend.ZhongshuCount != 2 {
		t.Fatalf("expected zhongshu count 2, got %d", trend.ZhongshuCount)
	}
}

func TestSynthesizeTrendStrengthClamped(t *testing.T) {
	candles := flatCandles(30, 10, 9)
	for i := 20; i < 30; i++ {
		candles[i].High = 100
		candles[i].Low = 90
		candles[i].Open = 90
		candles[i].Close = 90
	}

	trend := SynthesizeTrend(candles, nil)
	if trend.Direction != domain.DirectionUp {
		t.Fatalf("expected up, got %s", trend.Direction)
	}
	if trend.Strength != 1 {
		t.Fatalf("expected strength clamped to 1, got %f", trend.Strength)
	}
}

package structure

import (
	"chanscope/internal/domain"
)

const trendMinCandles = 20

// SynthesizeTrend derives the coarse trend from the displacement between
// the first ten and the most recent ten candles of the supplied window.
// Under twenty candles the trend is Sideways with a fixed 0.5 strength.
func SynthesizeTrend(candles []domain.Candle, zones []domain.Zone) domain.Trend {
	trend := domain.Trend{
		Direction:     domain.DirectionSideways,
		Strength:      0.5,
		ZhongshuCount: len(zones),
	}
	if len(candles) < trendMinCandles {
		return trend
	}

	earlierHigh, earlierLow := rangeExtremes(candles[:10])
	recentHigh, recentLow := rangeExtremes(candles[len(candles)-10:])

	switch {
	case recentHigh > earlierHigh && recentLow > earlierLow:
		trend.Direction = domain.DirectionUp
		if earlierHigh > 0 {
			trend.Strength = clamp01((recentHigh - earlierHigh) / earlierHigh)
		}
	case recentHigh < earlierHigh && recentLow < earlierLow:
		trend.Direction = domain.DirectionDown
		if earlierLow > 0 {
			trend.Strength = clamp01((earlierLow - recentLow) / earlierLow)
		}
	}
	return trend
}

func rangeExtremes(candles []domain.Candle) (high, low float64) {
	high, low = candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

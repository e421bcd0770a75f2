package structure

import (
	"chanscope/internal/domain"
)

// BuildLevelStructure runs the full per-timeframe pipeline over raw
// candles: normalize, detect pivots, chain strokes, find zhongshu,
// synthesize trend. An empty or too-short series produces a structure
// with empty slices and a Sideways trend, never an error.
func BuildLevelStructure(symbol string, level domain.TimeLevel, candles []domain.Candle, window int) *domain.LevelStructure {
	normalized := NormalizeCandles(candles)

	ls := &domain.LevelStructure{
		Symbol:      symbol,
		Level:       level,
		CandleCount: len(normalized),
	}
	if len(normalized) == 0 {
		ls.Trend = domain.Trend{Direction: domain.DirectionSideways, Strength: 0.5}
		return ls
	}

	ls.StartTime = normalized[0].OpenTime
	ls.EndTime = normalized[len(normalized)-1].OpenTime
	ls.CurrentPrice = normalized[len(normalized)-1].Close

	ls.Pivots = DetectPivots(normalized, window)
	ls.Strokes = BuildStrokes(ls.Pivots)
	ls.Zones = DetectZhongshu(ls.Strokes)
	ls.Trend = SynthesizeTrend(normalized, ls.Zones)
	return ls
}

// Package mapping scores the structural relationship between timeframe
// pairs of one symbol: how the finer level composes, inherits from, or
// diverges against the coarser one.
package mapping

import (
	"math"

	"chanscope/internal/domain"
)

// The fixed time-consistency score is an acknowledged simplification
// carried over from the reference behavior.
const timeConsistencyScore = 0.7

// levelPairs lists the analyzed (higher, lower) combinations in output
// order, including the daily/5min skip-level pair.
var levelPairs = [][2]domain.TimeLevel{
	{domain.LevelDaily, domain.Level30Min},
	{domain.Level30Min, domain.Level5Min},
	{domain.LevelDaily, domain.Level5Min},
}

// Analyze computes the six component scores for a higher/lower level
// pair, classifies the dominant mapping type and grades overall quality.
func Analyze(higher, lower *domain.LevelStructure) domain.Mapping {
	m := domain.Mapping{
		HigherLevel: higher.Level,
		LowerLevel:  lower.Level,
	}

	m.ContainmentRatio = containmentRatio(higher, lower)
	m.CompositionStrength = compositionStrength(len(higher.Strokes), len(lower.Strokes))
	m.InheritanceQuality = inheritanceQuality(len(higher.Zones), len(lower.Zones))
	m.DivergenceStrength = divergenceStrength(higher.Trend.Direction, lower.Trend.Direction)
	m.TimeConsistency = timeConsistencyScore
	m.PriceConsistency = priceConsistency(higher.CurrentPrice, lower.CurrentPrice)
	m.TrendConsistency = trendConsistency(higher.Trend.Direction, lower.Trend.Direction)

	// Price and time consistency are deliberately part of the mean even
	// though they do not drive type selection.
	m.OverallScore = (m.ContainmentRatio + m.CompositionStrength + m.InheritanceQuality +
		m.DivergenceStrength + m.TimeConsistency + m.PriceConsistency) / 6

	m.Type = classify(m)
	m.Quality = grade(m.OverallScore)
	m.Confidence = math.Min(m.OverallScore+0.1, 1.0)
	return m
}

// AnalyzePairs runs Analyze for every configured level pair present in
// the result set.
func AnalyzePairs(levels map[domain.TimeLevel]*domain.LevelStructure) []domain.Mapping {
	mappings := make([]domain.Mapping, 0, len(levelPairs))
	for _, pair := range levelPairs {
		higher, ok := levels[pair[0]]
		if !ok {
			continue
		}
		lower, ok := levels[pair[1]]
		if !ok {
			continue
		}
		mappings = append(mappings, Analyze(higher, lower))
	}
	return mappings
}

// containmentRatio is the temporal overlap of the two candle ranges over
// the lower level's own span, capped at 1.
func containmentRatio(higher, lower *domain.LevelStructure) float64 {
	span := lower.EndTime.Sub(lower.StartTime)
	if span <= 0 {
		return 0
	}

	start := higher.StartTime
	if lower.StartTime.After(start) {
		start = lower.StartTime
	}
	end := higher.EndTime
	if lower.EndTime.Before(end) {
		end = lower.EndTime
	}
	overlap := end.Sub(start)
	if overlap <= 0 {
		return 0
	}
	return math.Min(float64(overlap)/float64(span), 1.0)
}

func compositionStrength(higherStrokes, lowerStrokes int) float64 {
	if higherStrokes == 0 && lowerStrokes == 0 {
		return 0.3
	}
	if higherStrokes == 0 {
		return 0.5
	}

	ratio := float64(lowerStrokes) / float64(higherStrokes)
	switch {
	case ratio >= 2 && ratio <= 20:
		return 0.8
	case ratio >= 1 && ratio <= 30:
		return 0.6
	case ratio >= 0.5 && ratio <= 50:
		return 0.4
	default:
		return 0.3
	}
}

func inheritanceQuality(higherZones, lowerZones int) float64 {
	if higherZones == 0 && lowerZones == 0 {
		return 0.5
	}
	if higherZones == 0 {
		// Ratio is unbounded with a zero denominator; a populated lower
		// level against an empty higher one counts as strong.
		return 0.8
	}
	if lowerZones == 0 {
		return 0.3
	}

	ratio := float64(lowerZones) / float64(higherZones)
	switch {
	case ratio >= 2:
		return 0.8
	case ratio >= 1:
		return 0.6
	default:
		return 0.4
	}
}

func divergenceStrength(higher, lower domain.Direction) float64 {
	switch {
	case higher == lower:
		return 0.1
	case higher == domain.DirectionSideways || lower == domain.DirectionSideways:
		return 0.3
	default:
		return 0.7
	}
}

func priceConsistency(higherPrice, lowerPrice float64) float64 {
	max := math.Max(higherPrice, lowerPrice)
	if max <= 0 {
		return 0
	}
	return math.Max(1-math.Abs(higherPrice-lowerPrice)/max, 0)
}

func trendConsistency(higher, lower domain.Direction) float64 {
	switch {
	case higher == lower:
		return 0.9
	case higher == domain.DirectionSideways || lower == domain.DirectionSideways:
		return 0.6
	default:
		return 0.3
	}
}

// classify picks the dominant mapping type, first match wins.
func classify(m domain.Mapping) domain.MappingType {
	switch {
	case m.ContainmentRatio > 0.7:
		return domain.MappingContainment
	case m.CompositionStrength > 0.6:
		return domain.MappingComposition
	case m.InheritanceQuality > 0.6:
		return domain.MappingInheritance
	case m.DivergenceStrength > 0.5:
		return domain.MappingDivergence
	default:
		return domain.MappingContainment
	}
}

func grade(score float64) domain.MappingQuality {
	switch {
	case score >= 0.7:
		return domain.QualityExcellent
	case score >= 0.5:
		return domain.QualityGood
	case score >= 0.3:
		return domain.QualityFair
	default:
		return domain.QualityPoor
	}
}

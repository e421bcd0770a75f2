package structure

import (
	"sort"

	"chanscope/internal/domain"
)

// BuildStrokes chains alternating pivots into directional strokes (bi).
//
// Tops and bottoms are merged into one timestamp-ordered sequence; when a
// top and a bottom share a timestamp the bottom sorts first. Consecutive
// pairs of differing kind become strokes; a pivot followed by one of the
// same kind simply contributes no stroke for that pair. The final stroke
// is marked unconfirmed until a later pivot opposite to its end exists.
func BuildStrokes(pivots domain.PivotSet) []domain.Stroke {
	merged := mergePivots(pivots)
	if len(merged) < 2 {
		return nil
	}

	strokes := make([]domain.Stroke, 0, len(merged)-1)
	for i := 0; i+1 < len(merged); i++ {
		start, end := merged[i], merged[i+1]
		if start.Kind == end.Kind {
			continue
		}

		direction := domain.DirectionDown
		if start.Kind == domain.PivotBottom {
			direction = domain.DirectionUp
		}
		amplitude := 0.0
		if start.Price != 0 {
			amplitude = abs(end.Price-start.Price) / start.Price
		}

		strokes = append(strokes, domain.Stroke{
			Start:     start,
			End:       end,
			Direction: direction,
			Amplitude: amplitude,
			Strength:  (start.Strength + end.Strength) / 2,
			Confirmed: confirmedBy(merged, i+1, end.Kind),
		})
	}
	return strokes
}

// mergePivots interleaves tops and bottoms by timestamp. Bottoms win
// timestamp ties so an up stroke starts before the down stroke that
// shares its instant.
func mergePivots(pivots domain.PivotSet) []domain.Pivot {
	merged := make([]domain.Pivot, 0, len(pivots.Tops)+len(pivots.Bottoms))
	merged = append(merged, pivots.Bottoms...)
	merged = append(merged, pivots.Tops...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].Kind == domain.PivotBottom && merged[j].Kind == domain.PivotTop
		}
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

// confirmedBy reports whether any pivot after endIdx opposes endKind.
func confirmedBy(merged []domain.Pivot, endIdx int, endKind domain.PivotKind) bool {
	for j := endIdx + 1; j < len(merged); j++ {
		if merged[j].Kind != endKind {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

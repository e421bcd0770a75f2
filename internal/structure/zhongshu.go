package structure

import (
	"math"

	"chanscope/internal/domain"
)

// DetectZhongshu finds consolidation zones from a sliding window of three
// consecutive alternating strokes whose price extents overlap. Candidate
// zones from adjacent windows are kept distinct, not merged. Fewer than
// three strokes yields no zones.
func DetectZhongshu(strokes []domain.Stroke) []domain.Zone {
	if len(strokes) < 3 {
		return nil
	}

	var zones []domain.Zone
	for i := 0; i+2 < len(strokes); i++ {
		a, b, c := strokes[i], strokes[i+1], strokes[i+2]
		if a.Direction == b.Direction || b.Direction == c.Direction {
			continue
		}

		// The zone range is the overlap of the first and third stroke
		// extents. For an up stroke the top of its extent is the end
		// price and the bottom is the start price; reversed for down.
		var high, low float64
		if a.Direction == domain.DirectionUp {
			high = math.Min(a.End.Price, c.End.Price)
			low = math.Max(a.Start.Price, c.Start.Price)
		} else {
			high = math.Min(a.Start.Price, c.Start.Price)
			low = math.Max(a.End.Price, c.End.Price)
		}
		if high <= low {
			continue
		}

		center := (high + low) / 2
		rangeRatio := 0.0
		if center > 0 {
			rangeRatio = (high - low) / center
		}
		zones = append(zones, domain.Zone{
			StartTime:  a.Start.Timestamp,
			EndTime:    c.End.Timestamp,
			High:       high,
			Low:        low,
			Center:     center,
			RangeRatio: rangeRatio,
			Strokes:    []domain.Stroke{a, b, c},
		})
	}
	return zones
}

package mapping

import (
	"math"

	"chanscope/internal/domain"
)

// adjacentPairs lists the (parent, child) level combinations compared
// for zhongshu inheritance.
var adjacentPairs = [][2]domain.TimeLevel{
	{domain.LevelDaily, domain.Level30Min},
	{domain.Level30Min, domain.Level5Min},
}

// AnalyzeInheritance compares a parent-level zone with a child-level
// zone for time and price overlap and classifies inheritance strength.
func AnalyzeInheritance(parent, child domain.Zone, parentLevel, childLevel domain.TimeLevel) domain.Inheritance {
	inh := domain.Inheritance{
		ParentLevel: parentLevel,
		ChildLevel:  childLevel,
	}

	inh.OverlapRatio = timeOverlapRatio(parent, child)
	inh.PriceOverlapRatio = priceOverlapRatio(parent, child)
	inh.ContinuityScore = inh.PriceOverlapRatio
	inh.Effectiveness = (inh.OverlapRatio + inh.PriceOverlapRatio) / 2

	switch {
	case inh.OverlapRatio >= 0.8 && inh.PriceOverlapRatio >= 0.8:
		inh.Type = "Full inheritance"
		inh.Valid = true
	case inh.OverlapRatio >= 0.6 && inh.PriceOverlapRatio >= 0.6:
		inh.Type = "Major inheritance"
		inh.Valid = true
	case inh.OverlapRatio >= 0.3 && inh.PriceOverlapRatio >= 0.3:
		inh.Type = "Partial inheritance"
		inh.Valid = true
	default:
		inh.Type = "Weak inheritance"
	}
	return inh
}

// AnalyzeAllInheritance evaluates every parent-zone x child-zone pair
// across adjacent levels and keeps only valid inheritances.
func AnalyzeAllInheritance(levels map[domain.TimeLevel]*domain.LevelStructure) []domain.Inheritance {
	var out []domain.Inheritance
	for _, pair := range adjacentPairs {
		parent, ok := levels[pair[0]]
		if !ok {
			continue
		}
		child, ok := levels[pair[1]]
		if !ok {
			continue
		}
		for _, pz := range parent.Zones {
			for _, cz := range child.Zones {
				inh := AnalyzeInheritance(pz, cz, pair[0], pair[1])
				if inh.Valid {
					out = append(out, inh)
				}
			}
		}
	}
	return out
}

// timeOverlapRatio is the shared duration over the child zone's own
// duration, 0 when they never coexist.
func timeOverlapRatio(parent, child domain.Zone) float64 {
	duration := child.EndTime.Sub(child.StartTime)
	if duration <= 0 {
		return 0
	}

	start := parent.StartTime
	if child.StartTime.After(start) {
		start = child.StartTime
	}
	end := parent.EndTime
	if child.EndTime.Before(end) {
		end = child.EndTime
	}
	overlap := end.Sub(start)
	if overlap <= 0 {
		return 0
	}
	return math.Min(float64(overlap)/float64(duration), 1.0)
}

func priceOverlapRatio(parent, child domain.Zone) float64 {
	height := child.High - child.Low
	if height <= 0 {
		return 0
	}
	overlap := math.Min(parent.High, child.High) - math.Max(parent.Low, child.Low)
	if overlap <= 0 {
		return 0
	}
	return math.Min(overlap/height, 1.0)
}

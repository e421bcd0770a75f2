package mapping

import (
	"testing"
	"time"

	"chanscope/internal/domain"
)

func levelFixture(level domain.TimeLevel, strokes, zones int, dir domain.Direction, price float64) *domain.LevelStructure {
	base := time.Unix(0, 0).UTC()
	ls := &domain.LevelStructure{
		Symbol:       "600000",
		Level:        level,
		CandleCount:  100,
		StartTime:    base,
		EndTime:      base.Add(100 * time.Hour),
		CurrentPrice: price,
		Trend:        domain.Trend{Direction: dir, Strength: 0.5, ZhongshuCount: zones},
	}
	for i := 0; i < strokes; i++ {
		ls.Strokes = append(ls.Strokes, domain.Stroke{})
	}
	for i := 0; i < zones; i++ {
		ls.Zones = append(ls.Zones, domain.Zone{High: 10, Low: 9, Center: 9.5})
	}
	return ls
}

func TestAnalyzeScoreBounds(t *testing.T) {
	higher := levelFixture(domain.LevelDaily, 5, 2, domain.DirectionUp, 100)
	lower := levelFixture(domain.Level30Min, 40, 5, domain.DirectionDown, 98)

	m := Analyze(higher, lower)
	scores := map[string]float64{
		"containment": m.ContainmentRatio,
		"composition": m.CompositionStrength,
		"inheritance": m.InheritanceQuality,
		"divergence":  m.DivergenceStrength,
		"time":        m.TimeConsistency,
		"price":       m.PriceConsistency,
		"trend":       m.TrendConsistency,
		"overall":     m.OverallScore,
		"confidence":  m.Confidence,
	}
	for name, v := range scores {
		if v < 0 || v > 1 {
			t.Fatalf("%s score %f outside [0,1]", name, v)
		}
	}
}

func TestCompositionStrengthBuckets(t *testing.T) {
	cases := []struct {
		name          string
		higher, lower int
		want          float64
	}{
		{"both zero", 0, 0, 0.3},
		{"only higher zero", 0, 7, 0.5},
		{"ratio in [2,20]", 5, 40, 0.8},
		{"ratio in [1,30]", 5, 5, 0.6},
		{"ratio in [0.5,50]", 10, 5, 0.4},
		{"ratio below 0.5", 10, 1, 0.3},
		{"ratio above 50", 1, 60, 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := compositionStrength(tc.higher, tc.lower); got != tc.want {
				t.Fatalf("expected %f, got %f", tc.want, got)
			}
		})
	}
}

func TestInheritanceQualityBuckets(t *testing.T) {
	cases := []struct {
		name          string
		higher, lower int
		want          float64
	}{
		{"both zero", 0, 0, 0.5},
		{"lower zones against empty higher", 0, 3, 0.8},
		{"higher has zones lower none", 2, 0, 0.3},
		{"ratio >= 2", 2, 4, 0.8},
		{"ratio >= 1", 3, 3, 0.6},
		{"ratio below 1", 4, 2, 0.4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := inheritanceQuality(tc.higher, tc.lower); got != tc.want {
				t.Fatalf("expected %f, got %f", tc.want, got)
			}
		})
	}
}

func TestDivergenceAndTrendConsistency(t *testing.T) {
	if got := divergenceStrength(domain.DirectionUp, domain.DirectionUp); got != 0.1 {
		t.Fatalf("same direction divergence: expected 0.1, got %f", got)
	}
	if got := divergenceStrength(domain.DirectionUp, domain.DirectionSideways); got != 0.3 {
		t.Fatalf("sideways divergence: expected 0.3, got %f", got)
	}
	if got := divergenceStrength(domain.DirectionUp, domain.DirectionDown); got != 0.7 {
		t.Fatalf("opposite divergence: expected 0.7, got %f", got)
	}

	if got := trendConsistency(domain.DirectionDown, domain.DirectionDown); got != 0.9 {
		t.Fatalf("same trend: expected 0.9, got %f", got)
	}
	if got := trendConsistency(domain.DirectionSideways, domain.DirectionDown); got != 0.6 {
		t.Fatalf("sideways trend: expected 0.6, got %f", got)
	}
	if got := trendConsistency(domain.DirectionUp, domain.DirectionDown); got != 0.3 {
		t.Fatalf("opposite trend: expected 0.3, got %f", got)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	m := domain.Mapping{ContainmentRatio: 0.8, CompositionStrength: 0.8}
	if got := classify(m); got != domain.MappingContainment {
		t.Fatalf("expected containment, got %s", got)
	}

	m = domain.Mapping{ContainmentRatio: 0.5, CompositionStrength: 0.7}
	if got := classify(m); got != domain.MappingComposition {
		t.Fatalf("expected composition, got %s", got)
	}

	m = domain.Mapping{InheritanceQuality: 0.7}
	if got := classify(m); got != domain.MappingInheritance {
		t.Fatalf("expected inheritance, got %s", got)
	}

	m = domain.Mapping{DivergenceStrength: 0.6}
	if got := classify(m); got != domain.MappingDivergence {
		t.Fatalf("expected divergence, got %s", got)
	}

	m = domain.Mapping{}
	if got := classify(m); got != domain.MappingContainment {
		t.Fatalf("expected containment default, got %s", got)
	}
}

func TestGradeThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.MappingQuality
	}{
		{0.75, domain.QualityExcellent},
		{0.7, domain.QualityExcellent},
		{0.55, domain.QualityGood},
		{0.35, domain.QualityFair},
		{0.2, domain.QualityPoor},
	}
	for _, tc := range cases {
		if got := grade(tc.score); got != tc.want {
			t.Fatalf("score %f: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestAnalyzePairsCoversSkipLevel(t *testing.T) {
	levels := map[domain.TimeLevel]*domain.LevelStructure{
		domain.LevelDaily:  levelFixture(domain.LevelDaily, 5, 1, domain.DirectionUp, 100),
		domain.Level30Min:  levelFixture(domain.Level30Min, 20, 2, domain.DirectionUp, 100),
		domain.Level5Min:   levelFixture(domain.Level5Min, 80, 4, domain.DirectionUp, 100),
	}

	mappings := AnalyzePairs(levels)
	if len(mappings) != 3 {
		t.Fatalf("expected 3 mappings (incl. daily/5min skip pair), got %d", len(mappings))
	}
	if mappings[2].HigherLevel != domain.LevelDaily || mappings[2].LowerLevel != domain.Level5Min {
		t.Fatalf("expected skip-level pair last, got %s/%s", mappings[2].HigherLevel, mappings[2].LowerLevel)
	}
}

func TestAnalyzePairsSkipsMissingLevels(t *testing.T) {
	levels := map[domain.TimeLevel]*domain.LevelStructure{
		domain.LevelDaily: levelFixture(domain.LevelDaily, 5, 1, domain.DirectionUp, 100),
	}
	if got := AnalyzePairs(levels); len(got) != 0 {
		t.Fatalf("expected no mappings with one level, got %d", len(got))
	}
}

func TestContainmentRatioNoOverlap(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	higher := levelFixture(domain.LevelDaily, 1, 0, domain.DirectionUp, 100)
	lower := levelFixture(domain.Level30Min, 1, 0, domain.DirectionUp, 100)
	higher.StartTime = base
	higher.EndTime = base.Add(10 * time.Hour)
	lower.StartTime = base.Add(20 * time.Hour)
	lower.EndTime = base.Add(30 * time.Hour)

	if got := containmentRatio(higher, lower); got != 0 {
		t.Fatalf("expected 0 containment with disjoint ranges, got %f", got)
	}
}

package structure

import (
	"sort"

	"chanscope/internal/domain"
)

// NormalizeCandles returns a time-ascending copy of the input with rows
// violating the OHLC invariants dropped. The input slice is never mutated.
func NormalizeCandles(in []domain.Candle) []domain.Candle {
	out := make([]domain.Candle, 0, len(in))
	for _, c := range in {
		if !c.IsValid() {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out
}

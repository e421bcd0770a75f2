// Package signal synthesizes buy/sell candidates from per-level Chan
// structures: divergence exits, zone-boundary pullbacks and inside-zone
// positioning, with cross-level resonance boosting.
package signal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"chanscope/internal/domain"
)

const (
	boundaryTolerance = 0.02
	zoneRecencyDays   = 30
	lowZonePosition   = 0.3
	highZonePosition  = 0.7

	firstPointStrength  = 0.8
	secondPointStrength = 0.7
	thirdPointStrength  = 0.6

	firstPointConfidence  = 0.6
	secondPointConfidence = 0.55
	thirdPointConfidence  = 0.5

	resonanceBoost = 0.2
)

type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Synthesize walks every consolidation zone of every level, emits the
// three buy and sell point categories, then merges same-day same-side
// signals from different levels into a single boosted one. Output is
// sorted by timestamp ascending.
func (e *Engine) Synthesize(levels map[domain.TimeLevel]*domain.LevelStructure) []domain.TradingSignal {
	keys := make([]string, 0, len(levels))
	for level := range levels {
		keys = append(keys, string(level))
	}
	sort.Strings(keys)

	var raw []domain.TradingSignal
	for _, key := range keys {
		ls := levels[domain.TimeLevel(key)]
		if ls == nil {
			continue
		}
		raw = append(raw, e.levelSignals(ls)...)
	}

	merged := e.applyResonance(raw)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

func (e *Engine) levelSignals(ls *domain.LevelStructure) []domain.TradingSignal {
	var out []domain.TradingSignal
	for _, zone := range ls.Zones {
		post := strokesAfter(ls.Strokes, zone.EndTime)

		if sig, ok := e.firstPoint(ls, zone, post, domain.SideBuy); ok {
			out = append(out, sig)
		}
		if sig, ok := e.firstPoint(ls, zone, post, domain.SideSell); ok {
			out = append(out, sig)
		}
		if sig, ok := e.secondPoint(ls, zone, post, domain.SideBuy); ok {
			out = append(out, sig)
		}
		if sig, ok := e.secondPoint(ls, zone, post, domain.SideSell); ok {
			out = append(out, sig)
		}
		if sig, ok := e.thirdPoint(ls, zone, domain.SideBuy); ok {
			out = append(out, sig)
		}
		if sig, ok := e.thirdPoint(ls, zone, domain.SideSell); ok {
			out = append(out, sig)
		}
	}
	return out
}

func strokesAfter(strokes []domain.Stroke, after time.Time) []domain.Stroke {
	var out []domain.Stroke
	for _, s := range strokes {
		if s.Start.Timestamp.After(after) || s.Start.Timestamp.Equal(after) {
			out = append(out, s)
		}
	}
	return out
}

// firstPoint fires when the latest stroke extends price in the zone-exit
// direction to a fresh extreme while its amplitude falls short of the
// preceding stroke's: weakening momentum, the divergence setup.
func (e *Engine) firstPoint(ls *domain.LevelStructure, zone domain.Zone, post []domain.Stroke, side domain.SignalSide) (domain.TradingSignal, bool) {
	if len(post) < 2 {
		return domain.TradingSignal{}, false
	}
	prev := post[len(post)-2]
	last := post[len(post)-1]

	if side == domain.SideBuy {
		if last.Direction != domain.DirectionDown {
			return domain.TradingSignal{}, false
		}
		if last.End.Price >= math.Min(prev.Start.Price, prev.End.Price) {
			return domain.TradingSignal{}, false
		}
	} else {
		if last.Direction != domain.DirectionUp {
			return domain.TradingSignal{}, false
		}
		if last.End.Price <= math.Max(prev.Start.Price, prev.End.Price) {
			return domain.TradingSignal{}, false
		}
	}
	if last.Amplitude >= prev.Amplitude {
		return domain.TradingSignal{}, false
	}

	return domain.TradingSignal{
		Symbol:      ls.Symbol,
		Side:        side,
		Point:       domain.PointFirst,
		Level:       ls.Level,
		Timestamp:   last.End.Timestamp,
		Price:       last.End.Price,
		Strength:    firstPointStrength,
		Confidence:  firstPointConfidence,
		Description: fmt.Sprintf("%s divergence: new extreme %.2f on weakening amplitude (%.4f < %.4f)", ls.Level, last.End.Price, last.Amplitude, prev.Amplitude),
	}, true
}

// secondPoint fires when the most recent post-zone extreme pulls back to
// within 2% of the matching zone boundary.
func (e *Engine) secondPoint(ls *domain.LevelStructure, zone domain.Zone, post []domain.Stroke, side domain.SignalSide) (domain.TradingSignal, bool) {
	if len(post) == 0 {
		return domain.TradingSignal{}, false
	}

	var extreme domain.Pivot
	found := false
	for _, s := range post {
		for _, p := range []domain.Pivot{s.Start, s.End} {
			if side == domain.SideBuy && p.Kind != domain.PivotBottom {
				continue
			}
			if side == domain.SideSell && p.Kind != domain.PivotTop {
				continue
			}
			if !found || p.Timestamp.After(extreme.Timestamp) {
				extreme = p
				found = true
			}
		}
	}
	if !found {
		return domain.TradingSignal{}, false
	}

	boundary := zone.Low
	if side == domain.SideSell {
		boundary = zone.High
	}
	if boundary <= 0 || math.Abs(extreme.Price-boundary)/boundary > boundaryTolerance {
		return domain.TradingSignal{}, false
	}

	return domain.TradingSignal{
		Symbol:      ls.Symbol,
		Side:        side,
		Point:       domain.PointSecond,
		Level:       ls.Level,
		Timestamp:   extreme.Timestamp,
		Price:       extreme.Price,
		Strength:    secondPointStrength,
		Confidence:  secondPointConfidence,
		Description: fmt.Sprintf("%s pullback %.2f within 2%% of zone boundary %.2f", ls.Level, extreme.Price, boundary),
	}, true
}

// thirdPoint fires when the current price sits inside a recently ended
// zone, in the lower (buy) or upper (sell) band of its range.
func (e *Engine) thirdPoint(ls *domain.LevelStructure, zone domain.Zone, side domain.SignalSide) (domain.TradingSignal, bool) {
	price := ls.CurrentPrice
	if price < zone.Low || price > zone.High || zone.High <= zone.Low {
		return domain.TradingSignal{}, false
	}
	if e.now().Sub(zone.EndTime) > zoneRecencyDays*24*time.Hour {
		return domain.TradingSignal{}, false
	}

	position := (price - zone.Low) / (zone.High - zone.Low)
	if side == domain.SideBuy && position >= lowZonePosition {
		return domain.TradingSignal{}, false
	}
	if side == domain.SideSell && position <= highZonePosition {
		return domain.TradingSignal{}, false
	}

	return domain.TradingSignal{
		Symbol:      ls.Symbol,
		Side:        side,
		Point:       domain.PointThird,
		Level:       ls.Level,
		Timestamp:   e.now().UTC(),
		Price:       price,
		Strength:    thirdPointStrength,
		Confidence:  thirdPointConfidence,
		Description: fmt.Sprintf("%s price %.2f at %.0f%% of zone [%.2f, %.2f]", ls.Level, price, position*100, zone.Low, zone.High),
	}, true
}

type resonanceKey struct {
	day  string
	side domain.SignalSide
}

// applyResonance groups signals by calendar date and side. When two or
// more levels agree, the strongest signal absorbs the rest: confidence
// is boosted and the contributing levels recorded.
func (e *Engine) applyResonance(signals []domain.TradingSignal) []domain.TradingSignal {
	groups := make(map[resonanceKey][]domain.TradingSignal)
	order := make([]resonanceKey, 0, len(signals))
	for _, s := range signals {
		key := resonanceKey{day: s.Timestamp.UTC().Format("2006-01-02"), side: s.Side}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	out := make([]domain.TradingSignal, 0, len(signals))
	for _, key := range order {
		group := groups[key]
		levels := distinctLevels(group)
		if len(group) < 2 || len(levels) < 2 {
			out = append(out, group...)
			continue
		}

		best := group[0]
		for _, s := range group[1:] {
			if s.Strength > best.Strength {
				best = s
			}
		}
		best.Confidence = math.Min(best.Confidence+resonanceBoost, 1.0)
		best.SupportingLevels = levels
		best.Description = fmt.Sprintf("%s [resonance across %d levels]", best.Description, len(levels))
		out = append(out, best)
	}
	return out
}

func distinctLevels(group []domain.TradingSignal) []domain.TimeLevel {
	seen := make(map[domain.TimeLevel]struct{}, len(group))
	out := make([]domain.TimeLevel, 0, len(group))
	for _, s := range group {
		if _, ok := seen[s.Level]; ok {
			continue
		}
		seen[s.Level] = struct{}{}
		out = append(out, s.Level)
	}
	return out
}

package structure

import (
	"chanscope/internal/domain"
)

const defaultPivotWindow = 3

// DetectPivots scans candles with a symmetric window and returns the
// confirmed tops and bottoms (fenxing). The window counts the center
// candle, so candle i is compared against the 2*(window-1) neighbors in
// [i-window+1, i+window-1]: a top needs its high to strictly exceed every
// neighbor high, bottoms are symmetric on lows. Fewer than 2*window+1
// candles yields an empty set, not an error.
func DetectPivots(candles []domain.Candle, window int) domain.PivotSet {
	if window < 2 {
		window = defaultPivotWindow
	}
	if len(candles) < 2*window+1 {
		return domain.PivotSet{}
	}

	half := window - 1
	var set domain.PivotSet
	for i := half; i < len(candles)-half; i++ {
		isTop, isBottom := true, true
		windowHigh := candles[i-half].High
		windowLow := candles[i-half].Low
		for j := i - half; j <= i+half; j++ {
			if candles[j].High > windowHigh {
				windowHigh = candles[j].High
			}
			if candles[j].Low < windowLow {
				windowLow = candles[j].Low
			}
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isTop = false
			}
			if candles[j].Low <= candles[i].Low {
				isBottom = false
			}
		}

		if isTop {
			strength := 0.0
			if candles[i].High > 0 {
				strength = (candles[i].High - windowLow) / candles[i].High
			}
			set.Tops = append(set.Tops, domain.Pivot{
				Index:     i,
				Timestamp: candles[i].OpenTime,
				Price:     candles[i].High,
				Kind:      domain.PivotTop,
				Strength:  strength,
			})
		} else if isBottom {
			strength := 0.0
			if candles[i].Low > 0 {
				strength = (windowHigh - candles[i].Low) / candles[i].Low
			}
			set.Bottoms = append(set.Bottoms, domain.Pivot{
				Index:     i,
				Timestamp: candles[i].OpenTime,
				Price:     candles[i].Low,
				Kind:      domain.PivotBottom,
				Strength:  strength,
			})
		}
	}
	return set
}

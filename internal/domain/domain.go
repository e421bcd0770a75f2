package domain

import (
	"math"
	"time"
)

// TimeLevel identifies a candle timeframe. Cross-level stages only ever
// combine levels from AnalysisLevels, ordered coarse to fine.
type TimeLevel string

const (
	LevelWeekly TimeLevel = "weekly"
	LevelDaily  TimeLevel = "daily"
	Level30Min  TimeLevel = "30min"
	Level5Min   TimeLevel = "5min"
	Level1Min   TimeLevel = "1min"
)

// AnalysisLevels is the default level set for a full multi-level run,
// coarse first.
var AnalysisLevels = []TimeLevel{LevelDaily, Level30Min, Level5Min}

var supportedLevels = map[TimeLevel]struct{}{
	LevelWeekly: {},
	LevelDaily:  {},
	Level30Min:  {},
	Level5Min:   {},
	Level1Min:   {},
}

func (l TimeLevel) IsValid() bool {
	_, ok := supportedLevels[l]
	return ok
}

type Candle struct {
	Symbol   string    `json:"symbol"`
	Level    TimeLevel `json:"level"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// IsValid reports whether the OHLC values are internally consistent.
// Rows failing this are dropped during normalization.
func (c Candle) IsValid() bool {
	return c.High >= math.Max(c.Open, c.Close) &&
		c.Low <= math.Min(c.Open, c.Close) &&
		c.High >= c.Low
}

type PivotKind string

const (
	PivotTop    PivotKind = "top"
	PivotBottom PivotKind = "bottom"
)

// Pivot is a confirmed local extreme (fenxing).
type Pivot struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Kind      PivotKind `json:"kind"`
	Strength  float64   `json:"strength"`
}

// PivotSet holds the tops and bottoms of one detection pass, each in
// ascending index order.
type PivotSet struct {
	Tops    []Pivot `json:"tops"`
	Bottoms []Pivot `json:"bottoms"`
}

type Direction string

const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionSideways Direction = "sideways"
)

// Stroke is a directional leg (bi) between two alternating pivots.
// Start.Kind != End.Kind always holds for emitted strokes.
type Stroke struct {
	Start     Pivot     `json:"start"`
	End       Pivot     `json:"end"`
	Direction Direction `json:"direction"`
	Amplitude float64   `json:"amplitude"`
	Strength  float64   `json:"strength"`
	Confirmed bool      `json:"confirmed"`
}

// Zone is a consolidation range (zhongshu) formed by three alternating
// overlapping strokes. High > Low strictly.
type Zone struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Center     float64   `json:"center"`
	RangeRatio float64   `json:"range_ratio"`
	Strokes    []Stroke  `json:"forming_strokes"`
}

type Trend struct {
	Direction     Direction `json:"direction"`
	Strength      float64   `json:"strength"`
	ZhongshuCount int       `json:"zhongshu_count"`
}

// LevelStructure is the full structural decomposition of one timeframe.
type LevelStructure struct {
	Symbol       string    `json:"symbol"`
	Level        TimeLevel `json:"level"`
	CandleCount  int       `json:"candle_count"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	CurrentPrice float64   `json:"current_price"`
	Pivots       PivotSet  `json:"pivots"`
	Strokes      []Stroke  `json:"strokes"`
	Zones        []Zone    `json:"zones"`
	Trend        Trend     `json:"trend"`
}

type MappingType string

const (
	MappingContainment MappingType = "containment"
	MappingComposition MappingType = "composition"
	MappingInheritance MappingType = "inheritance"
	MappingDivergence  MappingType = "divergence"
)

type MappingQuality string

const (
	QualityExcellent MappingQuality = "excellent"
	QualityGood      MappingQuality = "good"
	QualityFair      MappingQuality = "fair"
	QualityPoor      MappingQuality = "poor"
)

// Mapping scores the structural relationship between a coarser and a
// finer timeframe. All component scores lie in [0,1].
type Mapping struct {
	HigherLevel         TimeLevel      `json:"higher_level"`
	LowerLevel          TimeLevel      `json:"lower_level"`
	Type                MappingType    `json:"mapping_type"`
	Quality             MappingQuality `json:"quality"`
	ContainmentRatio    float64        `json:"containment_ratio"`
	CompositionStrength float64        `json:"composition_strength"`
	InheritanceQuality  float64        `json:"inheritance_quality"`
	DivergenceStrength  float64        `json:"divergence_strength"`
	TimeConsistency     float64        `json:"time_consistency"`
	PriceConsistency    float64        `json:"price_consistency"`
	TrendConsistency    float64        `json:"trend_consistency"`
	OverallScore        float64        `json:"overall_score"`
	Confidence          float64        `json:"confidence_level"`
}

// Inheritance relates a parent-level zone to a child-level zone.
type Inheritance struct {
	ParentLevel       TimeLevel `json:"parent_level"`
	ChildLevel        TimeLevel `json:"child_level"`
	OverlapRatio      float64   `json:"overlap_ratio"`
	PriceOverlapRatio float64   `json:"price_overlap_ratio"`
	ContinuityScore   float64   `json:"continuity_score"`
	Effectiveness     float64   `json:"effectiveness_score"`
	Type              string    `json:"inheritance_type"`
	Valid             bool      `json:"is_valid"`
}

type SignalSide string

const (
	SideBuy  SignalSide = "buy"
	SideSell SignalSide = "sell"
)

type SignalPoint string

const (
	PointFirst  SignalPoint = "first"
	PointSecond SignalPoint = "second"
	PointThird  SignalPoint = "third"
)

type TradingSignal struct {
	ID               int64       `json:"id"`
	Symbol           string      `json:"symbol"`
	Side             SignalSide  `json:"signal_type"`
	Point            SignalPoint `json:"sub_type"`
	Level            TimeLevel   `json:"level"`
	Timestamp        time.Time   `json:"timestamp"`
	Price            float64     `json:"price"`
	Strength         float64     `json:"strength"`
	Confidence       float64     `json:"confidence"`
	Description      string      `json:"description,omitempty"`
	SupportingLevels []TimeLevel `json:"supporting_levels,omitempty"`
}

type SignalFilter struct {
	Symbol string
	Side   SignalSide
	Level  TimeLevel
	Limit  int
}

// AnalysisResult is the top-level output for one symbol. Levels that
// failed to fetch or had no data are simply absent from the map.
type AnalysisResult struct {
	Symbol       string                        `json:"symbol"`
	GeneratedAt  time.Time                     `json:"generated_at"`
	Levels       map[TimeLevel]*LevelStructure `json:"levels"`
	Mappings     []Mapping                     `json:"mappings"`
	Inheritances []Inheritance                 `json:"inheritances"`
	Signals      []TradingSignal               `json:"signals"`
	Success      bool                          `json:"success"`
	DataQuality  float64                       `json:"data_quality_score"`
	Assessment   string                        `json:"assessment"`
}

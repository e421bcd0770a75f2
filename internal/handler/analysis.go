package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chanscope/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetAnalysis runs the full multi-level structural analysis for one
// symbol. Levels default to the standard daily/30min/5min set; from and
// to accept RFC 3339 timestamps.
func (h *Handler) GetAnalysis(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-analysis")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	levels, err := parseLevelsParam(c.Query("levels"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	from, to, err := parseRangeParams(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.analysisService.AnalyzeSymbol(ctx, symbol, levels, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type batchRequest struct {
	Symbols []string           `json:"symbols" binding:"required"`
	Levels  []domain.TimeLevel `json:"levels"`
	From    time.Time          `json:"from"`
	To      time.Time          `json:"to"`
}

// AnalyzeBatch runs analysis for several symbols at once. Per-symbol
// failures are reported inline instead of failing the whole request.
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-batch")
	defer span.End()

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols are required"})
		return
	}
	for _, level := range req.Levels {
		if !level.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported level: " + string(level)})
			return
		}
	}
	span.SetAttributes(attribute.Int("symbols", len(req.Symbols)))

	results := h.analysisService.AnalyzeBatch(ctx, req.Symbols, req.Levels, req.From, req.To)

	type batchEntry struct {
		Symbol string                 `json:"symbol"`
		Result *domain.AnalysisResult `json:"result,omitempty"`
		Error  string                 `json:"error,omitempty"`
	}
	out := make([]batchEntry, 0, len(results))
	for _, r := range results {
		entry := batchEntry{Symbol: r.Symbol, Result: r.Result}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		}
		out = append(out, entry)
	}

	c.JSON(http.StatusOK, gin.H{"results": out})
}

// GetSignals returns recently stored signals, optionally filtered by
// symbol, side, and level.
func (h *Handler) GetSignals(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	filter := domain.SignalFilter{
		Symbol: strings.ToUpper(strings.TrimSpace(c.Query("symbol"))),
	}
	if filter.Symbol != "" {
		span.SetAttributes(attribute.String("symbol", filter.Symbol))
	}

	if rawSide := strings.ToLower(strings.TrimSpace(c.Query("side"))); rawSide != "" {
		side := domain.SignalSide(rawSide)
		if side != domain.SideBuy && side != domain.SideSell {
			c.JSON(http.StatusBadRequest, gin.H{"error": "side must be buy or sell"})
			return
		}
		filter.Side = side
	}

	if rawLevel := strings.ToLower(strings.TrimSpace(c.Query("level"))); rawLevel != "" {
		level := domain.TimeLevel(rawLevel)
		if !level.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported level: " + rawLevel})
			return
		}
		filter.Level = level
	}

	limit := 50
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	filter.Limit = limit

	signals, err := h.analysisService.ListSignals(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

func parseLevelsParam(raw string) ([]domain.TimeLevel, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	levels := make([]domain.TimeLevel, 0, len(parts))
	for _, part := range parts {
		level := domain.TimeLevel(strings.ToLower(strings.TrimSpace(part)))
		if level == "" {
			continue
		}
		if !level.IsValid() {
			return nil, fmt.Errorf("unsupported level: %s", level)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func parseRangeParams(rawFrom, rawTo string) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := strings.TrimSpace(rawFrom); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, fmt.Errorf("from must be an RFC 3339 timestamp")
		}
		from = t
	}
	if raw := strings.TrimSpace(rawTo); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, fmt.Errorf("to must be an RFC 3339 timestamp")
		}
		to = t
	}
	return from, to, nil
}

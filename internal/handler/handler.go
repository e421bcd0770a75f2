package handler

import (
	"net/http"

	"chanscope/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer          trace.Tracer
	analysisService *service.AnalysisService
}

func New(tracer trace.Tracer, analysisService *service.AnalysisService) *Handler {
	return &Handler{
		tracer:          tracer,
		analysisService: analysisService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/analysis/:symbol", h.GetAnalysis)
	r.POST("/api/analysis/batch", h.AnalyzeBatch)
	r.GET("/api/signals", h.GetSignals)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

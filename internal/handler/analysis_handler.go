package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-analytics/internal/dto"
	"github.com/noah-isme/sma-score-analytics/internal/middleware"
	"github.com/noah-isme/sma-score-analytics/internal/models"
	"github.com/noah-isme/sma-score-analytics/internal/service"
	appErrors "github.com/noah-isme/sma-score-analytics/pkg/errors"
	"github.com/noah-isme/sma-score-analytics/pkg/response"
)

type analysisService interface {
	Summary(ctx context.Context, query dto.AnalysisFilterQuery) (*models.SummaryStats, bool, error)
	Rankings(ctx context.Context, query dto.RankQuery) (*service.RankingResult, bool, error)
	Trend(ctx context.Context, query dto.TrendQuery) (*models.StudentTrend, bool, error)
	Compare(ctx context.Context, query dto.CompareQuery) (*models.Comparison, bool, error)
	AIAnalysis(ctx context.Context, query dto.AnalysisFilterQuery) (*models.AnalysisReport, bool, error)
	InvalidateCache(ctx context.Context) error
	SystemMetrics() models.AnalyticsSystemMetrics
}

type analysisExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
}

// AnalysisHandler exposes score analysis endpoints.
type AnalysisHandler struct {
	analysis analysisService
	exporter analysisExporter
}

// NewAnalysisHandler constructs the analysis handler.
func NewAnalysisHandler(analysis analysisService, exporter analysisExporter) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, exporter: exporter}
}

// Summary godoc
// @Summary Score summary statistics
// @Tags Analysis
// @Produce json
// @Param examId query string false "Exam ID"
// @Param classId query string false "Class ID"
// @Param courseId query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analysis/summary [get]
func (h *AnalysisHandler) Summary(c *gin.Context) {
	var query dto.AnalysisFilterQuery
	if !bindQuery(c, &query) {
		return
	}
	start := time.Now()
	stats, cacheHit, err := h.analysis.Summary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if stats == nil {
		respond(c, start, cacheHit, nil)
		return
	}
	respond(c, start, cacheHit, stats)
}

// Rank godoc
// @Summary Score ranking
// @Description Without studentId the full cohort ranking is returned. With studentId the response holds myRank and the top rankings of the student's class.
// @Tags Analysis
// @Produce json
// @Param examId query string false "Exam ID"
// @Param classId query string false "Class ID"
// @Param courseId query string false "Course ID"
// @Param studentId query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analysis/rank [get]
func (h *AnalysisHandler) Rank(c *gin.Context) {
	var query dto.RankQuery
	if !bindQuery(c, &query) {
		return
	}
	start := time.Now()
	result, cacheHit, err := h.analysis.Rankings(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	switch {
	case result == nil:
		respond(c, start, cacheHit, nil)
	case result.Standing != nil:
		respond(c, start, cacheHit, result.Standing)
	default:
		respond(c, start, cacheHit, result.Rankings)
	}
}

// Trend godoc
// @Summary Student score trend
// @Tags Analysis
// @Produce json
// @Param studentId query string true "Student ID"
// @Param courseId query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analysis/trend [get]
func (h *AnalysisHandler) Trend(c *gin.Context) {
	var query dto.TrendQuery
	if !bindQuery(c, &query) {
		return
	}
	start := time.Now()
	trend, cacheHit, err := h.analysis.Trend(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, cacheHit, trend)
}

// Compare godoc
// @Summary Compare two students on one exam
// @Tags Analysis
// @Produce json
// @Param studentId1 query string true "First student ID"
// @Param studentId2 query string true "Second student ID"
// @Param examId query string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analysis/compare [get]
func (h *AnalysisHandler) Compare(c *gin.Context) {
	var query dto.CompareQuery
	if !bindQuery(c, &query) {
		return
	}
	start := time.Now()
	comparison, cacheHit, err := h.analysis.Compare(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if comparison == nil {
		respond(c, start, cacheHit, nil)
		return
	}
	respond(c, start, cacheHit, comparison)
}

// AIAnalysis godoc
// @Summary Narrative cohort analysis with recommendations
// @Tags Analysis
// @Produce json
// @Param examId query string false "Exam ID"
// @Param classId query string false "Class ID"
// @Param courseId query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analysis/ai-analysis [get]
func (h *AnalysisHandler) AIAnalysis(c *gin.Context) {
	var query dto.AnalysisFilterQuery
	if !bindQuery(c, &query) {
		return
	}
	start := time.Now()
	report, cacheHit, err := h.analysis.AIAnalysis(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if report == nil {
		respond(c, start, cacheHit, nil)
		return
	}
	respond(c, start, cacheHit, report)
}

// Export godoc
// @Summary Download an analysis as CSV, PDF or XLSX
// @Tags Analysis
// @Produce octet-stream
// @Param type query string true "summary, rank or ai-analysis"
// @Param format query string true "csv, pdf or xlsx"
// @Param examId query string false "Exam ID"
// @Param classId query string false "Class ID"
// @Param courseId query string false "Course ID"
// @Param studentId query string false "Student ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /analysis/export [get]
func (h *AnalysisHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if !bindQuery(c, &query) {
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

// InvalidateCache godoc
// @Summary Drop cached analysis results
// @Tags Analysis
// @Success 204
// @Security BearerAuth
// @Router /analysis/cache/invalidate [post]
func (h *AnalysisHandler) InvalidateCache(c *gin.Context) {
	if err := h.analysis.InvalidateCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analysis/system [get]
func (h *AnalysisHandler) System(c *gin.Context) {
	start := time.Now()
	respond(c, start, false, h.analysis.SystemMetrics())
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid query parameters"))
		return false
	}
	return true
}

// respond writes data with cache and timing metadata. A nil data value is the no-data result.
func respond(c *gin.Context, start time.Time, cacheHit bool, data interface{}) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	if data == nil {
		response.NoData(c, meta)
		return
	}
	response.JSON(c, http.StatusOK, data, meta)
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-analytics/internal/dto"
	"github.com/noah-isme/sma-score-analytics/internal/models"
	appErrors "github.com/noah-isme/sma-score-analytics/pkg/errors"
	"github.com/noah-isme/sma-score-analytics/pkg/export"
)

const (
	exportTypeSummary = "summary"
	exportTypeRank    = "rank"
	exportTypeReport  = "ai-analysis"

	contentTypeCSV  = "text/csv"
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type analysisSource interface {
	Summary(ctx context.Context, query dto.AnalysisFilterQuery) (*models.SummaryStats, bool, error)
	Rankings(ctx context.Context, query dto.RankQuery) (*RankingResult, bool, error)
	AIAnalysis(ctx context.Context, query dto.AnalysisFilterQuery) (*models.AnalysisReport, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService turns analysis results into downloadable CSV, PDF or XLSX files.
type ExportService struct {
	analysis  analysisSource
	csv       csvRenderer
	pdf       pdfRenderer
	xlsx      xlsxRenderer
	validator *validator.Validate
	logger    *zap.Logger
	maxRows   int
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(analysis analysisSource, validate *validator.Validate, logger *zap.Logger, maxRows int, csv csvRenderer, pdf pdfRenderer, xlsx xlsxRenderer) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{
		analysis:  analysis,
		csv:       csv,
		pdf:       pdf,
		xlsx:      xlsx,
		validator: validate,
		logger:    logger,
		maxRows:   maxRows,
		now:       time.Now,
	}
}

// Export renders the requested analysis in the requested format.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid export parameters")
	}

	dataset, title, err := s.buildDataset(ctx, query)
	if err != nil {
		return nil, err
	}

	var (
		payload     []byte
		contentType string
	)
	switch query.Format {
	case "csv":
		payload, err = s.csv.Render(dataset)
		contentType = contentTypeCSV
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
		contentType = contentTypePDF
	case "xlsx":
		payload, err = s.xlsx.Render(dataset)
		contentType = contentTypeXLSX
	}
	if err != nil {
		s.logger.Error("render analysis export", zap.String("type", query.Type), zap.String("format", query.Format), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render export")
	}

	filename := fmt.Sprintf("analysis-%s-%s.%s", query.Type, s.now().UTC().Format("20060102-150405"), query.Format)
	s.logger.Info("analysis export generated", zap.String("file", filename), zap.Int("rows", len(dataset.Rows)))
	return &dto.ExportFile{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, query dto.ExportQuery) (export.Dataset, string, error) {
	switch query.Type {
	case exportTypeSummary:
		stats, _, err := s.analysis.Summary(ctx, query.AnalysisFilterQuery)
		if err != nil {
			return export.Dataset{}, "", err
		}
		if stats == nil {
			return export.Dataset{}, "", appErrors.ErrNoData
		}
		return summaryDataset(stats), "Score summary", nil
	case exportTypeRank:
		result, _, err := s.analysis.Rankings(ctx, query.RankQuery)
		if err != nil {
			return export.Dataset{}, "", err
		}
		if result == nil {
			return export.Dataset{}, "", appErrors.ErrNoData
		}
		return s.rankDataset(result), "Score ranking", nil
	case exportTypeReport:
		report, _, err := s.analysis.AIAnalysis(ctx, query.AnalysisFilterQuery)
		if err != nil {
			return export.Dataset{}, "", err
		}
		if report == nil {
			return export.Dataset{}, "", appErrors.ErrNoData
		}
		return reportDataset(report), "Score analysis report", nil
	}
	return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export type")
}

func summaryDataset(stats *models.SummaryStats) export.Dataset {
	metric := func(name string, value float64) map[string]string {
		return map[string]string{"metric": name, "value": formatNumber(value)}
	}
	return export.Dataset{
		Headers: []string{"metric", "value"},
		Rows: []map[string]string{
			{"metric": "total", "value": strconv.Itoa(stats.Total)},
			metric("average", stats.Average),
			metric("max", stats.Max),
			metric("min", stats.Min),
			metric("median", stats.Median),
			metric("standardDeviation", stats.StandardDeviation),
			{"metric": "excellent", "value": strconv.Itoa(stats.Distribution.Excellent)},
			{"metric": "good", "value": strconv.Itoa(stats.Distribution.Good)},
			{"metric": "medium", "value": strconv.Itoa(stats.Distribution.Medium)},
			{"metric": "pass", "value": strconv.Itoa(stats.Distribution.Pass)},
			{"metric": "fail", "value": strconv.Itoa(stats.Distribution.Fail)},
			metric("excellentRate", stats.Rates.ExcellentRate),
			metric("goodRate", stats.Rates.GoodRate),
			metric("passRate", stats.Rates.PassRate),
		},
	}
}

func (s *ExportService) rankDataset(result *RankingResult) export.Dataset {
	entries := result.Rankings
	var notes []string
	if result.Standing != nil {
		entries = result.Standing.Rankings
		if me := result.Standing.MyRank; me != nil {
			notes = append(notes, fmt.Sprintf("%s is ranked %d with a total of %s", me.StudentName, me.Rank, formatNumber(me.TotalScore)))
		}
	}
	if s.maxRows > 0 && len(entries) > s.maxRows {
		notes = append(notes, fmt.Sprintf("showing the first %d of %d students", s.maxRows, len(entries)))
		entries = entries[:s.maxRows]
	}

	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"rank":         strconv.Itoa(entry.Rank),
			"studentNo":    entry.StudentNo,
			"studentName":  entry.StudentName,
			"totalScore":   formatNumber(entry.TotalScore),
			"avgScore":     formatNumber(entry.AvgScore),
			"subjectCount": strconv.Itoa(entry.SubjectCount),
		})
	}
	return export.Dataset{
		Headers: []string{"rank", "studentNo", "studentName", "totalScore", "avgScore", "subjectCount"},
		Rows:    rows,
		Notes:   notes,
	}
}

func reportDataset(report *models.AnalysisReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.CourseAnalysis))
	for _, course := range report.CourseAnalysis {
		rows = append(rows, map[string]string{
			"course":  course.CourseName,
			"average": formatNumber(course.Average),
			"status":  string(course.Status),
		})
	}
	notes := make([]string, 0, len(report.Recommendations)+len(report.AIInsight)+len(report.Teaching))
	notes = append(notes, report.Recommendations...)
	notes = append(notes, report.AIInsight...)
	notes = append(notes, report.Teaching...)
	return export.Dataset{
		Headers: []string{"course", "average", "status"},
		Rows:    rows,
		Notes:   notes,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

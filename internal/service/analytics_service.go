package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-score-analytics/internal/analytics"
	"github.com/noah-isme/sma-score-analytics/internal/dto"
	"github.com/noah-isme/sma-score-analytics/internal/models"
	appErrors "github.com/noah-isme/sma-score-analytics/pkg/errors"
)

// AnalysisCachePattern matches every cached analysis result.
const AnalysisCachePattern = "analysis:*"

// ScoreReader describes the persistence layer required by AnalyticsService.
type ScoreReader interface {
	ListScores(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreRecord, error)
	ListStudentsByClass(ctx context.Context, classID string) ([]models.StudentRef, error)
	FindStudent(ctx context.Context, studentID string) (*models.StudentRef, error)
	StudentTrend(ctx context.Context, studentID, courseID string) ([]models.TrendPoint, error)
}

// AnalyticsOptions tunes ranking output and cache lifetime.
type AnalyticsOptions struct {
	TopN     int
	TieAware bool
	CacheTTL time.Duration
}

// RankingResult carries either the full cohort ranking or one student's standing.
type RankingResult struct {
	Rankings []models.RankEntry      `json:"rankings,omitempty"`
	Standing *models.StudentStanding `json:"standing,omitempty"`
}

// AnalyticsService loads score cohorts and runs them through the analytics engine with cache integration.
type AnalyticsService struct {
	repo      ScoreReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	opts      AnalyticsOptions
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo ScoreReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, opts AnalyticsOptions) *AnalyticsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopN <= 0 {
		opts.TopN = analytics.DefaultTopN
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, opts: opts}
}

// Summary returns descriptive statistics for the filtered cohort. A nil result means no score data.
func (s *AnalyticsService) Summary(ctx context.Context, query dto.AnalysisFilterQuery) (*models.SummaryStats, bool, error) {
	if err := s.validate(query); err != nil {
		return nil, false, err
	}
	key := cacheKey("summary", "exam", query.ExamID, "class", query.ClassID, "course", query.CourseID)

	var cached models.SummaryStats
	if hit := s.cache.Fetch(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	scores, err := s.listScores(ctx, "analysis_summary", filterFromQuery(query))
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	stats := analytics.ComputeSummary(analytics.ScoreValues(scores))
	s.metrics.ObserveCompute("summary", len(scores), time.Since(start))
	if stats == nil {
		s.metrics.RecordNoData("summary")
		return nil, false, nil
	}
	s.cache.Store(ctx, key, stats, s.opts.CacheTTL)
	return stats, false, nil
}

// Rankings ranks the filtered cohort. When a student id is given the result is
// that student's standing within the cohort, resolving the class from the
// student when no class filter was supplied. A student without a class is
// ranked alone. Without a class or a student there is no cohort to rank.
func (s *AnalyticsService) Rankings(ctx context.Context, query dto.RankQuery) (*RankingResult, bool, error) {
	if err := s.validate(query); err != nil {
		return nil, false, err
	}

	filter := filterFromQuery(query.AnalysisFilterQuery)
	var unassigned *models.StudentRef
	if query.StudentID != "" && filter.ClassID == "" {
		student, err := s.repo.FindStudent(ctx, query.StudentID)
		if err != nil {
			return nil, false, s.readError(err, "failed to load student")
		}
		if student.ClassID == "" {
			unassigned = student
			filter.StudentID = student.StudentID
		}
		filter.ClassID = student.ClassID
	}
	if filter.ClassID == "" && unassigned == nil {
		s.metrics.RecordNoData("rank")
		return nil, false, nil
	}

	key := cacheKey("rank", "exam", filter.ExamID, "class", filter.ClassID, "student", filter.StudentID, "course", filter.CourseID, "ties", fmt.Sprint(s.opts.TieAware))
	var entries []models.RankEntry
	hit := s.cache.Fetch(ctx, key, &entries)
	if !hit {
		roster, scores, err := s.loadCohort(ctx, filter)
		if err != nil {
			return nil, false, err
		}
		if unassigned != nil {
			roster = []models.StudentRef{*unassigned}
		}
		start := time.Now()
		entries = analytics.ComputeRankings(roster, scores, analytics.RankOptions{TieAware: s.opts.TieAware})
		s.metrics.ObserveCompute("rank", len(scores), time.Since(start))
		if len(entries) == 0 {
			s.metrics.RecordNoData("rank")
			return nil, false, nil
		}
		s.cache.Store(ctx, key, entries, s.opts.CacheTTL)
	}

	if query.StudentID == "" {
		return &RankingResult{Rankings: entries}, hit, nil
	}
	standing := analytics.StudentStanding(entries, query.StudentID, s.opts.TopN)
	return &RankingResult{Standing: &standing}, hit, nil
}

// Trend returns a student's chronological scores together with their trend classification.
func (s *AnalyticsService) Trend(ctx context.Context, query dto.TrendQuery) (*models.StudentTrend, bool, error) {
	if err := s.validate(query); err != nil {
		return nil, false, err
	}
	key := cacheKey("trend", "student", query.StudentID, "course", query.CourseID)

	var cached models.StudentTrend
	if hit := s.cache.Fetch(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	var points []models.TrendPoint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.repo.FindStudent(gctx, query.StudentID)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		points, err = s.repo.StudentTrend(gctx, query.StudentID, query.CourseID)
		s.metrics.ObserveDBQuery("analysis_trend", time.Since(start))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, s.readError(err, "failed to load student trend")
	}
	if points == nil {
		points = []models.TrendPoint{}
	}

	start := time.Now()
	result := &models.StudentTrend{Trend: points, Summary: analytics.AnalyzeTrend(analytics.TrendScores(points))}
	s.metrics.ObserveCompute("trend", len(points), time.Since(start))
	if len(points) == 0 {
		s.metrics.RecordNoData("trend")
		return result, false, nil
	}
	s.cache.Store(ctx, key, result, s.opts.CacheTTL)
	return result, false, nil
}

// Compare contrasts two students course by course on one exam. A nil result means neither student has scores.
func (s *AnalyticsService) Compare(ctx context.Context, query dto.CompareQuery) (*models.Comparison, bool, error) {
	if err := s.validate(query); err != nil {
		return nil, false, err
	}
	key := cacheKey("compare", "exam", query.ExamID, "first", query.StudentID1, "second", query.StudentID2)

	var cached models.Comparison
	if hit := s.cache.Fetch(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	var first, second []models.ScoreRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		first, err = s.listScores(gctx, "analysis_compare", models.ScoreFilter{ExamID: query.ExamID, StudentID: query.StudentID1})
		return err
	})
	g.Go(func() error {
		var err error
		second, err = s.listScores(gctx, "analysis_compare", models.ScoreFilter{ExamID: query.ExamID, StudentID: query.StudentID2})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	comparison := analytics.CompareStudents(first, second)
	s.metrics.ObserveCompute("compare", len(first)+len(second), time.Since(start))
	if comparison == nil {
		s.metrics.RecordNoData("compare")
		return nil, false, nil
	}
	s.cache.Store(ctx, key, comparison, s.opts.CacheTTL)
	return comparison, false, nil
}

// AIAnalysis produces the narrative cohort report. A nil result means no score data.
func (s *AnalyticsService) AIAnalysis(ctx context.Context, query dto.AnalysisFilterQuery) (*models.AnalysisReport, bool, error) {
	if err := s.validate(query); err != nil {
		return nil, false, err
	}
	key := cacheKey("report", "exam", query.ExamID, "class", query.ClassID, "course", query.CourseID)

	var cached models.AnalysisReport
	if hit := s.cache.Fetch(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	scores, err := s.listScores(ctx, "analysis_report", filterFromQuery(query))
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	report := analytics.GenerateAnalysis(scores)
	s.metrics.ObserveCompute("ai_analysis", len(scores), time.Since(start))
	if report == nil {
		s.metrics.RecordNoData("ai_analysis")
		return nil, false, nil
	}
	s.cache.Store(ctx, key, report, s.opts.CacheTTL)
	return report, false, nil
}

// InvalidateCache drops every cached analysis result.
func (s *AnalyticsService) InvalidateCache(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, AnalysisCachePattern); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrUnavailable, "failed to invalidate analysis cache")
	}
	s.logger.Info("analysis cache invalidated")
	return nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	return s.metrics.Snapshot()
}

func (s *AnalyticsService) validate(query interface{}) error {
	if err := s.validator.Struct(query); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrValidation, "invalid query parameters")
	}
	return nil
}

func (s *AnalyticsService) listScores(ctx context.Context, label string, filter models.ScoreFilter) ([]models.ScoreRecord, error) {
	start := time.Now()
	scores, err := s.repo.ListScores(ctx, filter)
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return nil, s.readError(err, "failed to load scores")
	}
	return scores, nil
}

// loadCohort fetches the class roster and the score records concurrently.
func (s *AnalyticsService) loadCohort(ctx context.Context, filter models.ScoreFilter) ([]models.StudentRef, []models.ScoreRecord, error) {
	var (
		roster []models.StudentRef
		scores []models.ScoreRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	if filter.ClassID != "" {
		g.Go(func() error {
			start := time.Now()
			var err error
			roster, err = s.repo.ListStudentsByClass(gctx, filter.ClassID)
			s.metrics.ObserveDBQuery("analysis_roster", time.Since(start))
			if err != nil {
				return s.readError(err, "failed to load class roster")
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		scores, err = s.listScores(gctx, "analysis_rank", filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return roster, scores, nil
}

// readError keeps typed errors and wraps storage failures as internal errors.
func (s *AnalyticsService) readError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.WrapAs(err, appErrors.ErrInternal, message)
}

func filterFromQuery(query dto.AnalysisFilterQuery) models.ScoreFilter {
	return models.ScoreFilter{ExamID: query.ExamID, ClassID: query.ClassID, CourseID: query.CourseID}
}

package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-analytics/internal/dto"
	"github.com/noah-isme/sma-score-analytics/internal/models"
	appErrors "github.com/noah-isme/sma-score-analytics/pkg/errors"
)

type mockScoreRepo struct {
	mu       sync.Mutex
	scores   []models.ScoreRecord
	byExam   map[string][]models.ScoreRecord
	roster   []models.StudentRef
	students map[string]models.StudentRef
	trend    []models.TrendPoint

	scoreErr   error
	scoreCalls int
	filters    []models.ScoreFilter
	rosterCall int
}

func (m *mockScoreRepo) ListScores(_ context.Context, filter models.ScoreFilter) ([]models.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoreCalls++
	m.filters = append(m.filters, filter)
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}
	if filter.StudentID != "" {
		var out []models.ScoreRecord
		for _, s := range m.scores {
			if s.StudentID == filter.StudentID {
				out = append(out, s)
			}
		}
		return out, nil
	}
	return m.scores, nil
}

func (m *mockScoreRepo) ListStudentsByClass(_ context.Context, _ string) ([]models.StudentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosterCall++
	return m.roster, nil
}

func (m *mockScoreRepo) FindStudent(_ context.Context, id string) (*models.StudentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &student, nil
}

func (m *mockScoreRepo) StudentTrend(_ context.Context, _, _ string) ([]models.TrendPoint, error) {
	return m.trend, nil
}

type stubCacheRepo struct {
	mu       sync.Mutex
	store    map[string][]byte
	patterns []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	s.store = nil
	return nil
}

func classScores() []models.ScoreRecord {
	return []models.ScoreRecord{
		{StudentID: "st-1", ExamID: "ex-1", CourseID: "co-1", CourseName: "Math", Score: 95},
		{StudentID: "st-1", ExamID: "ex-1", CourseID: "co-2", CourseName: "Biology", Score: 85},
		{StudentID: "st-2", ExamID: "ex-1", CourseID: "co-1", CourseName: "Math", Score: 55},
		{StudentID: "st-2", ExamID: "ex-1", CourseID: "co-2", CourseName: "Biology", Score: 70},
	}
}

func newTestAnalyticsService(repo ScoreReader, cacheRepo CacheRepository, metrics *MetricsService) *AnalyticsService {
	cacheSvc := NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), cacheRepo != nil)
	return NewAnalyticsService(repo, cacheSvc, metrics, nil, zap.NewNop(), AnalyticsOptions{TopN: 1})
}

func TestAnalyticsServiceSummaryCaching(t *testing.T) {
	repo := &mockScoreRepo{scores: classScores()}
	svc := newTestAnalyticsService(repo, &stubCacheRepo{}, nil)
	query := dto.AnalysisFilterQuery{ExamID: "ex-1", ClassID: "cl-1"}
	ctx := context.Background()

	stats, hit, err := svc.Summary(ctx, query)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 76.25, stats.Average)
	assert.Equal(t, models.ScoreFilter{ExamID: "ex-1", ClassID: "cl-1"}, repo.filters[0])

	cached, hit, err := svc.Summary(ctx, query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, stats, cached)
	assert.Equal(t, 1, repo.scoreCalls)
}

func TestAnalyticsServiceSummaryNoData(t *testing.T) {
	metrics := NewMetricsService()
	repo := &mockScoreRepo{}
	cacheRepo := &stubCacheRepo{}
	svc := newTestAnalyticsService(repo, cacheRepo, metrics)

	stats, hit, err := svc.Summary(context.Background(), dto.AnalysisFilterQuery{ExamID: "ex-9"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, stats)
	assert.Empty(t, cacheRepo.store)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.noData.WithLabelValues("summary")))
}

func TestAnalyticsServiceSummaryRepositoryError(t *testing.T) {
	repo := &mockScoreRepo{scoreErr: assert.AnError}
	svc := newTestAnalyticsService(repo, nil, nil)

	_, _, err := svc.Summary(context.Background(), dto.AnalysisFilterQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAnalyticsServiceRankingsForClass(t *testing.T) {
	repo := &mockScoreRepo{
		scores: classScores(),
		roster: []models.StudentRef{
			{StudentID: "st-2", Name: "Bima", ClassID: "cl-1"},
			{StudentID: "st-1", Name: "Ayu", ClassID: "cl-1"},
			{StudentID: "st-3", Name: "Citra", ClassID: "cl-1"},
		},
	}
	svc := newTestAnalyticsService(repo, nil, nil)

	result, _, err := svc.Rankings(context.Background(), dto.RankQuery{AnalysisFilterQuery: dto.AnalysisFilterQuery{ClassID: "cl-1"}})
	require.NoError(t, err)
	require.Len(t, result.Rankings, 3)
	assert.Nil(t, result.Standing)
	assert.Equal(t, "st-1", result.Rankings[0].StudentID)
	assert.Equal(t, 180.0, result.Rankings[0].TotalScore)
	assert.Equal(t, "st-3", result.Rankings[2].StudentID)
	assert.Equal(t, 0, result.Rankings[2].SubjectCount)
	assert.Equal(t, 1, repo.rosterCall)
}

func TestAnalyticsServiceRankingsStandingResolvesClass(t *testing.T) {
	repo := &mockScoreRepo{
		scores:   classScores(),
		roster:   []models.StudentRef{{StudentID: "st-1", Name: "Ayu"}, {StudentID: "st-2", Name: "Bima"}},
		students: map[string]models.StudentRef{"st-2": {StudentID: "st-2", Name: "Bima", ClassID: "cl-1"}},
	}
	cacheRepo := &stubCacheRepo{}
	svc := newTestAnalyticsService(repo, cacheRepo, nil)

	result, hit, err := svc.Rankings(context.Background(), dto.RankQuery{StudentID: "st-2", AnalysisFilterQuery: dto.AnalysisFilterQuery{ExamID: "ex-1"}})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotNil(t, result.Standing)
	require.NotNil(t, result.Standing.MyRank)
	assert.Equal(t, 2, result.Standing.MyRank.Rank)
	require.Len(t, result.Standing.Rankings, 1)
	assert.Equal(t, "st-1", result.Standing.Rankings[0].StudentID)
	assert.Equal(t, "cl-1", repo.filters[0].ClassID)
	assert.Contains(t, cacheRepo.store, "analysis:rank:exam=ex-1:class=cl-1:ties=false")
}

func TestAnalyticsServiceRankingsUnknownStudent(t *testing.T) {
	svc := newTestAnalyticsService(&mockScoreRepo{}, nil, nil)

	_, _, err := svc.Rankings(context.Background(), dto.RankQuery{StudentID: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAnalyticsServiceRankingsNoData(t *testing.T) {
	svc := newTestAnalyticsService(&mockScoreRepo{}, nil, nil)

	result, _, err := svc.Rankings(context.Background(), dto.RankQuery{AnalysisFilterQuery: dto.AnalysisFilterQuery{ClassID: "cl-1"}})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAnalyticsServiceRankingsWithoutClassOrStudent(t *testing.T) {
	metrics := NewMetricsService()
	repo := &mockScoreRepo{scores: classScores()}
	svc := newTestAnalyticsService(repo, nil, metrics)

	result, hit, err := svc.Rankings(context.Background(), dto.RankQuery{AnalysisFilterQuery: dto.AnalysisFilterQuery{ExamID: "ex-1"}})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, result)
	assert.Zero(t, repo.scoreCalls)
	assert.Zero(t, repo.rosterCall)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.noData.WithLabelValues("rank")))
}

func TestAnalyticsServiceRankingsStudentWithoutClass(t *testing.T) {
	repo := &mockScoreRepo{
		scores:   classScores(),
		students: map[string]models.StudentRef{"st-2": {StudentID: "st-2", Name: "Bima", StudentNo: "02"}},
	}
	cacheRepo := &stubCacheRepo{}
	svc := newTestAnalyticsService(repo, cacheRepo, nil)

	result, _, err := svc.Rankings(context.Background(), dto.RankQuery{StudentID: "st-2", AnalysisFilterQuery: dto.AnalysisFilterQuery{ExamID: "ex-1"}})
	require.NoError(t, err)
	require.NotNil(t, result.Standing)
	require.NotNil(t, result.Standing.MyRank)
	assert.Equal(t, 1, result.Standing.MyRank.Rank)
	assert.Equal(t, "Bima", result.Standing.MyRank.StudentName)
	assert.Equal(t, "02", result.Standing.MyRank.StudentNo)
	assert.Equal(t, 125.0, result.Standing.MyRank.TotalScore)
	require.Len(t, result.Standing.Rankings, 1)
	assert.Equal(t, "st-2", result.Standing.Rankings[0].StudentID)

	require.Len(t, repo.filters, 1)
	assert.Equal(t, "st-2", repo.filters[0].StudentID)
	assert.Empty(t, repo.filters[0].ClassID)
	assert.Zero(t, repo.rosterCall)
	assert.Contains(t, cacheRepo.store, "analysis:rank:exam=ex-1:student=st-2:ties=false")
}

func TestAnalyticsServiceTrend(t *testing.T) {
	repo := &mockScoreRepo{
		students: map[string]models.StudentRef{"st-1": {StudentID: "st-1"}},
		trend: []models.TrendPoint{
			{ExamRef: models.ExamRef{ExamID: "ex-1"}, Score: 60},
			{ExamRef: models.ExamRef{ExamID: "ex-2"}, Score: 62},
			{ExamRef: models.ExamRef{ExamID: "ex-3"}, Score: 75},
			{ExamRef: models.ExamRef{ExamID: "ex-4"}, Score: 80},
		},
	}
	svc := newTestAnalyticsService(repo, nil, nil)

	result, _, err := svc.Trend(context.Background(), dto.TrendQuery{StudentID: "st-1"})
	require.NoError(t, err)
	assert.Len(t, result.Trend, 4)
	assert.Equal(t, models.TrendRising, result.Summary.Trend)
}

func TestAnalyticsServiceTrendWithoutScores(t *testing.T) {
	repo := &mockScoreRepo{students: map[string]models.StudentRef{"st-1": {StudentID: "st-1"}}}
	cacheRepo := &stubCacheRepo{}
	svc := newTestAnalyticsService(repo, cacheRepo, nil)

	result, _, err := svc.Trend(context.Background(), dto.TrendQuery{StudentID: "st-1"})
	require.NoError(t, err)
	assert.NotNil(t, result.Trend)
	assert.Empty(t, result.Trend)
	assert.Equal(t, models.TrendStable, result.Summary.Trend)
	assert.Empty(t, cacheRepo.store)
}

func TestAnalyticsServiceTrendUnknownStudent(t *testing.T) {
	svc := newTestAnalyticsService(&mockScoreRepo{}, nil, nil)

	_, _, err := svc.Trend(context.Background(), dto.TrendQuery{StudentID: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAnalyticsServiceTrendValidation(t *testing.T) {
	svc := newTestAnalyticsService(&mockScoreRepo{}, nil, nil)

	_, _, err := svc.Trend(context.Background(), dto.TrendQuery{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.Trend(context.Background(), dto.TrendQuery{StudentID: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAnalyticsServiceCompare(t *testing.T) {
	repo := &mockScoreRepo{scores: classScores()}
	svc := newTestAnalyticsService(repo, nil, nil)

	result, _, err := svc.Compare(context.Background(), dto.CompareQuery{StudentID1: "st-1", StudentID2: "st-2", ExamID: "ex-1"})
	require.NoError(t, err)
	require.Len(t, result.Compare, 2)
	require.NotNil(t, result.Compare[0].Diff)
	assert.Equal(t, 40.0, *result.Compare[0].Diff)
	assert.Equal(t, 90.0, result.Average.Student1)
	assert.Equal(t, 62.5, result.Average.Student2)
	assert.Equal(t, 2, repo.scoreCalls)
}

func TestAnalyticsServiceCompareRequiresAllParameters(t *testing.T) {
	svc := newTestAnalyticsService(&mockScoreRepo{}, nil, nil)

	_, _, err := svc.Compare(context.Background(), dto.CompareQuery{StudentID1: "st-1", ExamID: "ex-1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAnalyticsServiceCompareNoData(t *testing.T) {
	svc := newTestAnalyticsService(&mockScoreRepo{}, nil, nil)

	result, _, err := svc.Compare(context.Background(), dto.CompareQuery{StudentID1: "st-1", StudentID2: "st-2", ExamID: "ex-1"})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAnalyticsServiceAIAnalysis(t *testing.T) {
	svc := newTestAnalyticsService(&mockScoreRepo{scores: classScores()}, nil, nil)

	report, hit, err := svc.AIAnalysis(context.Background(), dto.AnalysisFilterQuery{ExamID: "ex-1"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotNil(t, report)
	assert.Equal(t, 4, report.Overview.TotalRecords)
	assert.Len(t, report.CourseAnalysis, 2)
	assert.NotEmpty(t, report.Teaching)
}

func TestAnalyticsServiceInvalidateCache(t *testing.T) {
	repo := &mockScoreRepo{scores: classScores()}
	cacheRepo := &stubCacheRepo{}
	svc := newTestAnalyticsService(repo, cacheRepo, nil)
	ctx := context.Background()

	_, _, err := svc.Summary(ctx, dto.AnalysisFilterQuery{})
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateCache(ctx))
	assert.Equal(t, []string{AnalysisCachePattern}, cacheRepo.patterns)

	_, hit, err := svc.Summary(ctx, dto.AnalysisFilterQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.scoreCalls)
}

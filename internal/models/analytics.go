package models

import "time"

// ScoreDistribution counts scores per fixed band.
type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Medium    int `json:"medium"`
	Pass      int `json:"pass"`
	Fail      int `json:"fail"`
}

// Count returns the number of scores across all bands.
func (d ScoreDistribution) Count() int {
	return d.Excellent + d.Good + d.Medium + d.Pass + d.Fail
}

// ScoreRates expresses band counts as percentages of the cohort.
type ScoreRates struct {
	ExcellentRate float64 `json:"excellentRate"`
	GoodRate      float64 `json:"goodRate"`
	PassRate      float64 `json:"passRate"`
}

// SummaryStats aggregates a list of score values.
type SummaryStats struct {
	Total             int               `json:"total"`
	Average           float64           `json:"average"`
	Max               float64           `json:"max"`
	Min               float64           `json:"min"`
	Median            float64           `json:"median"`
	StandardDeviation float64           `json:"standardDeviation"`
	Distribution      ScoreDistribution `json:"distribution"`
	Rates             ScoreRates        `json:"rates"`
}

// RankEntry is one student's position in a cohort ranking.
type RankEntry struct {
	StudentID    string  `json:"studentId"`
	StudentName  string  `json:"studentName"`
	StudentNo    string  `json:"studentNo"`
	TotalScore   float64 `json:"totalScore"`
	AvgScore     float64 `json:"avgScore"`
	SubjectCount int     `json:"subjectCount"`
	Rank         int     `json:"rank"`
}

// StudentStanding combines one student's rank with the cohort leaderboard.
type StudentStanding struct {
	MyRank   *RankEntry  `json:"myRank"`
	Rankings []RankEntry `json:"rankings"`
}

// Trend classifies the direction of a score sequence.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// TrendResult describes the direction of a student's scores over time.
type TrendResult struct {
	Trend       Trend   `json:"trend"`
	Description string  `json:"description"`
	Slope       float64 `json:"slope"`
}

// StudentTrend pairs the chronological points with their trend classification.
type StudentTrend struct {
	Trend   []TrendPoint `json:"trend"`
	Summary TrendResult  `json:"summary"`
}

// CourseStatus flags whether a course average reaches the pass line.
type CourseStatus string

const (
	CourseStatusAdequate       CourseStatus = "adequate"
	CourseStatusNeedsAttention CourseStatus = "needs_attention"
)

// CourseAnalysis is the per-course breakdown of a cohort report.
type CourseAnalysis struct {
	CourseName string       `json:"courseName"`
	Average    float64      `json:"average"`
	Status     CourseStatus `json:"status"`
}

// AnalysisOverview summarises the whole cohort in a report.
type AnalysisOverview struct {
	TotalRecords int     `json:"totalRecords"`
	AverageScore float64 `json:"averageScore"`
	PassRate     float64 `json:"passRate"`
	TopScore     float64 `json:"topScore"`
	LowestScore  float64 `json:"lowestScore"`
}

// AnalysisReport is the narrative analysis of a cohort's scores.
type AnalysisReport struct {
	Overview        AnalysisOverview `json:"overview"`
	CourseAnalysis  []CourseAnalysis `json:"courseAnalysis"`
	WeakCourses     []string         `json:"weakCourses"`
	StrongCourses   []string         `json:"strongCourses"`
	Recommendations []string         `json:"recommendations"`
	AIInsight       []string         `json:"aiInsight"`
	Teaching        []string         `json:"teaching"`
}

// CourseComparison holds two students' scores for the same course.
type CourseComparison struct {
	CourseID   string   `json:"courseId"`
	CourseName string   `json:"courseName"`
	Score1     float64  `json:"score1"`
	Score2     *float64 `json:"score2"`
	Diff       *float64 `json:"diff"`
}

// ComparisonAverage contrasts the overall averages of two students.
type ComparisonAverage struct {
	Student1 float64 `json:"student1"`
	Student2 float64 `json:"student2"`
	Diff     float64 `json:"diff"`
}

// Comparison is a course-by-course contrast of two students on one exam.
type Comparison struct {
	Compare []CourseComparison `json:"compare"`
	Average ComparisonAverage  `json:"average"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sma-score-analytics/internal/models"
)

const strongCourseLimit = 3

// rule emits its message when the predicate holds for the cohort figures.
type rule struct {
	applies func(f cohortFigures) bool
	message func(f cohortFigures) string
}

type cohortFigures struct {
	average  float64
	passRate float64
	courses  []courseFigure
	weak     []string
}

type courseFigure struct {
	name    string
	average float64
}

func fixed(msg string) func(cohortFigures) string {
	return func(cohortFigures) string { return msg }
}

// recommendationRules are independent; every matching rule contributes.
var recommendationRules = []rule{
	{
		applies: func(f cohortFigures) bool { return f.passRate < 60 },
		message: fixed("overall pass rate is low, remedial tutoring is recommended"),
	},
	{
		applies: func(f cohortFigures) bool { return len(f.weak) > 0 },
		message: func(f cohortFigures) string {
			return "focus on these courses: " + strings.Join(f.weak, ", ")
		},
	},
	{
		applies: func(f cohortFigures) bool { return f.passRate >= 90 },
		message: fixed("overall performance is excellent, consider adding enrichment content"),
	},
}

// The ladders below are evaluated top down and stop at the first match.
var averageLadder = []rule{
	{
		applies: func(f cohortFigures) bool { return f.average >= 85 },
		message: fixed("overall scores are excellent and the learning atmosphere is good"),
	},
	{
		applies: func(f cohortFigures) bool { return f.average >= 70 },
		message: fixed("overall scores are average with considerable room for improvement"),
	},
	{
		applies: func(cohortFigures) bool { return true },
		message: fixed("overall scores are low and need close attention"),
	},
}

var passRateLadder = []rule{
	{
		applies: func(f cohortFigures) bool { return f.passRate >= 90 },
		message: fixed("pass rate is very high, fundamentals are well mastered"),
	},
	{
		applies: func(f cohortFigures) bool { return f.passRate >= 70 },
		message: fixed("pass rate is moderate, some students are struggling"),
	},
	{
		applies: func(cohortFigures) bool { return true },
		message: fixed("pass rate is low, strengthen foundational teaching and individual tutoring"),
	},
}

var courseContrast = rule{
	applies: func(f cohortFigures) bool {
		return len(f.courses) > 0 && f.courses[0].name != f.courses[len(f.courses)-1].name
	},
	message: func(f cohortFigures) string {
		return fmt.Sprintf("%s performs best, %s needs strengthening", f.courses[0].name, f.courses[len(f.courses)-1].name)
	},
}

var teachingBlocks = []struct {
	below  float64
	advice []string
}{
	{below: 60, advice: []string{
		"slow down the teaching pace and reinforce explanations of fundamentals",
		"add in-class exercises to consolidate material promptly",
		"provide one-to-one tutoring for struggling students",
	}},
	{below: 80, advice: []string{
		"keep the current teaching pace",
		"run targeted practice for weak courses",
		"encourage students to help each other",
	}},
}

var teachingDefault = []string{
	"raise the difficulty appropriately and broaden knowledge",
	"develop students' independent learning skills",
	"encourage students to take part in subject competitions",
}

// GenerateAnalysis produces the narrative report for a cohort. It returns nil
// when there are no scores.
func GenerateAnalysis(scores []models.ScoreRecord) *models.AnalysisReport {
	agg, ok := aggregateScores(ScoreValues(scores))
	if !ok {
		return nil
	}

	courses := courseAverages(scores)
	figures := cohortFigures{average: agg.mean, passRate: agg.passRate(), courses: courses}

	breakdown := make([]models.CourseAnalysis, 0, len(courses))
	strong := make([]string, 0, strongCourseLimit)
	weak := make([]string, 0)
	for i, c := range courses {
		status := models.CourseStatusAdequate
		if c.average < PassThreshold {
			status = models.CourseStatusNeedsAttention
			weak = append(weak, c.name)
		}
		if i < strongCourseLimit {
			strong = append(strong, c.name)
		}
		breakdown = append(breakdown, models.CourseAnalysis{
			CourseName: c.name,
			Average:    round(c.average, 1),
			Status:     status,
		})
	}
	figures.weak = weak

	return &models.AnalysisReport{
		Overview: models.AnalysisOverview{
			TotalRecords: agg.count,
			AverageScore: round(agg.mean, 1),
			PassRate:     round(figures.passRate, 1),
			TopScore:     agg.max,
			LowestScore:  agg.min,
		},
		CourseAnalysis:  breakdown,
		WeakCourses:     weak,
		StrongCourses:   strong,
		Recommendations: applyAll(recommendationRules, figures),
		AIInsight:       insights(figures),
		Teaching:        teachingAdvice(figures),
	}
}

// courseAverages groups scores by course name and sorts the averages descending,
// keeping first-seen order for equal averages.
func courseAverages(scores []models.ScoreRecord) []courseFigure {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	names := make([]string, 0)
	for _, s := range scores {
		if _, seen := counts[s.CourseName]; !seen {
			names = append(names, s.CourseName)
		}
		sums[s.CourseName] += s.Score
		counts[s.CourseName]++
	}

	courses := make([]courseFigure, 0, len(names))
	for _, name := range names {
		courses = append(courses, courseFigure{name: name, average: sums[name] / float64(counts[name])})
	}
	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].average > courses[j].average
	})
	return courses
}

func applyAll(rules []rule, f cohortFigures) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.applies(f) {
			out = append(out, r.message(f))
		}
	}
	return out
}

func firstMatch(ladder []rule, f cohortFigures) string {
	for _, r := range ladder {
		if r.applies(f) {
			return r.message(f)
		}
	}
	return ""
}

func insights(f cohortFigures) []string {
	out := []string{firstMatch(averageLadder, f), firstMatch(passRateLadder, f)}
	if courseContrast.applies(f) {
		out = append(out, courseContrast.message(f))
	}
	return out
}

func teachingAdvice(f cohortFigures) []string {
	block := teachingDefault
	for _, b := range teachingBlocks {
		if f.passRate < b.below {
			block = b.advice
			break
		}
	}
	advice := make([]string, 0, len(block)+len(f.weak))
	advice = append(advice, block...)
	for _, name := range f.weak {
		advice = append(advice, fmt.Sprintf("add more practice and interaction for %s", name))
	}
	return advice
}

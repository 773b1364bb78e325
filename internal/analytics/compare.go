package analytics

import "github.com/noah-isme/sma-score-analytics/internal/models"

// CompareStudents contrasts two students course by course, following the course
// order of the first student. Courses are matched by course id. It returns nil
// when neither student has scores.
func CompareStudents(first, second []models.ScoreRecord) *models.Comparison {
	if len(first) == 0 && len(second) == 0 {
		return nil
	}

	byCourse := make(map[string]float64, len(second))
	for _, s := range second {
		if _, seen := byCourse[s.CourseID]; !seen {
			byCourse[s.CourseID] = s.Score
		}
	}

	rows := make([]models.CourseComparison, 0, len(first))
	for _, s := range first {
		row := models.CourseComparison{
			CourseID:   s.CourseID,
			CourseName: s.CourseName,
			Score1:     s.Score,
		}
		if other, ok := byCourse[s.CourseID]; ok {
			score2 := other
			diff := round(s.Score-other, 1)
			row.Score2 = &score2
			row.Diff = &diff
		}
		rows = append(rows, row)
	}

	avg1 := mean(ScoreValues(first))
	avg2 := mean(ScoreValues(second))
	return &models.Comparison{
		Compare: rows,
		Average: models.ComparisonAverage{
			Student1: round(avg1, 1),
			Student2: round(avg2, 1),
			Diff:     round(avg1-avg2, 1),
		},
	}
}

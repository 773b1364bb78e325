package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-score-analytics/internal/models"
	appErrors "github.com/noah-isme/sma-score-analytics/pkg/errors"
)

// ScoreRepository reads the score, student, exam and course rows consumed by the analytics engine.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository instantiates the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListScores returns the score records matching the filter in insertion order.
func (r *ScoreRepository) ListScores(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreRecord, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT s.student_id, s.exam_id, s.course_id, s.score, c.course_name
        FROM scores s
        JOIN courses c ON c.id = s.course_id`)
	if filter.ClassID != "" {
		builder.WriteString(" JOIN students st ON st.id = s.student_id")
	}
	builder.WriteString(" WHERE 1=1")

	var args []interface{}
	if filter.ExamID != "" {
		args = append(args, filter.ExamID)
		builder.WriteString(fmt.Sprintf(" AND s.exam_id = $%d", len(args)))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		builder.WriteString(fmt.Sprintf(" AND st.class_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		builder.WriteString(fmt.Sprintf(" AND s.course_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		builder.WriteString(fmt.Sprintf(" AND s.student_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY s.id ASC")

	var scores []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &scores, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	return scores, nil
}

// ListStudentsByClass returns the class roster ordered by id.
func (r *ScoreRepository) ListStudentsByClass(ctx context.Context, classID string) ([]models.StudentRef, error) {
	const query = `SELECT id, name, student_no, COALESCE(CAST(class_id AS TEXT), '') AS class_id
        FROM students WHERE class_id = $1 ORDER BY id ASC`

	var students []models.StudentRef
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("query class roster: %w", err)
	}
	return students, nil
}

// FindStudent loads one student reference.
func (r *ScoreRepository) FindStudent(ctx context.Context, studentID string) (*models.StudentRef, error) {
	const query = `SELECT id, name, student_no, COALESCE(CAST(class_id AS TEXT), '') AS class_id
        FROM students WHERE id = $1`

	var student models.StudentRef
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// StudentTrend returns a student's scores ordered by exam start date, oldest first.
func (r *ScoreRepository) StudentTrend(ctx context.Context, studentID, courseID string) ([]models.TrendPoint, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT s.exam_id, e.exam_name, e.exam_type, e.academic_year, e.semester, e.start_date,
        s.course_id, c.course_name, s.score
        FROM scores s
        JOIN exams e ON e.id = s.exam_id
        JOIN courses c ON c.id = s.course_id
        WHERE s.student_id = $1`)
	args := []interface{}{studentID}
	if courseID != "" {
		args = append(args, courseID)
		builder.WriteString(fmt.Sprintf(" AND s.course_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY e.start_date ASC, s.id ASC")

	var points []models.TrendPoint
	if err := r.db.SelectContext(ctx, &points, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query student trend: %w", err)
	}
	return points, nil
}

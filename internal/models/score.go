package models

import "time"

// ScoreRecord is a single exam score for one student in one course.
type ScoreRecord struct {
	StudentID  string  `db:"student_id" json:"studentId"`
	ExamID     string  `db:"exam_id" json:"examId"`
	CourseID   string  `db:"course_id" json:"courseId"`
	Score      float64 `db:"score" json:"score"`
	CourseName string  `db:"course_name" json:"courseName"`
}

// StudentRef identifies a student in ranking output.
type StudentRef struct {
	StudentID string `db:"id" json:"studentId"`
	Name      string `db:"name" json:"name"`
	StudentNo string `db:"student_no" json:"studentNo"`
	ClassID   string `db:"class_id" json:"classId"`
}

// ExamRef carries the exam attributes used to order and label trend points.
type ExamRef struct {
	ExamID       string     `db:"exam_id" json:"examId"`
	ExamName     string     `db:"exam_name" json:"examName"`
	ExamType     int        `db:"exam_type" json:"examType"`
	AcademicYear int        `db:"academic_year" json:"academicYear"`
	Semester     int        `db:"semester" json:"semester"`
	StartDate    *time.Time `db:"start_date" json:"startDate,omitempty"`
}

// ScoreFilter scopes the score records selected for one analysis call.
type ScoreFilter struct {
	ExamID    string
	ClassID   string
	CourseID  string
	StudentID string
}

// TrendPoint is one exam score in a student's chronological score history.
type TrendPoint struct {
	ExamRef
	CourseID   string  `db:"course_id" json:"courseId"`
	CourseName string  `db:"course_name" json:"courseName"`
	Score      float64 `db:"score" json:"score"`
}

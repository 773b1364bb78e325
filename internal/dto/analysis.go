package dto

// AnalysisFilterQuery scopes the score records used by summary, rank and ai-analysis.
type AnalysisFilterQuery struct {
	ExamID   string `form:"examId" json:"examId" validate:"omitempty,max=64"`
	ClassID  string `form:"classId" json:"classId" validate:"omitempty,max=64"`
	CourseID string `form:"courseId" json:"courseId" validate:"omitempty,max=64"`
}

// RankQuery extends the filter with an optional student whose standing is requested.
type RankQuery struct {
	AnalysisFilterQuery
	StudentID string `form:"studentId" json:"studentId" validate:"omitempty,max=64"`
}

// TrendQuery selects one student's score history.
type TrendQuery struct {
	StudentID string `form:"studentId" json:"studentId" validate:"required,max=64"`
	CourseID  string `form:"courseId" json:"courseId" validate:"omitempty,max=64"`
}

// CompareQuery contrasts two students on one exam.
type CompareQuery struct {
	StudentID1 string `form:"studentId1" json:"studentId1" validate:"required,max=64"`
	StudentID2 string `form:"studentId2" json:"studentId2" validate:"required,max=64"`
	ExamID     string `form:"examId" json:"examId" validate:"required,max=64"`
}

// ExportQuery requests a rendered analysis file.
type ExportQuery struct {
	RankQuery
	Type   string `form:"type" json:"type" validate:"required,oneof=summary rank ai-analysis"`
	Format string `form:"format" json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ExportFile is a rendered analysis export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

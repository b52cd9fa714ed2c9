package model

// QuizAnswer records one submitted answer. Rows are append-only; correctness is
// never edited after the fact.
// swagger:model QuizAnswer
type QuizAnswer struct {
	BaseModel
	UserID     uint `gorm:"index:idx_answer_user_course;not null" json:"userId"`
	CourseID   uint `gorm:"index:idx_answer_user_course;not null" json:"courseId"`
	QuestionID uint `gorm:"index;not null" json:"questionId"`
	// -1 when the countdown expired with nothing selected.
	SelectedAnswer int  `gorm:"not null" json:"selectedAnswer"`
	IsCorrect      bool `gorm:"not null" json:"isCorrect"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}

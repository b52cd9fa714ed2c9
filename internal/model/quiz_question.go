package model

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	CourseID uint     `gorm:"index;not null" json:"courseId"`
	Question string   `gorm:"type:text;not null" json:"question"`
	Options  []string `gorm:"serializer:json;type:json" json:"options"`
	// Index into Options of the correct option.
	CorrectAnswer int `gorm:"not null" json:"correctAnswer"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

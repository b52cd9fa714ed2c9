package model

import "time"

// LessonProgress is the per-learner-per-lesson completion mark. Upserted whole,
// never partially updated.
// swagger:model LessonProgress
type LessonProgress struct {
	BaseModel
	UserID      uint       `gorm:"index:idx_user_lesson,unique;not null" json:"userId"`
	LessonID    uint       `gorm:"index:idx_user_lesson,unique;not null" json:"lessonId"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

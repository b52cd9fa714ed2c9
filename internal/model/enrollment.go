package model

// Enrollment links a learner to a course and caches the blended completion
// percentage. The cached value is derived state: lesson marks and quiz answers
// are the source of truth, and the progress service rewrites it only on change.
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID   uint   `gorm:"index:idx_user_course,unique;not null" json:"userId"`
	CourseID uint   `gorm:"index:idx_user_course,unique;not null" json:"courseId"`
	Progress int    `gorm:"default:0" json:"progress"`
	Course   Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

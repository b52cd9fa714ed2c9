package model

// swagger:model Course
type Course struct {
	BaseModel
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	ImageURL    string   `gorm:"size:512" json:"imageUrl"`
	Duration    string   `gorm:"size:50" json:"duration"`
	IsFeatured  bool     `gorm:"default:false" json:"isFeatured"`
	Lessons     []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

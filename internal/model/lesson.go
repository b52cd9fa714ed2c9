package model

// Lesson ordering follows lesson_order with id as tiebreak. lesson_order is not
// unique per course; duplicates keep insertion order, which is what the catalog
// has always shown.
// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID    uint   `gorm:"index;not null" json:"courseId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Content     string `gorm:"type:longtext" json:"content"`
	LessonOrder int    `gorm:"default:1" json:"lessonOrder"`
	CodeExample string `gorm:"type:text" json:"codeExample,omitempty"`
	VideoURL    string `gorm:"size:512" json:"videoUrl,omitempty"`
	// Filled by the admin video upload, probed from the file itself.
	VideoDuration float64 `gorm:"default:0" json:"videoDuration,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

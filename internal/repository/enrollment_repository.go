package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) Find(userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Preload("Course").
		Where("user_id = ?", userID).
		Order("id").
		Find(&enrollments).Error
	return enrollments, err
}

// UpdateProgress writes the cached percentage for one (user, course) pair. The
// update is scoped to the key so concurrent recomputations stay last-writer-wins
// on exactly this column.
func (r *EnrollmentRepository) UpdateProgress(userID, courseID uint, progress int) error {
	return r.DB.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("progress", progress).Error
}

func (r *EnrollmentRepository) CountByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

type EnrollmentStats struct {
	Total       int64   `json:"total"`
	AvgProgress float64 `json:"avgProgress"`
}

func (r *EnrollmentRepository) Stats() (*EnrollmentStats, error) {
	var stats EnrollmentStats
	err := r.DB.Model(&model.Enrollment{}).
		Select("COUNT(*) AS total, IFNULL(AVG(progress), 0) AS avg_progress").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

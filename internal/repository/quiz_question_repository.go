package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type QuizQuestionRepository struct {
	DB *gorm.DB
}

func NewQuizQuestionRepository(db *gorm.DB) *QuizQuestionRepository {
	return &QuizQuestionRepository{DB: db}
}

func (r *QuizQuestionRepository) Create(question *model.QuizQuestion) error {
	return r.DB.Create(question).Error
}

func (r *QuizQuestionRepository) FindByID(id uint) (*model.QuizQuestion, error) {
	var question model.QuizQuestion
	err := r.DB.First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuizQuestionRepository) FindByCourse(courseID uint) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	err := r.DB.Where("course_id = ?", courseID).Order("id").Find(&questions).Error
	return questions, err
}

func (r *QuizQuestionRepository) CountByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizQuestion{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (r *QuizQuestionRepository) Update(question *model.QuizQuestion) error {
	return r.DB.Save(question).Error
}

func (r *QuizQuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.QuizQuestion{}, id).Error
}

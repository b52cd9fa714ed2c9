package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAnswerRepository struct {
	DB *gorm.DB
}

func NewQuizAnswerRepository(db *gorm.DB) *QuizAnswerRepository {
	return &QuizAnswerRepository{DB: db}
}

// Create appends one answer record. Answers are never updated afterwards.
func (r *QuizAnswerRepository) Create(answer *model.QuizAnswer) error {
	return r.DB.Create(answer).Error
}

func (r *QuizAnswerRepository) CountCorrect(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAnswer{}).
		Where("user_id = ? AND course_id = ? AND is_correct = ?", userID, courseID, true).
		Count(&count).Error
	return count, err
}

// AnsweredQuestionIDs returns the distinct questions this learner has already
// answered for the course, used to filter the next quiz session.
func (r *QuizAnswerRepository) AnsweredQuestionIDs(userID, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.QuizAnswer{}).
		Distinct("question_id").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Pluck("question_id", &ids).Error
	return ids, err
}

func (r *QuizAnswerRepository) ListByUserCourse(userID, courseID uint) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("id").
		Find(&answers).Error
	return answers, err
}

package service

import (
	"errors"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"gorm.io/gorm"
)

type EnrollmentService struct {
	db             *gorm.DB
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	LessonRepo     *repository.LessonRepository
}

func NewEnrollmentService(db *gorm.DB, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository, lessonRepo *repository.LessonRepository) *EnrollmentService {
	return &EnrollmentService{
		db:             db,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		LessonRepo:     lessonRepo,
	}
}

// Enroll creates the learner's enrollment at zero progress. Re-enrolling an
// already enrolled learner is rejected rather than resetting their record.
func (s *EnrollmentService) Enroll(userID, courseID uint) (*model.Enrollment, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	if _, err := s.EnrollmentRepo.Find(userID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Progress: 0,
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Unenroll removes the enrollment together with every progress fact that fed
// it. The deletes run in one transaction so a failure leaves all of the
// learner's records for the course intact.
func (s *EnrollmentService) Unenroll(userID, courseID uint) error {
	if _, err := s.EnrollmentRepo.Find(userID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotEnrolled
		}
		return err
	}

	lessonIDs, err := s.LessonRepo.IDsByCourse(courseID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
			Delete(&model.QuizAnswer{}).Error; err != nil {
			return err
		}
		if len(lessonIDs) > 0 {
			if err := tx.Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
				Delete(&model.LessonProgress{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
			Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return nil
	})
}

// MyLearning lists the learner's enrollments with course data preloaded.
func (s *EnrollmentService) MyLearning(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

func (s *EnrollmentService) IsEnrolled(userID, courseID uint) (bool, error) {
	if _, err := s.EnrollmentRepo.Find(userID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

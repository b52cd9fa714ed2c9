package service

import (
	"errors"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"gorm.io/gorm"
)

// LessonView is a list entry decorated with the caller's completion mark.
type LessonView struct {
	model.Lesson
	Completed bool `json:"completed"`
}

type LessonDetail struct {
	model.Lesson
	Completed  bool `json:"completed"`
	IsEnrolled bool `json:"isEnrolled"`
}

type LessonService struct {
	LessonRepo     *repository.LessonRepository
	ProgressRepo   *repository.LessonProgressRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Progress       *ProgressService
}

func NewLessonService(lessonRepo *repository.LessonRepository, progressRepo *repository.LessonProgressRepository, enrollmentRepo *repository.EnrollmentRepository, progress *ProgressService) *LessonService {
	return &LessonService{
		LessonRepo:     lessonRepo,
		ProgressRepo:   progressRepo,
		EnrollmentRepo: enrollmentRepo,
		Progress:       progress,
	}
}

// ListByCourse returns the course's lessons in display order. When userID is
// non-zero each entry carries that learner's completion mark.
func (s *LessonService) ListByCourse(courseID, userID uint) ([]LessonView, error) {
	lessons, err := s.LessonRepo.FindByCourse(courseID)
	if err != nil {
		return nil, err
	}

	completed := map[uint]bool{}
	if userID != 0 && len(lessons) > 0 {
		ids := make([]uint, len(lessons))
		for i, l := range lessons {
			ids[i] = l.ID
		}
		completed, err = s.ProgressRepo.CompletionMap(userID, ids)
		if err != nil {
			return nil, err
		}
	}

	views := make([]LessonView, len(lessons))
	for i, l := range lessons {
		views[i] = LessonView{Lesson: l, Completed: completed[l.ID]}
	}
	return views, nil
}

func (s *LessonService) GetDetail(lessonID, userID uint) (*LessonDetail, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	detail := &LessonDetail{Lesson: *lesson}
	if userID != 0 {
		if detail.Completed, err = s.ProgressRepo.IsCompleted(userID, lessonID); err != nil {
			return nil, err
		}
		if _, err := s.EnrollmentRepo.Find(userID, lesson.CourseID); err == nil {
			detail.IsEnrolled = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return detail, nil
}

// Complete marks the lesson done for the learner, then recomputes and syncs
// the course progress. Completing a lesson twice is a no-op on the mark and
// leaves the aggregate unchanged.
func (s *LessonService) Complete(userID, lessonID uint) (int, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrLessonNotFound
		}
		return 0, err
	}

	if _, err := s.EnrollmentRepo.Find(userID, lesson.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrNotEnrolled
		}
		return 0, err
	}

	if err := s.ProgressRepo.Upsert(userID, lessonID, true); err != nil {
		return 0, err
	}
	return s.Progress.Recompute(userID, lesson.CourseID)
}

func (s *LessonService) CreateLesson(lesson *model.Lesson) error {
	return s.LessonRepo.Create(lesson)
}

func (s *LessonService) UpdateLesson(lessonID uint, updated *model.Lesson) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	lesson.Title = updated.Title
	lesson.Content = updated.Content
	lesson.LessonOrder = updated.LessonOrder
	lesson.CodeExample = updated.CodeExample
	lesson.VideoURL = updated.VideoURL
	lesson.VideoDuration = updated.VideoDuration
	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) DeleteLesson(lessonID uint) error {
	if _, err := s.LessonRepo.FindByID(lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}
	return s.LessonRepo.Delete(lessonID)
}

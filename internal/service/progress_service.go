package service

import (
	"errors"
	"math"

	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// ProgressStore is the narrow data-access surface the progress engine needs.
// Everything it reads is a source-of-truth record; the only thing it writes is
// the cached percentage on the enrollment row.
type ProgressStore interface {
	CountLessons(courseID uint) (int64, error)
	LessonIDs(courseID uint) ([]uint, error)
	CountCompletedLessons(userID uint, lessonIDs []uint) (int64, error)
	CountQuizQuestions(courseID uint) (int64, error)
	CountCorrectAnswers(userID, courseID uint) (int64, error)
	GetEnrollmentProgress(userID, courseID uint) (int, error)
	SetEnrollmentProgress(userID, courseID uint, progress int) error
}

// ProgressPublisher fans a changed percentage out to interested subscribers.
// Publishing is best effort; a failed publish never fails the write.
type ProgressPublisher interface {
	PublishProgress(userID, courseID uint, progress int)
}

// AggregateCompletion blends the lesson-completion ratio and the quiz
// correctness ratio into one 0-100 percentage, weighted 50/50. A course with no
// lessons or no questions contributes 0 for that half; the function itself
// cannot fail.
func AggregateCompletion(totalLessons, completedLessons, totalQuestions, correctAnswers int) int {
	var lessonRatio, quizRatio float64
	if totalLessons > 0 {
		lessonRatio = float64(completedLessons) / float64(totalLessons)
	}
	if totalQuestions > 0 {
		quizRatio = float64(correctAnswers) / float64(totalQuestions)
	}

	percentage := int(math.Round(lessonRatio*50 + quizRatio*50))
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	return percentage
}

type ProgressService struct {
	Store     ProgressStore
	Publisher ProgressPublisher
}

func NewProgressService(store ProgressStore, publisher ProgressPublisher) *ProgressService {
	return &ProgressService{
		Store:     store,
		Publisher: publisher,
	}
}

// Synchronize reconciles a freshly computed percentage with the stored one.
// stored == nil means the caller has not observed the stored value; the write
// then happens unconditionally. An unchanged value issues no write at all, so
// repeated recomputation from the same facts is free.
func (s *ProgressService) Synchronize(userID, courseID uint, computed int, stored *int) (bool, error) {
	if stored != nil && *stored == computed {
		monitoring.ProgressSyncCounter.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	if err := s.Store.SetEnrollmentProgress(userID, courseID, computed); err != nil {
		return false, err
	}

	monitoring.ProgressSyncCounter.WithLabelValues("written").Inc()
	if s.Publisher != nil {
		s.Publisher.PublishProgress(userID, courseID, computed)
	}
	return true, nil
}

// Recompute derives the blended percentage for an enrolled learner from the
// source records and synchronizes the enrollment cache. Returns ErrNotEnrolled
// when there is no enrollment to reconcile against.
func (s *ProgressService) Recompute(userID, courseID uint) (int, error) {
	totalLessons, err := s.Store.CountLessons(courseID)
	if err != nil {
		return 0, err
	}

	lessonIDs, err := s.Store.LessonIDs(courseID)
	if err != nil {
		return 0, err
	}

	completedLessons, err := s.Store.CountCompletedLessons(userID, lessonIDs)
	if err != nil {
		return 0, err
	}

	totalQuestions, err := s.Store.CountQuizQuestions(courseID)
	if err != nil {
		return 0, err
	}

	correctAnswers, err := s.Store.CountCorrectAnswers(userID, courseID)
	if err != nil {
		return 0, err
	}

	computed := AggregateCompletion(
		int(totalLessons), int(completedLessons),
		int(totalQuestions), int(correctAnswers),
	)

	storedValue, err := s.Store.GetEnrollmentProgress(userID, courseID)
	if err != nil {
		return 0, err
	}

	if _, err := s.Synchronize(userID, courseID, computed, &storedValue); err != nil {
		return 0, err
	}

	return computed, nil
}

// gormProgressStore adapts the repositories to the ProgressStore facade.
type gormProgressStore struct {
	lessons        *repository.LessonRepository
	lessonProgress *repository.LessonProgressRepository
	questions      *repository.QuizQuestionRepository
	answers        *repository.QuizAnswerRepository
	enrollments    *repository.EnrollmentRepository
}

func NewProgressStore(
	lessons *repository.LessonRepository,
	lessonProgress *repository.LessonProgressRepository,
	questions *repository.QuizQuestionRepository,
	answers *repository.QuizAnswerRepository,
	enrollments *repository.EnrollmentRepository,
) ProgressStore {
	return &gormProgressStore{
		lessons:        lessons,
		lessonProgress: lessonProgress,
		questions:      questions,
		answers:        answers,
		enrollments:    enrollments,
	}
}

func (g *gormProgressStore) CountLessons(courseID uint) (int64, error) {
	return g.lessons.CountByCourse(courseID)
}

func (g *gormProgressStore) LessonIDs(courseID uint) ([]uint, error) {
	return g.lessons.IDsByCourse(courseID)
}

func (g *gormProgressStore) CountCompletedLessons(userID uint, lessonIDs []uint) (int64, error) {
	return g.lessonProgress.CountCompleted(userID, lessonIDs)
}

func (g *gormProgressStore) CountQuizQuestions(courseID uint) (int64, error) {
	return g.questions.CountByCourse(courseID)
}

func (g *gormProgressStore) CountCorrectAnswers(userID, courseID uint) (int64, error) {
	return g.answers.CountCorrect(userID, courseID)
}

func (g *gormProgressStore) GetEnrollmentProgress(userID, courseID uint) (int, error) {
	enrollment, err := g.enrollments.Find(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrNotEnrolled
		}
		return 0, err
	}
	return enrollment.Progress, nil
}

func (g *gormProgressStore) SetEnrollmentProgress(userID, courseID uint, progress int) error {
	return g.enrollments.UpdateProgress(userID, courseID, progress)
}

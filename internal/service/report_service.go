package service

import (
	"learnsphere_backend/internal/repository"
)

// CourseGrade is one row of the learner's grade report. Percentages are
// recomputed from the underlying facts, never read from the enrollment cache.
type CourseGrade struct {
	CourseID         uint   `json:"courseId"`
	CourseTitle      string `json:"courseTitle"`
	TotalLessons     int    `json:"totalLessons"`
	CompletedLessons int    `json:"completedLessons"`
	TotalQuestions   int    `json:"totalQuestions"`
	CorrectAnswers   int    `json:"correctAnswers"`
	Percentage       int    `json:"percentage"`
}

type GradeReport struct {
	UserID  uint          `json:"userId"`
	Average int           `json:"average"`
	Courses []CourseGrade `json:"courses"`
}

type DashboardSummary struct {
	Users       int64   `json:"users"`
	Courses     int64   `json:"courses"`
	Enrollments int64   `json:"enrollments"`
	AvgProgress float64 `json:"avgProgress"`
}

type ReportService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	UserRepo       *repository.UserRepository
	CourseRepo     *repository.CourseRepository
	Progress       *ProgressService
}

func NewReportService(enrollmentRepo *repository.EnrollmentRepository, userRepo *repository.UserRepository, courseRepo *repository.CourseRepository, progress *ProgressService) *ReportService {
	return &ReportService{
		EnrollmentRepo: enrollmentRepo,
		UserRepo:       userRepo,
		CourseRepo:     courseRepo,
		Progress:       progress,
	}
}

// Grades builds the learner's report across every enrollment. Each course's
// percentage comes from the source facts, and any enrollment whose cached
// value drifted gets written back while we are here.
func (s *ReportService) Grades(userID uint) (*GradeReport, error) {
	enrollments, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	report := &GradeReport{UserID: userID, Courses: make([]CourseGrade, 0, len(enrollments))}
	sum := 0
	for _, e := range enrollments {
		grade, err := s.courseGrade(userID, e.CourseID, e.Course.Title, e.Progress)
		if err != nil {
			return nil, err
		}
		report.Courses = append(report.Courses, *grade)
		sum += grade.Percentage
	}

	if len(report.Courses) > 0 {
		report.Average = sum / len(report.Courses)
	}
	return report, nil
}

func (s *ReportService) courseGrade(userID, courseID uint, title string, cached int) (*CourseGrade, error) {
	store := s.Progress.Store

	totalLessons, err := store.CountLessons(courseID)
	if err != nil {
		return nil, err
	}
	lessonIDs, err := store.LessonIDs(courseID)
	if err != nil {
		return nil, err
	}
	completed, err := store.CountCompletedLessons(userID, lessonIDs)
	if err != nil {
		return nil, err
	}
	totalQuestions, err := store.CountQuizQuestions(courseID)
	if err != nil {
		return nil, err
	}
	correct, err := store.CountCorrectAnswers(userID, courseID)
	if err != nil {
		return nil, err
	}

	percentage := AggregateCompletion(int(totalLessons), int(completed), int(totalQuestions), int(correct))
	if _, err := s.Progress.Synchronize(userID, courseID, percentage, &cached); err != nil {
		return nil, err
	}

	return &CourseGrade{
		CourseID:         courseID,
		CourseTitle:      title,
		TotalLessons:     int(totalLessons),
		CompletedLessons: int(completed),
		TotalQuestions:   int(totalQuestions),
		CorrectAnswers:   int(correct),
		Percentage:       percentage,
	}, nil
}

// CourseProgress is one row of the lighter progress report: the cached
// percentage plus the lesson completion counts behind it.
type CourseProgress struct {
	CourseID         uint   `json:"courseId"`
	CourseTitle      string `json:"courseTitle"`
	Progress         int    `json:"progress"`
	TotalLessons     int    `json:"totalLessons"`
	CompletedLessons int    `json:"completedLessons"`
}

// ProgressReport lists the learner's enrollments with their cached
// percentages. Unlike Grades this reads the cache as is and does not
// reconcile it.
func (s *ReportService) ProgressReport(userID uint) ([]CourseProgress, error) {
	enrollments, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	report := make([]CourseProgress, 0, len(enrollments))
	for _, e := range enrollments {
		totalLessons, err := s.Progress.Store.CountLessons(e.CourseID)
		if err != nil {
			return nil, err
		}
		lessonIDs, err := s.Progress.Store.LessonIDs(e.CourseID)
		if err != nil {
			return nil, err
		}
		completed, err := s.Progress.Store.CountCompletedLessons(userID, lessonIDs)
		if err != nil {
			return nil, err
		}

		report = append(report, CourseProgress{
			CourseID:         e.CourseID,
			CourseTitle:      e.Course.Title,
			Progress:         e.Progress,
			TotalLessons:     int(totalLessons),
			CompletedLessons: int(completed),
		})
	}
	return report, nil
}

// Dashboard returns platform-wide counts for the admin overview.
func (s *ReportService) Dashboard() (*DashboardSummary, error) {
	users, err := s.UserRepo.Count()
	if err != nil {
		return nil, err
	}
	courses, err := s.CourseRepo.Count()
	if err != nil {
		return nil, err
	}
	stats, err := s.EnrollmentRepo.Stats()
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		Users:       users,
		Courses:     courses,
		Enrollments: stats.Total,
		AvgProgress: stats.AvgProgress,
	}, nil
}

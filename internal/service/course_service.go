package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CourseDetail decorates a course with the caller's enrollment state.
type CourseDetail struct {
	model.Course
	IsEnrolled bool `json:"isEnrolled"`
	Progress   int  `json:"progress"`
}

type CourseService struct {
	CourseRepo     *repository.CourseRepository
	LessonRepo     *repository.LessonRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Storage        *StorageService
}

func NewCourseService(courseRepo *repository.CourseRepository, lessonRepo *repository.LessonRepository, enrollmentRepo *repository.EnrollmentRepository, storage *StorageService) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		LessonRepo:     lessonRepo,
		EnrollmentRepo: enrollmentRepo,
		Storage:        storage,
	}
}

func (s *CourseService) List(search string, page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.List(search, page, limit)
}

func (s *CourseService) ListFeatured() ([]model.Course, error) {
	return s.CourseRepo.ListFeatured()
}

// GetDetail loads the course with its lessons. When userID is non-zero the
// caller's enrollment state and cached progress ride along.
func (s *CourseService) GetDetail(courseID, userID uint) (*CourseDetail, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	detail := &CourseDetail{Course: *course}
	if userID != 0 {
		enrollment, err := s.EnrollmentRepo.Find(userID, courseID)
		if err == nil {
			detail.IsEnrolled = true
			detail.Progress = enrollment.Progress
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return detail, nil
}

func (s *CourseService) CreateCourse(course *model.Course) error {
	return s.CourseRepo.Create(course)
}

func (s *CourseService) UpdateCourse(courseID uint, updated *model.Course) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	course.Title = updated.Title
	course.Description = updated.Description
	course.Duration = updated.Duration
	course.IsFeatured = updated.IsFeatured
	if updated.ImageURL != "" {
		course.ImageURL = updated.ImageURL
	}
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(courseID uint) error {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}
	return s.CourseRepo.Delete(courseID)
}

// UploadImage stores the course cover and saves its URL on the course.
func (s *CourseService) UploadImage(ctx context.Context, courseID uint, header *multipart.FileHeader) (string, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrCourseNotFound
		}
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{"image/"})
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", err
	}

	url, err := s.Storage.Upload(ctx, ObjectName("courses", header.Filename), file, header.Size, mimeType)
	if err != nil {
		return "", err
	}

	course.ImageURL = url
	if err := s.CourseRepo.Update(course); err != nil {
		return "", err
	}
	return url, nil
}

// UploadLessonVideo stores a lesson video, probes its duration and saves both
// on the lesson. The upload is spooled to disk first so ffprobe can read it.
func (s *CourseService) UploadLessonVideo(ctx context.Context, lessonID uint, header *multipart.FileHeader) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{"video/", "application/x-mpegURL"})
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "lesson-video-*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.ReadFrom(file); err != nil {
		return nil, err
	}

	objectName := ObjectName("lessons", header.Filename)
	url, err := s.Storage.UploadFile(ctx, objectName, tmp.Name(), mimeType)
	if err != nil {
		return nil, err
	}

	lesson.VideoURL = url
	if info, err := util.GetVideoInfo(tmp.Name()); err != nil {
		logger.Log.Warn("video probe failed", zap.Uint("lessonId", lessonID), zap.Error(err))
	} else {
		lesson.VideoDuration = info.Duration
	}

	thumbPath := tmp.Name() + ".jpg"
	if err := util.GenerateThumbnail(tmp.Name(), thumbPath, "00:00:01"); err == nil {
		defer os.Remove(thumbPath)
		thumbObject := fmt.Sprintf("%s.jpg", objectName)
		if _, err := s.Storage.UploadFile(ctx, thumbObject, thumbPath, "image/jpeg"); err != nil {
			logger.Log.Warn("thumbnail upload failed", zap.Uint("lessonId", lessonID), zap.Error(err))
		}
	}

	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrCourseNotFound   = errors.New("course not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNotEnrolled      = errors.New("not enrolled in course")
	ErrAlreadyEnrolled  = errors.New("already enrolled in course")
	ErrSessionNotFound  = errors.New("quiz session not found")
	ErrSessionFinished  = errors.New("quiz session already completed")
	ErrPermissionDenied = errors.New("permission denied")
)

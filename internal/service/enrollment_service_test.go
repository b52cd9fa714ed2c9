package service

import (
	"testing"

	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEnrollmentTestService(t *testing.T) (*EnrollmentService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, cleanup := newMockDB(t)
	svc := NewEnrollmentService(
		db,
		repository.NewEnrollmentRepository(db),
		repository.NewCourseRepository(db),
		repository.NewLessonRepository(db),
	)
	return svc, mock, cleanup
}

func TestEnrollCreatesZeroProgressRecord(t *testing.T) {
	svc, mock, cleanup := newEnrollmentTestService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `courses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(2, "Intro"))
	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `enrollments`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment, err := svc.Enroll(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(1), enrollment.UserID)
	assert.Equal(t, uint(2), enrollment.CourseID)
	assert.Zero(t, enrollment.Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	svc, mock, cleanup := newEnrollmentTestService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `courses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(2, "Intro"))
	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id"}).AddRow(5, 1, 2))

	_, err := svc.Enroll(1, 2)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc, mock, cleanup := newEnrollmentTestService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `courses`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Enroll(1, 99)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestUnenrollRemovesAllRecordsInOneTransaction(t *testing.T) {
	svc, mock, cleanup := newEnrollmentTestService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id"}).AddRow(5, 1, 2))
	mock.ExpectQuery("SELECT `id` FROM `lessons`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `quiz_answers` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE `lesson_progress` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE `enrollments` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Unenroll(1, 2)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnenrollRollsBackOnFailure(t *testing.T) {
	svc, mock, cleanup := newEnrollmentTestService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id"}).AddRow(5, 1, 2))
	mock.ExpectQuery("SELECT `id` FROM `lessons`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `quiz_answers` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE `lesson_progress` SET `deleted_at`").
		WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectRollback()

	err := svc.Unenroll(1, 2)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnenrollWithoutEnrollment(t *testing.T) {
	svc, mock, cleanup := newEnrollmentTestService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := svc.Unenroll(1, 2)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

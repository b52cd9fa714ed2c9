package service

import (
	"testing"
	"time"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLessonTestService(t *testing.T) (*LessonService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, cleanup := newMockDB(t)

	svc := NewLessonService(
		repository.NewLessonRepository(db),
		repository.NewLessonProgressRepository(db),
		repository.NewEnrollmentRepository(db),
		nil,
	)
	return svc, mock, cleanup
}

func lessonColumns() []string {
	return []string{"id", "created_at", "updated_at", "deleted_at", "course_id", "title", "content", "lesson_order", "code_example", "video_url", "video_duration"}
}

func TestCreateLessonKeepsFractionalVideoDuration(t *testing.T) {
	svc, mock, cleanup := newLessonTestService(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO `lessons`").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), uint(3), "Goroutines", "Channels and select.", 2, "", "https://cdn/videos/goroutines.mp4", 731.48).
		WillReturnResult(sqlmock.NewResult(9, 1))

	lesson := &model.Lesson{
		CourseID:      3,
		Title:         "Goroutines",
		Content:       "Channels and select.",
		LessonOrder:   2,
		VideoURL:      "https://cdn/videos/goroutines.mp4",
		VideoDuration: 731.48,
	}
	require.NoError(t, svc.CreateLesson(lesson))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLessonCarriesProbedDuration(t *testing.T) {
	svc, mock, cleanup := newLessonTestService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `lessons`").
		WillReturnRows(sqlmock.NewRows(lessonColumns()).
			AddRow(9, now, now, nil, 3, "Goroutines", "", 2, "", "", 0.0))
	mock.ExpectExec("UPDATE `lessons`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := svc.UpdateLesson(9, &model.Lesson{
		Title:         "Goroutines",
		LessonOrder:   2,
		VideoURL:      "https://cdn/videos/goroutines.mp4",
		VideoDuration: 731.48,
	})
	require.NoError(t, err)
	assert.Equal(t, 731.48, updated.VideoDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonProgressUpsertCreatesMissingMark(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `lesson_progress`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `lesson_progress`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Upsert(1, 2, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonProgressUpsertUpdatesExistingMark(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `lesson_progress`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "user_id", "lesson_id", "completed", "completed_at"}).
			AddRow(5, now, now, 1, 2, false, nil))
	mock.ExpectExec("UPDATE `lesson_progress`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Upsert(1, 2, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonProgressIsCompletedMissingRowMeansFalse(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `lesson_progress`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	completed, err := repo.IsCompleted(1, 2)
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestLessonProgressCountCompleted(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `lesson_progress`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountCompleted(1, []uint{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestLessonProgressCountCompletedEmptyCourse(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	// No lessons, no query.
	count, err := repo.CountCompleted(1, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnrollmentUpdateProgressScopesToKey(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE `enrollments` SET").
		WithArgs(75, sqlmock.AnyArg(), 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProgress(1, 2, 75)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentFindMissingRow(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Find(1, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEnrollmentFind(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "progress"}).
			AddRow(7, 1, 2, 40))

	enrollment, err := repo.Find(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 40, enrollment.Progress)
	assert.Equal(t, uint(2), enrollment.CourseID)
}

func TestEnrollmentStats(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total, IFNULL\\(AVG\\(progress\\), 0\\) AS avg_progress FROM `enrollments`").
		WillReturnRows(sqlmock.NewRows([]string{"total", "avg_progress"}).AddRow(12, 43.5))

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.Total)
	assert.InDelta(t, 43.5, stats.AvgProgress, 0.001)
}

package service

import (
	"testing"
	"time"

	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock, func() { sqlDB.Close() }
}

func newQuizTestService(t *testing.T, store *fakeProgressStore) (*QuizService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, cleanup := newMockDB(t)

	progress := NewProgressService(store, &fakePublisher{})
	svc := NewQuizService(
		repository.NewQuizQuestionRepository(db),
		repository.NewQuizAnswerRepository(db),
		progress,
		30, 60,
	)
	return svc, mock, cleanup
}

func questionRows(ids ...uint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "course_id", "question", "options", "correct_answer"})
	for _, id := range ids {
		rows.AddRow(id, 1, "What does this print?", []byte(`["a","b","c"]`), 1)
	}
	return rows
}

func answeredRows(ids ...uint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"question_id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestStartSessionFiltersAnsweredQuestions(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 3}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `quiz_questions`").
		WillReturnRows(questionRows(1, 2, 3))
	mock.ExpectQuery("SELECT DISTINCT `question_id` FROM `quiz_answers`").
		WillReturnRows(answeredRows(1, 3))

	view, err := svc.StartSession(10, 1)
	require.NoError(t, err)

	assert.Equal(t, SessionInProgress, view.State)
	assert.Equal(t, 1, view.TotalQuestions)
	require.NotNil(t, view.Question)
	assert.Equal(t, uint(2), view.Question.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartSessionRepeatsFullSetWhenAllAnswered(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 3}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `quiz_questions`").
		WillReturnRows(questionRows(1, 2, 3))
	mock.ExpectQuery("SELECT DISTINCT `question_id` FROM `quiz_answers`").
		WillReturnRows(answeredRows(1, 2, 3))

	view, err := svc.StartSession(10, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalQuestions)
	require.NotNil(t, view.Question)
	assert.Equal(t, uint(1), view.Question.ID)
}

func TestStartSessionRequiresEnrollment(t *testing.T) {
	store := &fakeProgressStore{getErr: util.ErrNotEnrolled}
	svc, _, cleanup := newQuizTestService(t, store)
	defer cleanup()

	_, err := svc.StartSession(10, 1)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

func TestStartSessionWithoutQuestions(t *testing.T) {
	store := &fakeProgressStore{}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `quiz_questions`").
		WillReturnRows(questionRows())

	_, err := svc.StartSession(10, 1)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestSessionViewHidesCorrectAnswer(t *testing.T) {
	store := &fakeProgressStore{}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `quiz_questions`").
		WillReturnRows(questionRows(1))
	mock.ExpectQuery("SELECT DISTINCT `question_id` FROM `quiz_answers`").
		WillReturnRows(answeredRows())

	view, err := svc.StartSession(10, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, view.Question.Options)
	assert.Greater(t, view.SecondsLeft, 0)
}

func startSingleQuestionSession(t *testing.T, svc *QuizService, mock sqlmock.Sqlmock, userID uint) *SessionView {
	t.Helper()
	mock.ExpectQuery("SELECT \\* FROM `quiz_questions`").
		WillReturnRows(questionRows(1))
	mock.ExpectQuery("SELECT DISTINCT `question_id` FROM `quiz_answers`").
		WillReturnRows(answeredRows())

	view, err := svc.StartSession(userID, 1)
	require.NoError(t, err)
	return view
}

func TestSubmitAnswerCorrectCompletesSession(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 1, correctAnswers: 0}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	view := startSingleQuestionSession(t, svc, mock, 10)

	mock.ExpectExec("INSERT INTO `quiz_answers`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// The recompute that follows reads from the fake store; reflect the
	// answer that was just recorded.
	store.correctAnswers = 1

	selected := 1
	result, err := svc.SubmitAnswer(view.SessionID, 10, &selected)
	require.NoError(t, err)

	assert.True(t, result.Correct)
	assert.Equal(t, 1, result.CorrectSoFar)
	assert.Equal(t, SessionCompleted, result.State)
	assert.Equal(t, 50, result.FinalPercentage)
	assert.Nil(t, result.NextQuestion)

	// Completed sessions are discarded.
	_, err = svc.CurrentQuestion(view.SessionID, 10)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSubmitAnswerWrongSelection(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 1}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	view := startSingleQuestionSession(t, svc, mock, 10)

	mock.ExpectExec("INSERT INTO `quiz_answers`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	selected := 0
	result, err := svc.SubmitAnswer(view.SessionID, 10, &selected)
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Zero(t, result.CorrectSoFar)
}

func TestSubmitAnswerNilSelectionScoresIncorrect(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 1}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	view := startSingleQuestionSession(t, svc, mock, 10)

	mock.ExpectExec("INSERT INTO `quiz_answers`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := svc.SubmitAnswer(view.SessionID, 10, nil)
	require.NoError(t, err)
	assert.False(t, result.Correct)
}

func TestSubmitAnswerPastDeadlineScoresIncorrect(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 1}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	view := startSingleQuestionSession(t, svc, mock, 10)

	svc.mu.Lock()
	svc.sessions[view.SessionID].Deadline = time.Now().Add(-time.Second)
	svc.mu.Unlock()

	mock.ExpectExec("INSERT INTO `quiz_answers`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// The selection is the right option, but it arrived too late.
	selected := 1
	result, err := svc.SubmitAnswer(view.SessionID, 10, &selected)
	require.NoError(t, err)
	assert.False(t, result.Correct)
}

func TestSubmitAnswerAdvancesToNextQuestion(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 2}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `quiz_questions`").
		WillReturnRows(questionRows(1, 2))
	mock.ExpectQuery("SELECT DISTINCT `question_id` FROM `quiz_answers`").
		WillReturnRows(answeredRows())

	view, err := svc.StartSession(10, 1)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO `quiz_answers`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	selected := 1
	result, err := svc.SubmitAnswer(view.SessionID, 10, &selected)
	require.NoError(t, err)

	assert.Equal(t, SessionInProgress, result.State)
	require.NotNil(t, result.NextQuestion)
	assert.Equal(t, uint(2), result.NextQuestion.ID)
	assert.Equal(t, 1, result.QuestionIndex)
	assert.Equal(t, 2, result.TotalQuestions)
}

func TestSessionIsOwnedByItsLearner(t *testing.T) {
	store := &fakeProgressStore{}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	view := startSingleQuestionSession(t, svc, mock, 10)

	_, err := svc.CurrentQuestion(view.SessionID, 99)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = svc.CurrentQuestion("no-such-session", 10)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSessionOperationsDoNotBlockAcrossSessions(t *testing.T) {
	store := &fakeProgressStore{}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	a := startSingleQuestionSession(t, svc, mock, 10)
	b := startSingleQuestionSession(t, svc, mock, 11)

	svc.mu.Lock()
	sessionA := svc.sessions[a.SessionID]
	svc.mu.Unlock()

	// Hold one session's lock the way an in-flight submit would and make sure
	// the other learner's session stays responsive.
	sessionA.mu.Lock()
	defer sessionA.mu.Unlock()

	view, err := svc.CurrentQuestion(b.SessionID, 11)
	require.NoError(t, err)
	assert.Equal(t, SessionInProgress, view.State)
}

func TestSweeperDropsIdleSessions(t *testing.T) {
	store := &fakeProgressStore{}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	view := startSingleQuestionSession(t, svc, mock, 10)

	svc.mu.Lock()
	svc.sessions[view.SessionID].LastTouch = time.Now().Add(-2 * svc.sessionTTL)
	svc.mu.Unlock()

	svc.sweep()

	_, err := svc.CurrentQuestion(view.SessionID, 10)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSubmitAnswerSurfacesFailedProgressSync(t *testing.T) {
	store := &fakeProgressStore{totalQuestions: 1, setErr: assert.AnError}
	svc, mock, cleanup := newQuizTestService(t, store)
	defer cleanup()

	view := startSingleQuestionSession(t, svc, mock, 10)

	mock.ExpectExec("INSERT INTO `quiz_answers`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	store.correctAnswers = 1

	selected := 1
	_, err := svc.SubmitAnswer(view.SessionID, 10, &selected)
	assert.ErrorIs(t, err, assert.AnError)

	// The answer row is committed and the session still advanced, so the
	// question is not presented again.
	_, err = svc.CurrentQuestion(view.SessionID, 10)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
